// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/normalize"
)

// Keys identify the suite and test currently running. Test is empty
// outside tests, e.g. in suite setup.
type Keys struct {
	Suite string
	Test  string
}

// ScopeKey returns the key instances of the given scope share under keys.
func ScopeKey(scope Scope, keys Keys) string {
	switch {
	case scope == ScopeTest && keys.Test != "":
		return "test:" + keys.Test
	case scope == ScopeTest, scope == ScopeSuite:
		return "suite:" + keys.Suite
	}
	return "global"
}

type instance struct {
	name string
	lib  Library
}

// Instances creates library instances lazily and keeps at most one live
// instance per library and scope key. Release closes the instances of a
// scope key in reverse creation order.
type Instances struct {
	mu      sync.Mutex
	imports map[string]*Import
	live    map[string]map[string]*instance // scope key -> library -> instance
	order   map[string][]string
	held    map[string]bool // released once abandoned units stop
}

// NewInstances returns a manager for the given imports.
func NewInstances(imports ...*Import) *Instances {
	in := &Instances{
		imports: make(map[string]*Import),
		live:    make(map[string]map[string]*instance),
		order:   make(map[string][]string),
		held:    make(map[string]bool),
	}
	for _, imp := range imports {
		in.Add(imp)
	}
	return in
}

// Add makes a library importable. A duplicate name panics.
func (in *Instances) Add(imp *Import) {
	in.mu.Lock()
	defer in.mu.Unlock()
	key := normalize.Name(imp.Name)
	if _, exists := in.imports[key]; exists {
		panic(fmt.Sprintf("library '%s' already registered", imp.Name))
	}
	in.imports[key] = imp
}

// Import returns the import with the given name.
func (in *Instances) Import(name string) (*Import, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	imp, ok := in.imports[normalize.Name(name)]
	return imp, ok
}

// Names returns the names of all known imports, sorted.
func (in *Instances) Names() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	names := make([]string, 0, len(in.imports))
	for _, imp := range in.imports {
		names = append(names, imp.Name)
	}
	sort.Strings(names)
	return names
}

// Get returns the instance of the named library for keys, creating it on
// first use.
func (in *Instances) Get(ctx context.Context, name string, keys Keys) (Library, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	libKey := normalize.Name(name)
	imp, ok := in.imports[libKey]
	if !ok {
		return nil, fmt.Errorf("no library '%s' found", name)
	}
	scopeKey := ScopeKey(imp.Scope, keys)
	if inst, ok := in.live[scopeKey][libKey]; ok {
		return inst.lib, nil
	}

	lib, err := imp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing library '%s' failed: %w", imp.Name, err)
	}
	if in.live[scopeKey] == nil {
		in.live[scopeKey] = make(map[string]*instance)
	}
	in.live[scopeKey][libKey] = &instance{name: imp.Name, lib: lib}
	in.order[scopeKey] = append(in.order[scopeKey], libKey)
	ctxlog.FromContext(ctx).Debug("Library instance created.", "library", imp.Name, "scope", imp.Scope, "key", scopeKey)
	return lib, nil
}

// Live reports how many instances exist for the scope key.
func (in *Instances) Live(scopeKey string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.live[scopeKey])
}

// Release closes every instance created under scopeKey, newest first.
func (in *Instances) Release(ctx context.Context, scopeKey string) error {
	in.mu.Lock()
	live := in.live[scopeKey]
	order := in.order[scopeKey]
	delete(in.live, scopeKey)
	delete(in.order, scopeKey)
	in.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		inst := live[order[i]]
		closer, ok := inst.lib.(Closer)
		if !ok {
			continue
		}
		logger.Debug("🔥 Closing library instance.", "library", inst.name, "key", scopeKey)
		if err := closer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing library '%s' failed: %w", inst.name, err))
		}
	}
	return errors.Join(errs...)
}

// ReleaseAfter keeps the instances of scopeKey open until every channel
// in stopped is closed, then releases them in the background. Instances
// still in use by a unit that outlived its timeout are never closed under
// it.
func (in *Instances) ReleaseAfter(ctx context.Context, scopeKey string, stopped ...<-chan struct{}) {
	in.mu.Lock()
	in.held[scopeKey] = true
	in.mu.Unlock()

	go func() {
		for _, ch := range stopped {
			<-ch
		}
		in.mu.Lock()
		delete(in.held, scopeKey)
		in.mu.Unlock()
		if err := in.Release(ctx, scopeKey); err != nil {
			ctxlog.FromContext(ctx).Warn("Releasing held library instances failed.", "key", scopeKey, "error", err)
		}
	}()
}

// Held reports whether scopeKey waits for abandoned units.
func (in *Instances) Held(scopeKey string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.held[scopeKey]
}

// CloseAll releases every remaining instance: test scopes first, global
// last. Held scope keys are left to ReleaseAfter.
func (in *Instances) CloseAll(ctx context.Context) error {
	in.mu.Lock()
	keys := make([]string, 0, len(in.live))
	for k := range in.live {
		if !in.held[k] {
			keys = append(keys, k)
		}
	}
	in.mu.Unlock()
	rank := func(k string) int {
		switch {
		case strings.HasPrefix(k, "test:"):
			return 0
		case strings.HasPrefix(k, "suite:"):
			return 1
		}
		return 2
	}
	sort.Slice(keys, func(i, j int) bool {
		if rank(keys[i]) != rank(keys[j]) {
			return rank(keys[i]) < rank(keys[j])
		}
		return keys[i] < keys[j]
	})

	var errs []error
	for _, k := range keys {
		if err := in.Release(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
