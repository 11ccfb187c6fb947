// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package catalog indexes user and library keywords and resolves call-site
// names to exactly one of them.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/kwgrid/internal/argspec"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/vk/kwgrid/internal/suggest"
	"github.com/vk/kwgrid/internal/typeconv"
)

// Keyword is a resolvable keyword: either a user keyword from test data or
// a keyword of an imported library.
type Keyword struct {
	Name string
	// Owner qualifies the name: the library alias or the defining suite.
	Owner string
	// Library is the import name used to look up library instances. Empty
	// for user keywords.
	Library  string
	Spec     *argspec.Spec
	Tags     []string
	Doc      string
	User     *model.UserKeyword
	Embedded *Embedded
}

// FullName returns "Owner.Name", or Name when there is no owner.
func (k *Keyword) FullName() string {
	if k.Owner == "" {
		return k.Name
	}
	return k.Owner + "." + k.Name
}

func (k *Keyword) IsUser() bool { return k.User != nil }

// Match is a resolved call. Args holds the values captured by embedded
// placeholders, to be passed as leading positional arguments.
type Match struct {
	Keyword *Keyword
	Args    []string
}

type tier struct {
	exact    map[string][]*Keyword
	embedded []*Keyword
}

func newTier() *tier {
	return &tier{exact: make(map[string][]*Keyword)}
}

func (t *tier) add(kw *Keyword) {
	if kw.Embedded != nil {
		t.embedded = append(t.embedded, kw)
		return
	}
	key := normalize.Name(kw.Name)
	t.exact[key] = append(t.exact[key], kw)
}

func (t *tier) all() []*Keyword {
	var out []*Keyword
	for _, kws := range t.exact {
		out = append(out, kws...)
	}
	return append(out, t.embedded...)
}

// Catalog resolves keyword names. User keywords take precedence over
// library keywords, and a child catalog takes precedence over its parent.
type Catalog struct {
	conv   *typeconv.Converter
	parent *Catalog
	user   *tier
	libs   *tier
}

// New returns an empty catalog parsing argument types with conv.
func New(conv *typeconv.Converter) *Catalog {
	return &Catalog{conv: conv, user: newTier(), libs: newTier()}
}

// Child returns a catalog layered over c, used for suite-local keywords and
// imports.
func (c *Catalog) Child() *Catalog {
	child := New(c.conv)
	child.parent = c
	return child
}

// tiers lists the tiers in precedence order.
func (c *Catalog) tiers() []*tier {
	var out []*tier
	for cat := c; cat != nil; cat = cat.parent {
		out = append(out, cat.user, cat.libs)
	}
	return out
}

// AddUser registers a user keyword owned by owner.
func (c *Catalog) AddUser(owner string, uk *model.UserKeyword) (*Keyword, error) {
	embedded, err := CompileEmbedded(uk.Name)
	if err != nil {
		return nil, &RegistrationError{Keyword: uk.Name, Message: "has invalid name: " + err.Error()}
	}
	decls := uk.Args
	if embedded != nil {
		if len(uk.Args) > 0 {
			return nil, &RegistrationError{Keyword: uk.Name, Message: "cannot have both embedded and normal arguments."}
		}
		decls = make([]string, len(embedded.Names))
		for i, n := range embedded.Names {
			decls[i] = "${" + n + "}"
		}
	}
	spec, err := argspec.ParseUser(c.conv, uk.Name, decls)
	if err != nil {
		return nil, &RegistrationError{Keyword: uk.Name, Message: "has invalid arguments: " + err.Error()}
	}
	key := normalize.Name(uk.Name)
	if embedded == nil && len(c.user.exact[key]) > 0 {
		return nil, &RegistrationError{Keyword: uk.Name, Message: "is defined multiple times."}
	}
	kw := &Keyword{
		Name:     uk.Name,
		Owner:    owner,
		Spec:     spec,
		Tags:     uk.Tags,
		Doc:      uk.Doc,
		User:     uk,
		Embedded: embedded,
	}
	c.user.add(kw)
	return kw, nil
}

// AddLibrary registers every keyword of lib. Keywords are qualified by
// alias, or by importName when alias is empty.
func (c *Catalog) AddLibrary(importName, alias string, lib library.Library) error {
	owner := alias
	if owner == "" {
		owner = importName
	}
	typed, _ := lib.(library.TypedLibrary)
	documented, _ := lib.(library.DocumentedLibrary)
	for _, name := range lib.KeywordNames() {
		var types map[string]string
		if typed != nil {
			types = typed.KeywordTypes(name)
		}
		spec, err := argspec.ParseDynamic(c.conv, name, lib.KeywordArguments(name), types)
		if err != nil {
			return &RegistrationError{Keyword: owner + "." + name, Message: "has invalid arguments: " + err.Error()}
		}
		embedded, err := CompileEmbedded(name)
		if err != nil {
			return &RegistrationError{Keyword: owner + "." + name, Message: "has invalid name: " + err.Error()}
		}
		if embedded != nil && len(spec.Positional) < len(embedded.Names) {
			return &RegistrationError{
				Keyword: owner + "." + name,
				Message: fmt.Sprintf("has %d embedded arguments but accepts only %d positional arguments.", len(embedded.Names), len(spec.Positional)),
			}
		}
		kw := &Keyword{
			Name:     name,
			Owner:    owner,
			Library:  importName,
			Spec:     spec,
			Tags:     lib.KeywordTags(name),
			Embedded: embedded,
		}
		if documented != nil {
			kw.Doc = documented.KeywordDoc(name)
		}
		c.libs.add(kw)
	}
	return nil
}

// Find resolves name. Exact names win over qualified "Owner.Name" forms,
// which win over embedded patterns. Within each pass the first tier with a
// match decides, and several matches in that tier are ambiguous.
func (c *Catalog) Find(name string) (*Match, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &NotFoundError{Name: name}
	}
	tiers := c.tiers()
	key := normalize.Name(name)
	for _, t := range tiers {
		if kws := t.exact[key]; len(kws) > 0 {
			return single(name, matches(kws))
		}
	}
	if m, ok, err := c.findQualified(name, tiers); ok {
		return m, err
	}
	for _, t := range tiers {
		var found []*Match
		for _, kw := range t.embedded {
			if args, ok := kw.Embedded.Match(name); ok {
				found = append(found, &Match{Keyword: kw, Args: args})
			}
		}
		if len(found) > 0 {
			return single(name, found)
		}
	}
	return nil, &NotFoundError{Name: name, Suggestions: suggestFor(name, tiers)}
}

func (c *Catalog) findQualified(name string, tiers []*tier) (*Match, bool, error) {
	for i := strings.IndexByte(name, '.'); i > 0; {
		owner := normalize.Name(name[:i])
		rest := name[i+1:]
		var found []*Match
		for _, t := range tiers {
			for _, kw := range t.exact[normalize.Name(rest)] {
				if normalize.Name(kw.Owner) == owner {
					found = append(found, &Match{Keyword: kw})
				}
			}
			for _, kw := range t.embedded {
				if normalize.Name(kw.Owner) != owner {
					continue
				}
				if args, ok := kw.Embedded.Match(rest); ok {
					found = append(found, &Match{Keyword: kw, Args: args})
				}
			}
			if len(found) > 0 {
				m, err := single(name, found)
				return m, true, err
			}
		}
		next := strings.IndexByte(name[i+1:], '.')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, false, nil
}

func matches(kws []*Keyword) []*Match {
	out := make([]*Match, len(kws))
	for i, kw := range kws {
		out[i] = &Match{Keyword: kw}
	}
	return out
}

func single(name string, found []*Match) (*Match, error) {
	if len(found) == 1 {
		return found[0], nil
	}
	names := make([]string, len(found))
	for i, m := range found {
		names[i] = m.Keyword.FullName()
	}
	sort.Strings(names)
	return nil, &AmbiguousError{Name: name, Candidates: names}
}

// suggestFor ranks plain keyword names. Embedded templates rarely help as
// suggestions.
func suggestFor(name string, tiers []*tier) []string {
	seen := make(map[string]bool)
	var plain []string
	for _, t := range tiers {
		for key, kws := range t.exact {
			if !seen[key] {
				seen[key] = true
				plain = append(plain, kws[0].Name)
			}
		}
	}
	sort.Strings(plain)
	return suggest.Closest(name, plain)
}

// Names returns the full names of every visible keyword, sorted.
func (c *Catalog) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range c.tiers() {
		for _, kw := range t.all() {
			full := kw.FullName()
			if !seen[full] {
				seen[full] = true
				out = append(out, full)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Keywords returns every keyword registered directly in c, user keywords
// first.
func (c *Catalog) Keywords() []*Keyword {
	out := append(c.user.all(), c.libs.all()...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsUser() != out[j].IsUser() {
			return out[i].IsUser()
		}
		return out[i].FullName() < out[j].FullName()
	})
	return out
}
