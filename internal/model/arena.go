// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
	"sync"
)

// Arena stores the body items of one suite tree. Items are never removed,
// so an ItemID stays valid for the life of the arena.
type Arena struct {
	mu      sync.RWMutex
	items   []Item
	parents []ItemID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add stores item under parent and returns its ID. It does not touch the
// parent's child list.
func (a *Arena) Add(parent ItemID, item Item) ItemID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.add(parent, item)
}

func (a *Arena) add(parent ItemID, item Item) ItemID {
	a.items = append(a.items, item)
	a.parents = append(a.parents, parent)
	return ItemID(len(a.items) - 1)
}

// AddAll stores items under parent, in order.
func (a *Arena) AddAll(parent ItemID, items ...Item) []ItemID {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]ItemID, len(items))
	for i, it := range items {
		ids[i] = a.add(parent, it)
	}
	return ids
}

// Get returns the item with the given ID or nil.
func (a *Arena) Get(id ItemID) Item {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.items) {
		return nil
	}
	return a.items[id]
}

// Parent returns the parent of an item, NoItem for items owned directly by
// a test, keyword or suite.
func (a *Arena) Parent(id ItemID) ItemID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.parents) {
		return NoItem
	}
	return a.parents[id]
}

// Len returns the number of stored items.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Children returns a copy of the child list of a container item.
func (a *Arena) Children(id ItemID) []ItemID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.items) {
		return nil
	}
	c, ok := a.items[id].(Container)
	if !ok {
		return nil
	}
	return append([]ItemID(nil), c.Children()...)
}

// SetBody replaces the children of a container: items are appended to the
// arena under owner and the owner's child list is rewritten to them.
func (a *Arena) SetBody(owner ItemID, items ...Item) ([]ItemID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if owner < 0 || int(owner) >= len(a.items) {
		return nil, fmt.Errorf("no item %d", owner)
	}
	c, ok := a.items[owner].(Container)
	if !ok {
		return nil, fmt.Errorf("item %d (%s) has no body", owner, a.items[owner].Kind())
	}
	ids := make([]ItemID, len(items))
	for i, it := range items {
		ids[i] = a.add(owner, it)
	}
	c.setChildren(ids)
	return ids, nil
}

// Replace swaps the item stored under id, keeping its position in its
// parent's child list. Precompile uses it to turn invalid items into Error
// items.
func (a *Arena) Replace(id ItemID, item Item) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id < 0 || int(id) >= len(a.items) {
		return fmt.Errorf("no item %d", id)
	}
	a.items[id] = item
	return nil
}

// Path returns the chain of ancestors of id, outermost first, id last.
func (a *Arena) Path(id ItemID) []ItemID {
	var path []ItemID
	for cur := id; cur.Valid(); cur = a.Parent(cur) {
		path = append([]ItemID{cur}, path...)
	}
	return path
}

// Walk visits ids and their descendants depth first. Returning false from
// fn skips the children of that item.
func (a *Arena) Walk(ids []ItemID, fn func(id ItemID, item Item) bool) {
	for _, id := range ids {
		item := a.Get(id)
		if item == nil {
			continue
		}
		if fn(id, item) {
			a.Walk(a.Children(id), fn)
		}
	}
}
