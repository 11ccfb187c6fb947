// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// Node describes an item with its children for Build.
type Node struct {
	Item     Item
	Children []Node
}

// N is shorthand for a Node.
func N(item Item, children ...Node) Node {
	return Node{Item: item, Children: children}
}

// Build adds nodes and their descendants under parent and returns the IDs
// of the top level nodes. Child lists of containers are filled in.
func (a *Arena) Build(parent ItemID, nodes ...Node) []ItemID {
	ids := make([]ItemID, len(nodes))
	for i, n := range nodes {
		id := a.Add(parent, n.Item)
		ids[i] = id
		if len(n.Children) == 0 {
			continue
		}
		children := a.Build(id, n.Children...)
		if c, ok := n.Item.(Container); ok {
			a.mu.Lock()
			c.setChildren(children)
			a.mu.Unlock()
		}
	}
	return ids
}

// Call returns a keyword call item.
func Call(name string, args ...string) *KeywordCall {
	return &KeywordCall{Name: name, Args: args}
}

// WithAssign sets the assignment targets of a call and returns it.
func (c *KeywordCall) WithAssign(targets ...string) *KeywordCall {
	c.Assign = targets
	return c
}
