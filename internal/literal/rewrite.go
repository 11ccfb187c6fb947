// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package literal

import (
	"fmt"
	"strings"
)

// node is either a leaf token or a bracketed group of nodes.
type node struct {
	tok      token
	open     string
	children []*node
}

func (n *node) isGroup() bool { return n.open != "" }

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

// rewrite turns the token stream into HCL source.
func rewrite(toks []token) (string, error) {
	root, err := group(toks)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := emitSeq(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

func group(toks []token) ([]*node, error) {
	type frame struct {
		n     *node
		nodes []*node
	}
	stack := []frame{{}}
	for _, t := range toks {
		top := &stack[len(stack)-1]
		if t.kind == tokPunct {
			if _, ok := closers[t.text]; ok {
				stack = append(stack, frame{n: &node{open: t.text}})
				continue
			}
			if t.text == ")" || t.text == "]" || t.text == "}" {
				if top.n == nil || closers[top.n.open] != t.text {
					return nil, fmt.Errorf("unbalanced %q", t.text)
				}
				top.n.children = top.nodes
				done := top.n
				stack = stack[:len(stack)-1]
				parent := &stack[len(stack)-1]
				parent.nodes = append(parent.nodes, done)
				continue
			}
		}
		top.nodes = append(top.nodes, &node{tok: t})
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed %q", stack[len(stack)-1].n.open)
	}
	return stack[0].nodes, nil
}

// isSplitter reports whether a leaf separates clauses for the purpose of
// membership rewriting.
func isSplitter(n *node) bool {
	if n.isGroup() {
		return false
	}
	switch n.tok.kind {
	case tokBool:
		return true
	case tokPunct:
		return n.tok.text == "," || n.tok.text == ":" || n.tok.text == "?"
	}
	return false
}

func emitSeq(b *strings.Builder, nodes []*node) error {
	start := 0
	for i, n := range nodes {
		if !isSplitter(n) {
			continue
		}
		if err := emitClause(b, nodes[start:i]); err != nil {
			return err
		}
		b.WriteString(n.tok.text)
		start = i + 1
	}
	return emitClause(b, nodes[start:])
}

// emitClause writes one clause, rewriting "a in b" into "__in(b, a)".
func emitClause(b *strings.Builder, nodes []*node) error {
	at := -1
	for i, n := range nodes {
		if !n.isGroup() && (n.tok.kind == tokIn || n.tok.kind == tokNotIn) {
			if at >= 0 {
				return fmt.Errorf("chained membership tests are not supported")
			}
			at = i
		}
	}
	if at < 0 {
		return emitNodes(b, nodes)
	}
	lead := 0
	for lead < at && !nodes[lead].isGroup() && (nodes[lead].tok.kind == tokNot || nodes[lead].tok.kind == tokSpace) {
		lead++
	}
	lhs, rhs := nodes[lead:at], nodes[at+1:]
	if isBlank(lhs) || isBlank(rhs) {
		return fmt.Errorf("membership test is missing an operand")
	}
	if err := emitNodes(b, nodes[:lead]); err != nil {
		return err
	}
	if nodes[at].tok.kind == tokNotIn {
		b.WriteString("!")
	}
	b.WriteString(inFuncName + "(")
	if err := emitNodes(b, rhs); err != nil {
		return err
	}
	b.WriteString(", ")
	if err := emitNodes(b, lhs); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func isBlank(nodes []*node) bool {
	for _, n := range nodes {
		if n.isGroup() || n.tok.kind != tokSpace {
			return false
		}
	}
	return true
}

func emitNodes(b *strings.Builder, nodes []*node) error {
	var prev *node
	for _, n := range nodes {
		if !n.isGroup() {
			b.WriteString(n.tok.text)
			if n.tok.kind != tokSpace {
				prev = n
			}
			continue
		}
		open, closer := n.open, closers[n.open]
		switch n.open {
		case "(":
			call := prev != nil && !prev.isGroup() && prev.tok.kind == tokIdent
			if !call && (len(n.children) == 0 || hasTopLevel(n.children, ",")) {
				open, closer = "[", "]"
			}
		case "{":
			if len(n.children) > 0 && !hasTopLevel(n.children, ":") && !hasTopLevel(n.children, "=") {
				open, closer = "[", "]"
			}
		}
		b.WriteString(open)
		if err := emitSeq(b, n.children); err != nil {
			return err
		}
		b.WriteString(closer)
		prev = n
	}
	return nil
}

func hasTopLevel(nodes []*node, punct string) bool {
	for _, n := range nodes {
		if !n.isGroup() && n.tok.kind == tokPunct && n.tok.text == punct {
			return true
		}
	}
	return false
}
