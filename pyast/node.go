// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is one parsed Python source file.
//
// Description:
//
//	Tree owns the underlying tree-sitter tree and the source bytes it was
//	parsed from. Node handles borrow from their Tree and stay valid until
//	Close is called. Analysis code never mutates a Tree.
//
// Thread Safety: Safe for concurrent reads. Close must not race with reads.
type Tree struct {
	// FilePath is the path the source was read from, relative to project root.
	FilePath string

	// Module is the dotted Python module name derived from FilePath
	// (e.g., "pkg/models/user.py" -> "pkg.models.user").
	Module string

	// Source is the raw file content. Node text is sliced out of it.
	Source []byte

	ts *sitter.Tree
}

// Root returns the module node of the tree.
func (t *Tree) Root() Node {
	if t == nil || t.ts == nil {
		return Node{}
	}
	return Node{ts: t.ts.RootNode(), tree: t}
}

// HasError reports whether the source contains syntax errors.
// Partial trees are still analyzable; callers decide whether to skip.
func (t *Tree) HasError() bool {
	if t == nil || t.ts == nil {
		return false
	}
	return t.ts.RootNode().HasError()
}

// Close releases the tree-sitter tree. Nodes borrowed from this tree
// must not be used afterwards.
func (t *Tree) Close() {
	if t != nil && t.ts != nil {
		t.ts.Close()
		t.ts = nil
	}
}

// Node is a borrowed handle into an externally-owned syntax tree.
//
// Description:
//
//	The zero value is the nil node; IsNil reports it. Node is a small value
//	type and is passed by value everywhere. Nodes are never mutated.
type Node struct {
	ts   *sitter.Node
	tree *Tree
}

// NodeID identifies a node for cycle tracking and caching.
//
// Identity is byte-range based within a file, which is stable for the
// lifetime of one parse and deterministic across re-parses of identical
// content.
type NodeID struct {
	File  string
	Start uint32
	End   uint32
	Type  string
}

// IsNil reports whether this is the nil node.
func (n Node) IsNil() bool {
	return n.ts == nil
}

// Kind returns the closed node-kind tag for this node.
func (n Node) Kind() Kind {
	if n.ts == nil {
		return KindNil
	}
	return kindOf(n.ts.Type())
}

// RawType returns the underlying grammar node type string.
func (n Node) RawType() string {
	if n.ts == nil {
		return ""
	}
	return n.ts.Type()
}

// ID returns the identity of this node for visited-set tracking.
func (n Node) ID() NodeID {
	if n.ts == nil {
		return NodeID{}
	}
	file := ""
	if n.tree != nil {
		file = n.tree.FilePath
	}
	return NodeID{
		File:  file,
		Start: n.ts.StartByte(),
		End:   n.ts.EndByte(),
		Type:  n.ts.Type(),
	}
}

// Tree returns the Tree this node was borrowed from.
func (n Node) Tree() *Tree {
	return n.tree
}

// Text returns the source text covered by this node.
func (n Node) Text() string {
	if n.ts == nil || n.tree == nil {
		return ""
	}
	return n.ts.Content(n.tree.Source)
}

// Parent returns the syntactic parent, or the nil node at the root.
func (n Node) Parent() Node {
	if n.ts == nil {
		return Node{}
	}
	p := n.ts.Parent()
	if p == nil {
		return Node{}
	}
	return Node{ts: p, tree: n.tree}
}

// NamedChildCount returns the number of named children.
func (n Node) NamedChildCount() int {
	if n.ts == nil {
		return 0
	}
	return int(n.ts.NamedChildCount())
}

// NamedChild returns the i-th named child, or the nil node out of range.
func (n Node) NamedChild(i int) Node {
	if n.ts == nil || i < 0 || i >= int(n.ts.NamedChildCount()) {
		return Node{}
	}
	return Node{ts: n.ts.NamedChild(i), tree: n.tree}
}

// ChildCount returns the total child count, anonymous tokens included.
func (n Node) ChildCount() int {
	if n.ts == nil {
		return 0
	}
	return int(n.ts.ChildCount())
}

// Child returns the i-th child (anonymous tokens included).
func (n Node) Child(i int) Node {
	if n.ts == nil || i < 0 || i >= int(n.ts.ChildCount()) {
		return Node{}
	}
	return Node{ts: n.ts.Child(i), tree: n.tree}
}

// ChildByField returns the child for a grammar field name
// (e.g., "function", "arguments", "left", "right", "return_type").
func (n Node) ChildByField(field string) Node {
	if n.ts == nil {
		return Node{}
	}
	c := n.ts.ChildByFieldName(field)
	if c == nil {
		return Node{}
	}
	return Node{ts: c, tree: n.tree}
}

// StartLine returns the 1-indexed start line.
func (n Node) StartLine() int {
	if n.ts == nil {
		return 0
	}
	return int(n.ts.StartPoint().Row + 1)
}

// StartCol returns the 1-indexed start column.
func (n Node) StartCol() int {
	if n.ts == nil {
		return 0
	}
	return int(n.ts.StartPoint().Column + 1)
}

// Location is a source position attached to diagnostics.
type Location struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Loc returns the source location of this node.
func (n Node) Loc() Location {
	loc := Location{Line: n.StartLine(), Column: n.StartCol()}
	if n.tree != nil {
		loc.FilePath = n.tree.FilePath
	}
	return loc
}
