// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"context"

	"github.com/AleutianAI/demeter/pyast"
)

// Context is the per-top-level-call resolution state.
//
// Description:
//
//	A fresh Context is created at the start of one top-level resolution
//	call and discarded at its end. The visited set is threaded explicitly
//	through every recursive step so a node is processed at most once per
//	call, which bounds recursion on self-referential definitions.
//
// Thread Safety: Not safe for concurrent use. Each parallel analysis unit
// must own its own Context.
type Context struct {
	ctx     context.Context
	visited map[pyast.NodeID]struct{}
}

// NewContext creates a fresh resolution context.
func NewContext(ctx context.Context) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		ctx:     ctx,
		visited: make(map[pyast.NodeID]struct{}),
	}
}

// Ctx returns the cancellation context for provider calls.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Enter marks a node as visited. It returns false when the node was
// already visited in this call, in which case the caller must return
// Unresolved immediately.
func (c *Context) Enter(id pyast.NodeID) bool {
	if _, seen := c.visited[id]; seen {
		return false
	}
	c.visited[id] = struct{}{}
	return true
}

// Visited returns the number of nodes visited so far. Used by tests and
// diagnostics only.
func (c *Context) Visited() int {
	return len(c.visited)
}
