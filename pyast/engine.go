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
	"context"
	"fmt"
	"strings"
	"sync"
)

// Engine is the project-wide AST and inference provider.
//
// Description:
//
//	Engine holds every parsed Tree of the analyzed project, keyed by module
//	name, and answers the queries the resolver layer needs: semantic
//	inference over expression nodes, lexical lookup, cross-module class
//	lookup, and ancestor (base class) walks.
//
//	Inference here is deliberately conservative. It propagates types for
//	literals, builtin constructor calls and, in the broad pass, a fixed
//	table of builtin method return types. Anything else is Unknown (nil
//	candidates) — the zero-fallback policy forbids guessing.
//
// Thread Safety: Safe for concurrent use after all Add calls are done.
type Engine struct {
	mu    sync.RWMutex
	trees map[string]*Tree
	cache *InferenceCache
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCache attaches a caller-owned inference cache. The caller is
// responsible for invalidating it between passes over mutated source.
func WithCache(c *InferenceCache) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{trees: make(map[string]*Tree)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers a parsed tree under its module name.
func (e *Engine) Add(tree *Tree) {
	if tree == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trees[tree.Module] = tree
}

// TreeFor returns the tree for a module name.
func (e *Engine) TreeFor(module string) (*Tree, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.trees[module]
	return t, ok
}

// Modules returns the module names the engine has parsed.
func (e *Engine) Modules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.trees))
	for m := range e.trees {
		out = append(out, m)
	}
	return out
}

// HasModule reports whether a module (or a parent package of it) was
// parsed from the project's own source tree.
func (e *Engine) HasModule(module string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.trees[module]; ok {
		return true
	}
	// A dotted submodule counts if its file was parsed under any name prefix.
	for m := range e.trees {
		if strings.HasPrefix(m, module+".") {
			return true
		}
	}
	return false
}

// Lookup resolves a bare name lexically from the given scope.
//
// Outputs:
//
//	[]Node - Defining statements in source order; nil when unbound.
//	error  - Non-nil for malformed queries (nil node).
func (e *Engine) Lookup(scope Node, name string) ([]Node, error) {
	if scope.IsNil() {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrNilNode)
	}
	return Lookup(scope, name), nil
}

// FindClass returns the class definition named name at the top level of
// module (nested classes are addressed with dotted names, "Outer.Inner").
func (e *Engine) FindClass(module, name string) (Node, error) {
	tree, ok := e.TreeFor(module)
	if !ok {
		return Node{}, fmt.Errorf("find class %s.%s: %w", module, name, ErrUnknownModule)
	}
	scope := tree.Root()
	segments := strings.Split(name, ".")
	var class Node
	for _, seg := range segments {
		class = classIn(scope, seg)
		if class.IsNil() {
			return Node{}, nil
		}
		scope = class
	}
	return class, nil
}

// classIn finds a class definition named name directly inside scope.
func classIn(scope Node, name string) Node {
	body := scope
	if scope.Kind() != KindModule {
		body = BodyOf(scope)
	}
	if body.IsNil() {
		return Node{}
	}
	for i := 0; i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Kind() {
		case KindClassDef:
			if NameOf(stmt) == name {
				return stmt
			}
		case KindDecoratedDef:
			inner := Undecorate(stmt)
			if inner.Kind() == KindClassDef && NameOf(inner) == name {
				return inner
			}
		}
	}
	return Node{}
}

// ClassQName returns the qualified name of a class definition node,
// including enclosing classes ("pkg.mod.Outer.Inner").
func ClassQName(class Node) string {
	class = Undecorate(class)
	if class.Kind() != KindClassDef {
		return ""
	}
	parts := []string{NameOf(class)}
	for _, s := range ScopeChain(class) {
		if s.Kind() == KindClassDef {
			parts = append([]string{NameOf(s)}, parts...)
		}
	}
	module := ""
	if class.Tree() != nil {
		module = class.Tree().Module
	}
	if module != "" {
		parts = append([]string{module}, parts...)
	}
	return strings.Join(parts, ".")
}

// BaseQNames returns the qualified names of a class's direct bases, in
// source order.
//
// Description:
//
//	Bases are resolved textually through the importing scope: a bare base
//	name is looked up lexically (local class or import binding), a dotted
//	base resolves its leading segment the same way. Subscripted bases
//	(Protocol[T], Generic[T]) use the subscripted value. Bases that cannot
//	be traced to any import or local class keep their raw text, so callers
//	can still match well-known markers like "typing.Protocol".
func (e *Engine) BaseQNames(class Node) []string {
	var out []string
	for _, base := range ClassBases(Undecorate(class)) {
		if q := e.baseQName(base); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// baseQName resolves one base-class expression to a qualified name.
func (e *Engine) baseQName(base Node) string {
	switch base.Kind() {
	case KindSubscript:
		return e.baseQName(base.ChildByField("value"))
	case KindIdentifier:
		name := base.Text()
		for _, def := range Lookup(base, name) {
			switch def.Kind() {
			case KindClassDef, KindDecoratedDef:
				return ClassQName(def)
			case KindImport, KindImportFrom:
				return ImportedQName(def, name)
			}
		}
		return name
	case KindAttribute:
		root, rest := splitDottedText(base.Text())
		for _, def := range Lookup(base, root) {
			if def.Kind() == KindImport || def.Kind() == KindImportFrom {
				if q := ImportedQName(def, root); q != "" {
					return q + "." + rest
				}
			}
		}
		return base.Text()
	default:
		return ""
	}
}

// Ancestors returns the resolvable ancestor class definitions of class.
//
// Description:
//
//	Walks direct bases left to right, then their bases, approximating MRO
//	order without full C3 linearization. Bases defined outside the parsed
//	project (typing.Protocol, third-party classes) have no definition node
//	and are skipped; BaseQNames exposes their names instead. A visited set
//	guards against inheritance cycles in malformed source.
func (e *Engine) Ancestors(class Node) ([]Node, error) {
	class = Undecorate(class)
	if class.IsNil() {
		return nil, ErrNilNode
	}
	seen := map[NodeID]struct{}{class.ID(): {}}
	var out []Node
	e.collectAncestors(class, seen, &out)
	return out, nil
}

// collectAncestors appends resolvable bases of class in MRO-ish order.
func (e *Engine) collectAncestors(class Node, seen map[NodeID]struct{}, out *[]Node) {
	var direct []Node
	for _, base := range ClassBases(class) {
		def := e.resolveBaseDef(base)
		if def.IsNil() {
			continue
		}
		if _, ok := seen[def.ID()]; ok {
			continue
		}
		seen[def.ID()] = struct{}{}
		direct = append(direct, def)
		*out = append(*out, def)
	}
	for _, d := range direct {
		e.collectAncestors(d, seen, out)
	}
}

// resolveBaseDef resolves a base expression to its class definition node,
// locally or across modules, or the nil node.
func (e *Engine) resolveBaseDef(base Node) Node {
	switch base.Kind() {
	case KindSubscript:
		return e.resolveBaseDef(base.ChildByField("value"))
	case KindIdentifier:
		name := base.Text()
		for _, def := range Lookup(base, name) {
			switch def.Kind() {
			case KindClassDef:
				return def
			case KindDecoratedDef:
				if inner := Undecorate(def); inner.Kind() == KindClassDef {
					return inner
				}
			case KindImport, KindImportFrom:
				q := ImportedQName(def, name)
				if q == "" {
					continue
				}
				module, cls := splitQName(q)
				if found, err := e.FindClass(module, cls); err == nil && !found.IsNil() {
					return found
				}
			}
		}
	case KindAttribute:
		root, rest := splitDottedText(base.Text())
		for _, def := range Lookup(base, root) {
			if def.Kind() != KindImport && def.Kind() != KindImportFrom {
				continue
			}
			module := ImportedQName(def, root)
			if module == "" {
				continue
			}
			if found, err := e.FindClass(module, rest); err == nil && !found.IsNil() {
				return found
			}
		}
	}
	return Node{}
}

// splitDottedText splits "a.b.c" into ("a", "b.c").
func splitDottedText(s string) (string, string) {
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

// splitQName splits "pkg.mod.Class" into module and class segments,
// assuming the final segment names the class.
func splitQName(q string) (string, string) {
	if idx := strings.LastIndexByte(q, '.'); idx >= 0 {
		return q[:idx], q[idx+1:]
	}
	return "", q
}

// Infer runs direct semantic inference over an expression node.
//
// Description:
//
//	Returns candidate qualified type names, already normalized to the
//	builtins namespace where applicable. Nil candidates with a nil error
//	mean Unknown. The attached cache, when present, memoizes results;
//	invalidation is the caller's responsibility.
//
// Outputs:
//
//	[]string - Candidate QNames in preference order; nil when Unknown.
//	error    - Non-nil for malformed queries (nil node).
func (e *Engine) Infer(ctx context.Context, n Node) ([]string, error) {
	return e.inferCached(ctx, n, false)
}

// InferBroad runs the wider inference query, additionally consulting the
// builtin method return table for calls like `text.split()`.
func (e *Engine) InferBroad(ctx context.Context, n Node) ([]string, error) {
	return e.inferCached(ctx, n, true)
}

func (e *Engine) inferCached(ctx context.Context, n Node, broad bool) ([]string, error) {
	if n.IsNil() {
		return nil, ErrNilNode
	}
	key := n.ID()
	if broad {
		key.Type = "broad:" + key.Type
	}
	if e.cache != nil {
		if v, ok := e.cache.get(key); ok {
			recordCacheHit(ctx)
			return v, nil
		}
	}
	var candidates []string
	if broad {
		candidates = e.inferBroadNode(ctx, n)
	} else {
		candidates = inferNode(n)
	}
	if e.cache != nil {
		e.cache.put(key, candidates)
	}
	recordInfer(ctx, len(candidates) > 0)
	return candidates, nil
}
