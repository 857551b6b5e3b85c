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
	"testing"
)

// addModule parses source into the engine under the given path.
func addModule(t *testing.T, e *Engine, source, filePath string) *Tree {
	t.Helper()
	tree := mustParse(t, source, filePath)
	e.Add(tree)
	return tree
}

func TestEngine_FindClass_TopLevel(t *testing.T) {
	e := NewEngine()
	addModule(t, e, "class User:\n    pass\n", "pkg/models.py")

	class, err := e.FindClass("pkg.models", "User")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.IsNil() || NameOf(class) != "User" {
		t.Error("expected User class definition")
	}

	missing, err := e.FindClass("pkg.models", "Ghost")
	if err != nil || !missing.IsNil() {
		t.Error("expected nil node for unknown class in a known module")
	}

	if _, err := e.FindClass("no.such", "X"); err == nil {
		t.Error("expected error for unknown module")
	}
}

func TestEngine_FindClass_Nested(t *testing.T) {
	e := NewEngine()
	addModule(t, e, "class Outer:\n    class Inner:\n        pass\n", "m.py")

	class, err := e.FindClass("m", "Outer.Inner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class.IsNil() || NameOf(class) != "Inner" {
		t.Error("expected nested Inner class")
	}
}

func TestClassQName_Nested(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, "class Outer:\n    class Inner:\n        pass\n", "pkg/shapes.py")

	inner := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindClassDef && NameOf(n) == "Inner"
	})
	if got := ClassQName(inner); got != "pkg.shapes.Outer.Inner" {
		t.Errorf("ClassQName = %q, want %q", got, "pkg.shapes.Outer.Inner")
	}
}

func TestEngine_BaseQNames(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, `from typing import Protocol

class Base:
    pass

class Repo(Protocol):
    pass

class Impl(Base):
    pass
`, "pkg/repo.py")

	repo := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindClassDef && NameOf(n) == "Repo"
	})
	bases := e.BaseQNames(repo)
	if len(bases) != 1 || bases[0] != "typing.Protocol" {
		t.Errorf("Repo bases = %v, want [typing.Protocol]", bases)
	}

	impl := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindClassDef && NameOf(n) == "Impl"
	})
	bases = e.BaseQNames(impl)
	if len(bases) != 1 || bases[0] != "pkg.repo.Base" {
		t.Errorf("Impl bases = %v, want [pkg.repo.Base]", bases)
	}
}

func TestEngine_Ancestors(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, `class A:
    pass

class B(A):
    pass

class C(B):
    pass
`, "m.py")

	c := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindClassDef && NameOf(n) == "C"
	})
	ancestors, err := e.Ancestors(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ancestors) != 2 {
		t.Fatalf("expected 2 ancestors, got %d", len(ancestors))
	}
	if NameOf(ancestors[0]) != "B" || NameOf(ancestors[1]) != "A" {
		t.Errorf("ancestor order = [%s %s], want [B A]", NameOf(ancestors[0]), NameOf(ancestors[1]))
	}
}

func TestEngine_Ancestors_CrossModule(t *testing.T) {
	e := NewEngine()
	addModule(t, e, "class Base:\n    pass\n", "pkg/base.py")
	tree := addModule(t, e, "from pkg.base import Base\n\nclass Sub(Base):\n    pass\n", "pkg/sub.py")

	sub := findKind(tree.Root(), KindClassDef)
	ancestors, err := e.Ancestors(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ancestors) != 1 || NameOf(ancestors[0]) != "Base" {
		t.Errorf("expected cross-module ancestor Base, got %d ancestors", len(ancestors))
	}
}

func TestEngine_Ancestors_CycleTerminates(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, "class A(B):\n    pass\n\nclass B(A):\n    pass\n", "cyc.py")

	a := findKind(tree.Root(), KindClassDef)
	ancestors, err := e.Ancestors(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ancestors) > 2 {
		t.Errorf("cycle produced %d ancestors", len(ancestors))
	}
}

func TestEngine_HasModule(t *testing.T) {
	e := NewEngine()
	addModule(t, e, "x = 1\n", "pkg/sub/mod.py")

	if !e.HasModule("pkg.sub.mod") {
		t.Error("expected exact module match")
	}
	if !e.HasModule("pkg.sub") {
		t.Error("expected parent-package match")
	}
	if e.HasModule("requests") {
		t.Error("unexpected match for unparsed module")
	}
}

func TestEngine_Infer_Literals(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, `a = "s"
b = 42
c = 1.5
d = True
f = [1]
g = {"k": 1}
h = None
`, "lit.py")

	cases := []struct {
		kind Kind
		want string
	}{
		{KindString, "builtins.str"},
		{KindInteger, "builtins.int"},
		{KindFloat, "builtins.float"},
		{KindTrue, "builtins.bool"},
		{KindList, "builtins.list"},
		{KindDict, "builtins.dict"},
		{KindNone, "builtins.NoneType"},
	}
	ctx := context.Background()
	for _, tc := range cases {
		n := findKind(tree.Root(), tc.kind)
		if n.IsNil() {
			t.Fatalf("no %s node in source", tc.kind)
		}
		got, err := e.Infer(ctx, n)
		if err != nil {
			t.Fatalf("Infer(%s): %v", tc.kind, err)
		}
		if len(got) != 1 || got[0] != tc.want {
			t.Errorf("Infer(%s) = %v, want [%s]", tc.kind, got, tc.want)
		}
	}
}

func TestEngine_Infer_UnknownStaysNil(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, "y = mystery()\n", "u.py")

	call := findKind(tree.Root(), KindCall)
	got, err := e.Infer(context.Background(), call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected Unknown (nil) for unresolvable call, got %v", got)
	}
}

func TestEngine_InferBroad_ChainedBuiltinCalls(t *testing.T) {
	e := NewEngine()
	tree := addModule(t, e, `parts = "a b".strip().split()
`, "b.py")

	// The outermost call is .split() on the .strip() result.
	outer := findKind(tree.Root(), KindCall)
	got, err := e.InferBroad(context.Background(), outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "builtins.list" {
		t.Errorf("InferBroad = %v, want [builtins.list]", got)
	}
}

func TestEngine_CacheCounters(t *testing.T) {
	cache := NewInferenceCache()
	e := NewEngine(WithCache(cache))
	tree := addModule(t, e, "a = \"s\"\n", "c.py")

	n := findKind(tree.Root(), KindString)
	ctx := context.Background()
	if _, err := e.Infer(ctx, n); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Infer(ctx, n); err != nil {
		t.Fatal(err)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 entry", stats)
	}

	cache.Invalidate()
	if cache.Stats().Entries != 0 {
		t.Error("expected empty cache after Invalidate")
	}
}

func TestEngine_CacheKeysSeparateBroad(t *testing.T) {
	cache := NewInferenceCache()
	e := NewEngine(WithCache(cache))
	tree := addModule(t, e, "v = data.copy()\n", "k.py")

	call := findKind(tree.Root(), KindCall)
	ctx := context.Background()
	if _, err := e.Infer(ctx, call); err != nil {
		t.Fatal(err)
	}
	if _, err := e.InferBroad(ctx, call); err != nil {
		t.Fatal(err)
	}
	// Direct and broad results must not collide on one key.
	if cache.Stats().Hits != 0 {
		t.Errorf("expected no cross-mode cache hits, got %d", cache.Stats().Hits)
	}
}
