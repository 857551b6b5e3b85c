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
	"testing"
)

const testPyScopes = `import requests
import os.path as osp
from pkg.models import User
from pkg import helper as h

x = 1

class Service:
    rate: float = 0.5

    def __init__(self):
        self.name: str = "svc"

    @property
    def label(self) -> str:
        return self.name

    def run(self, x, data: dict):
        return x
`

func TestLookup_ModuleAssignment(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	defs := Lookup(tree.Root(), "x")
	if len(defs) != 1 {
		t.Fatalf("expected 1 binding for x, got %d", len(defs))
	}
	if defs[0].Kind() != KindAssignment {
		t.Errorf("expected assignment binding, got %s", defs[0].Kind())
	}
}

func TestLookup_ParameterShadowsModule(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	run := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindFunctionDef && NameOf(n) == "run"
	})
	if run.IsNil() {
		t.Fatal("run method not found")
	}
	usage := findText(BodyOf(run), KindIdentifier, "x")
	if usage.IsNil() {
		t.Fatal("x usage not found")
	}

	defs := Lookup(usage, "x")
	if len(defs) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(defs))
	}
	// The function parameter wins over the module-level assignment.
	if defs[0].Kind() == KindAssignment {
		t.Error("expected the parameter binding, got the module assignment")
	}
}

func TestLookup_ImportBinding(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	defs := Lookup(tree.Root(), "requests")
	if len(defs) != 1 || defs[0].Kind() != KindImport {
		t.Fatalf("expected import binding for requests, got %v", defs)
	}
}

func TestImportedQName(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	root := tree.Root()

	cases := []struct {
		name string
		want string
	}{
		{"requests", "requests"},
		{"osp", "os.path"},
		{"User", "pkg.models.User"},
		{"h", "pkg.helper"},
		{"nobody", ""},
	}
	for _, tc := range cases {
		got := ""
		for i := 0; i < root.NamedChildCount(); i++ {
			stmt := root.NamedChild(i)
			if stmt.Kind() != KindImport && stmt.Kind() != KindImportFrom {
				continue
			}
			if q := ImportedQName(stmt, tc.name); q != "" {
				got = q
				break
			}
		}
		if got != tc.want {
			t.Errorf("ImportedQName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestImportedQName_Relative(t *testing.T) {
	tree := mustParse(t, "from . import sibling\n", "pkg/mod.py")
	imp := findKind(tree.Root(), KindImportFrom)
	if imp.IsNil() {
		t.Fatal("import not found")
	}
	if got := ImportedQName(imp, "sibling"); got != "pkg.sibling" {
		t.Errorf("relative import resolved to %q, want %q", got, "pkg.sibling")
	}
}

func TestEnclosingClass(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	self := findText(tree.Root(), KindIdentifier, "self")
	if self.IsNil() {
		t.Fatal("self not found")
	}
	class := EnclosingClass(self)
	if class.IsNil() || NameOf(class) != "Service" {
		t.Errorf("expected enclosing class Service, got %v", NameOf(class))
	}
}

func TestIsPropertyDef(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	label := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindFunctionDef && NameOf(n) == "label"
	})
	if label.IsNil() {
		t.Fatal("label method not found")
	}
	if !IsPropertyDef(label) {
		t.Error("expected label to be a property")
	}
	run := findNode(tree.Root(), func(n Node) bool {
		return n.Kind() == KindFunctionDef && NameOf(n) == "run"
	})
	if IsPropertyDef(run) {
		t.Error("run is not a property")
	}
}

func TestFindClassAttribute(t *testing.T) {
	tree := mustParse(t, testPyScopes, "pkg/service.py")
	class := findKind(tree.Root(), KindClassDef)
	if class.IsNil() {
		t.Fatal("class not found")
	}

	// Annotated class-level assignment.
	if def := FindClassAttribute(class, "rate"); def.IsNil() || def.Kind() != KindAssignment {
		t.Error("expected assignment declaration for rate")
	}
	// Property method.
	if def := FindClassAttribute(class, "label"); def.IsNil() {
		t.Error("expected declaration for label")
	}
	// Annotated self-assignment inside __init__.
	if def := FindClassAttribute(class, "name"); def.IsNil() || def.Kind() != KindAssignment {
		t.Error("expected annotated self-assignment for name")
	}
	if def := FindClassAttribute(class, "missing"); !def.IsNil() {
		t.Error("expected nil node for undeclared attribute")
	}
}

func TestClassBases_SkipsKeywords(t *testing.T) {
	tree := mustParse(t, "class A(Base, metaclass=Meta):\n    pass\n", "m.py")
	class := findKind(tree.Root(), KindClassDef)
	bases := ClassBases(class)
	if len(bases) != 1 || bases[0].Text() != "Base" {
		t.Errorf("expected single base 'Base', got %v", len(bases))
	}
}

func TestChainRootAndDepth(t *testing.T) {
	tree := mustParse(t, "r = a.b.c()\ns = obj.m()\n", "c.py")
	calls := []Node{}
	var collect func(Node)
	collect = func(n Node) {
		if n.Kind() == KindCall {
			calls = append(calls, n)
		}
		for i := 0; i < n.NamedChildCount(); i++ {
			collect(n.NamedChild(i))
		}
	}
	collect(tree.Root())
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}

	if root := ChainRoot(calls[0]); root.Text() != "a" {
		t.Errorf("expected chain root 'a', got %q", root.Text())
	}
	if d := ChainDepth(calls[0]); d != 2 {
		t.Errorf("expected depth 2 for a.b.c(), got %d", d)
	}
	if d := ChainDepth(calls[1]); d != 1 {
		t.Errorf("expected depth 1 for obj.m(), got %d", d)
	}
}

func TestTypeExpr(t *testing.T) {
	tree := mustParse(t, "def f(x: str) -> int:\n    return 0\n", "t.py")

	param := findKind(tree.Root(), KindTypedParameter)
	wrapper := param.ChildByField("type")
	if wrapper.Kind() != KindType {
		t.Fatalf("type field kind = %s, want the grammar's type wrapper", wrapper.Kind())
	}
	inner := TypeExpr(wrapper)
	if inner.Kind() != KindIdentifier || inner.Text() != "str" {
		t.Errorf("unwrapped annotation = %s %q, want identifier str", inner.Kind(), inner.Text())
	}

	ret := ReturnAnnotation(findKind(tree.Root(), KindFunctionDef))
	if ret.Kind() != KindIdentifier || ret.Text() != "int" {
		t.Errorf("return annotation = %s %q, want identifier int", ret.Kind(), ret.Text())
	}

	if got := TypeExpr(inner); got.ID() != inner.ID() {
		t.Error("TypeExpr must pass non-wrapper nodes through unchanged")
	}
}
