// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package provenance

import (
	"context"
	"testing"

	"github.com/AleutianAI/demeter/pyast"
	"github.com/AleutianAI/demeter/resolve"
)

// newFixture builds the classifier stack over parsed sources.
func newFixture(t *testing.T, files map[string]string) (*Classifier, *pyast.Engine) {
	t.Helper()
	engine := pyast.NewEngine()
	parser := pyast.NewParser()
	for path, src := range files {
		tree, err := parser.Parse(context.Background(), []byte(src), path)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		t.Cleanup(tree.Close)
		engine.Add(tree)
	}
	oracle := NewOracle(t.TempDir())
	resolver := resolve.NewResolver(engine)
	return NewClassifier(engine, oracle, resolver), engine
}

// findIn returns the first node (preorder) matching pred.
func findIn(n pyast.Node, pred func(pyast.Node) bool) pyast.Node {
	if n.IsNil() {
		return pyast.Node{}
	}
	if pred(n) {
		return n
	}
	for i := 0; i < n.NamedChildCount(); i++ {
		if found := findIn(n.NamedChild(i), pred); !found.IsNil() {
			return found
		}
	}
	return pyast.Node{}
}

func callWithRoot(tree *pyast.Tree, root string) pyast.Node {
	return findIn(tree.Root(), func(n pyast.Node) bool {
		return n.Kind() == pyast.KindCall && pyast.ChainRoot(n).Text() == root
	})
}

func TestClassifier_IsPrimitive(t *testing.T) {
	c, _ := newFixture(t, nil)

	cases := []struct {
		q    resolve.QName
		want bool
	}{
		{"builtins.str", true},
		{"str", true},
		{"typing.Optional", true},
		{"collections.abc.Iterable", true},
		{"pkg.User", false},
		{"builtins.str|builtins.int", true},
		{"builtins.str|pkg.User", false},
		{resolve.Unresolved, false},
	}
	for _, tc := range cases {
		if got := c.IsPrimitive(tc.q); got != tc.want {
			t.Errorf("IsPrimitive(%q) = %v, want %v", tc.q, got, tc.want)
		}
	}
}

func TestClassifier_Classify(t *testing.T) {
	c, _ := newFixture(t, map[string]string{
		"app/models.py": "class User:\n    pass\n",
	})

	cases := []struct {
		q    resolve.QName
		want Class
	}{
		{"builtins.str", ClassPrimitive},
		{"pathlib.Path", ClassStdlib},
		{"app.models.User", ClassLocal},
		{"requests.Session", ClassExternal},
		{resolve.Unresolved, ClassUnknown},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.q); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.q, got, tc.want)
		}
	}
}

func TestClassifier_IsTrustedAuthority(t *testing.T) {
	c, engine := newFixture(t, map[string]string{
		"app/client.py": `import requests
from pathlib import Path
from app.local import helper

def f():
    requests.get("u")
    requests.get("u").json()
    Path("f.txt").read_text().splitlines()
    helper.run()
`,
		"app/local.py": "def helper():\n    pass\n",
	})
	ctx := context.Background()
	tree, _ := engine.TreeFor("app.client")

	if !c.IsTrustedAuthority(ctx, callWithRoot(tree, "requests")) {
		t.Error("requests.get should be trusted (external dependency)")
	}
	if !c.IsTrustedAuthority(ctx, callWithRoot(tree, "Path")) {
		t.Error("Path(...) chain should be trusted (stdlib)")
	}
	if c.IsTrustedAuthority(ctx, callWithRoot(tree, "helper")) {
		t.Error("project-local helper must not be trusted")
	}
}

func TestClassifier_IsFluent(t *testing.T) {
	c, engine := newFixture(t, map[string]string{
		"q.py": `class Query:
    def where(self, cond) -> "Query":
        return self

    def limit(self, n) -> "Query":
        return self

    def count(self) -> int:
        return 0

def f(q: Query):
    q.where("a").limit(5)
    q.count()
`,
	})
	ctx := context.Background()
	tree, _ := engine.TreeFor("q")

	chained := findIn(tree.Root(), func(n pyast.Node) bool {
		return n.Kind() == pyast.KindCall &&
			n.ChildByField("function").Kind() == pyast.KindAttribute &&
			n.ChildByField("function").ChildByField("attribute").Text() == "limit"
	})
	if !c.IsFluent(ctx, chained) {
		t.Error("builder chain should be fluent")
	}

	terminal := findIn(tree.Root(), func(n pyast.Node) bool {
		return n.Kind() == pyast.KindCall &&
			n.ChildByField("function").Kind() == pyast.KindAttribute &&
			n.ChildByField("function").ChildByField("attribute").Text() == "count"
	})
	if c.IsFluent(ctx, terminal) {
		t.Error("int-returning terminal call is not fluent")
	}
}

func TestClassifier_Protocols(t *testing.T) {
	c, engine := newFixture(t, map[string]string{
		"app/protocols.py": `from typing import Protocol

class Repo(Protocol):
    def get(self, key: str) -> str: ...
`,
		"app/impl.py": "class Plain:\n    pass\n",
	})

	tree, _ := engine.TreeFor("app.protocols")
	repo := findIn(tree.Root(), func(n pyast.Node) bool {
		return n.Kind() == pyast.KindClassDef
	})
	if !c.IsProtocolClass(repo) {
		t.Error("Repo(Protocol) should be a protocol class")
	}

	impl, _ := engine.TreeFor("app.impl")
	plain := findIn(impl.Root(), func(n pyast.Node) bool {
		return n.Kind() == pyast.KindClassDef
	})
	if c.IsProtocolClass(plain) {
		t.Error("Plain should not be a protocol class")
	}

	if !c.IsProtocolQName("app.protocols.Repo") {
		t.Error("interface-module path should classify as protocol")
	}
	if !c.IsProtocolType("app.protocols.Repo") {
		t.Error("IsProtocolType should accept a declared Protocol class")
	}
	if c.IsProtocolQName("app.impl.Plain") {
		t.Error("plain module path is not a protocol path")
	}
}

func TestOriginQName(t *testing.T) {
	_, engine := newFixture(t, map[string]string{
		"o.py": `import requests
from fastapi import FastAPI

def f():
    requests.get("u")
    FastAPI()
    local = 1
    local
`,
	})
	tree, _ := engine.TreeFor("o")

	get := callWithRoot(tree, "requests")
	if got := OriginQName(get); got != "requests" {
		t.Errorf("origin = %q, want requests", got)
	}

	app := callWithRoot(tree, "FastAPI")
	if got := OriginQName(app); got != "fastapi.FastAPI" {
		t.Errorf("origin = %q, want fastapi.FastAPI", got)
	}

	local := findIn(tree.Root(), func(n pyast.Node) bool {
		return n.Kind() == pyast.KindIdentifier && n.Text() == "local" &&
			n.Parent().Kind() == pyast.KindExpressionStatement
	})
	if got := OriginQName(local); got != "" {
		t.Errorf("non-import binding origin = %q, want empty", got)
	}
}
