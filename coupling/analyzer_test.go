// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coupling

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/demeter/provenance"
	"github.com/AleutianAI/demeter/pyast"
	"github.com/AleutianAI/demeter/resolve"
)

// memSink collects violations in order.
type memSink struct {
	violations []Violation
}

func (s *memSink) Emit(v Violation) {
	s.violations = append(s.violations, v)
}

// fixture is the full analyzer stack over in-memory sources.
type fixture struct {
	analyzer *Analyzer
	trees    map[string]*pyast.Tree
	root     string
}

// newFixture parses files (path -> source) and wires the analyzer. The
// returned root is a temp dir usable for stub files.
func newFixture(t *testing.T, files map[string]string, opts Options) *fixture {
	t.Helper()
	engine := pyast.NewEngine()
	parser := pyast.NewParser()
	trees := make(map[string]*pyast.Tree, len(files))
	for path, src := range files {
		tree, err := parser.Parse(context.Background(), []byte(src), path)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		t.Cleanup(tree.Close)
		engine.Add(tree)
		trees[path] = tree
	}
	root := t.TempDir()
	oracle := provenance.NewOracle(root)
	resolver := resolve.NewResolver(engine)
	classifier := provenance.NewClassifier(engine, oracle, resolver)
	stubs := provenance.NewStubResolver()
	return &fixture{
		analyzer: NewAnalyzer(engine, classifier, resolver, stubs, oracle, opts),
		trees:    trees,
		root:     root,
	}
}

// analyze runs the analyzer over one file and returns the violations.
func (f *fixture) analyze(t *testing.T, path string) []Violation {
	t.Helper()
	sink := &memSink{}
	f.analyzer.AnalyzeFile(context.Background(), f.trees[path], sink)
	return sink.violations
}

func TestAnalyzer_TrainWreck(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `class Service:
    def handle(self):
        self.repo.db.connect()
`,
	}, Options{})

	violations := f.analyze(t, "app.py")
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Code != CodeLawOfDemeter {
		t.Errorf("code = %s, want %s", v.Code, CodeLawOfDemeter)
	}
	if v.Chain != "self.repo.db.connect" {
		t.Errorf("chain = %q", v.Chain)
	}
	if len(v.Locations) != 2 {
		t.Errorf("expected call and root locations, got %d", len(v.Locations))
	}
}

func TestAnalyzer_ShallowSelfChainAllowed(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `class Service:
    def handle(self):
        self.repo.fetch()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("self.repo.fetch() is a shallow self chain, got %d violations", len(violations))
	}
}

func TestAnalyzer_StdlibChainExcluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `from pathlib import Path

def read_lines():
    return Path("f.txt").read_text().splitlines()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("stdlib chain flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_PrimitiveChainExcluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `def f(val: str):
    return val.strip().split(",")
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("annotated primitive chain flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_StrangerVariable(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `def process(repo):
    item = repo.get_item()
    item.save()
`,
	}, Options{})

	violations := f.analyze(t, "app.py")
	if len(violations) != 1 {
		t.Fatalf("expected 1 stranger violation, got %d", len(violations))
	}
	if violations[0].Code != CodeLawOfDemeter {
		t.Errorf("code = %s", violations[0].Code)
	}
	if !strings.Contains(violations[0].Message, "Stranger") {
		t.Errorf("message = %q, want stranger diagnostic", violations[0].Message)
	}
}

func TestAnalyzer_RebindClearsStranger(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `def process(repo):
    item = repo.get_item()
    item = "plain"
    item.upper()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("rebound name still flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_TrustedAssignmentNotStranger(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `import requests

def fetch():
    resp = requests.get("u")
    resp.raise_for_status()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("trusted-call result flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_FluentBuilderExcluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `class Query:
    def where(self, cond) -> "Query":
        return self

    def limit(self, n) -> "Query":
        return self

    def build(self) -> str:
        return ""

def f(q: Query):
    return q.where("a").limit(5).build()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("fluent chain flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_UnstableDependency(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `import paymentlib

def charge():
    gateway = paymentlib.connect()
    gateway.api.charge()
`,
	}, Options{})

	violations := f.analyze(t, "app.py")
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Code != CodeUnstableDependency {
		t.Fatalf("code = %s, want %s", v.Code, CodeUnstableDependency)
	}
	if !strings.Contains(v.Message, "paymentlib") {
		t.Errorf("message = %q, want external module named", v.Message)
	}
	if !strings.Contains(v.Message, ".pyi") {
		t.Errorf("message = %q, want stub path suggested", v.Message)
	}
}

func TestAnalyzer_UnstableDependency_AnnotatedParameter(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `import paymentlib

def charge(a: paymentlib.Client):
    a.b.c()
`,
	}, Options{})

	violations := f.analyze(t, "app.py")
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Code != CodeUnstableDependency {
		t.Fatalf("code = %s, want %s", v.Code, CodeUnstableDependency)
	}
	if !strings.Contains(v.Message, "paymentlib") || !strings.Contains(v.Message, ".pyi") {
		t.Errorf("message = %q, want a paymentlib stub suggested", v.Message)
	}
}

func TestAnalyzer_StubDowngradesToChainViolation(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `import paymentlib

def charge():
    gateway = paymentlib.connect()
    gateway.api.charge()
`,
	}, Options{})

	stubDir := filepath.Join(f.root, "stubs")
	if err := os.MkdirAll(stubDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stubDir, "paymentlib.pyi"), []byte("class Client: ...\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	violations := f.analyze(t, "app.py")
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	// With a stub on disk, the chain is an ordinary Law of Demeter finding.
	if violations[0].Code != CodeLawOfDemeter {
		t.Errorf("code = %s, want %s", violations[0].Code, CodeLawOfDemeter)
	}
}

func TestAnalyzer_AtMostOneViolationPerCall(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `def process(repo):
    item = repo.get_item()
    item.parent.owner.notify()
`,
	}, Options{})

	// item is a stranger AND the chain is deep; only the chain check fires.
	violations := f.analyze(t, "app.py")
	if len(violations) != 1 {
		t.Fatalf("expected exactly 1 violation, got %d", len(violations))
	}
	if !strings.Contains(violations[0].Message, "chain") {
		t.Errorf("expected the chain diagnostic to win, got %q", violations[0].Message)
	}
}

func TestAnalyzer_OverrideSuppresses(t *testing.T) {
	src := map[string]string{
		"app.py": `class Service:
    def handle(self):
        self.repo.db.connect()
`,
	}

	flagged := newFixture(t, src, Options{})
	if violations := flagged.analyze(t, "app.py"); len(violations) != 1 {
		t.Fatalf("baseline should flag once, got %d", len(violations))
	}

	overridden := newFixture(t, src, Options{Overrides: []string{"self.repo.db.connect"}})
	if violations := overridden.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("override ignored: %d violations", len(violations))
	}
}

func TestAnalyzer_SafeRoots(t *testing.T) {
	src := map[string]string{
		"legacy/registry.py": "handlers = {}\n",
		"app.py": `import legacy

def f():
    legacy.registry.handlers.get("x")
`,
	}

	flagged := newFixture(t, src, Options{})
	if violations := flagged.analyze(t, "app.py"); len(violations) == 0 {
		t.Fatal("baseline should flag the deep chain")
	}

	allowed := newFixture(t, src, Options{SafeRoots: []string{"legacy"}})
	if violations := allowed.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("safe root ignored: %d violations", len(violations))
	}
}

func TestAnalyzer_TestFilesSkipped(t *testing.T) {
	f := newFixture(t, map[string]string{
		"tests/test_app.py": `def test_handle(service):
    service.repo.db.connect()
`,
	}, Options{})

	if violations := f.analyze(t, "tests/test_app.py"); len(violations) != 0 {
		t.Errorf("test file flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_MockExcluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `def f(mock_repo):
    mock_repo.calls.assert_called.check()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("mock chain flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_OwnedLocalExcluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.py": `class Profile:
    pass

class User:
    pass

def f():
    u = User()
    u.profile.refresh()
`,
	}, Options{})

	if violations := f.analyze(t, "app.py"); len(violations) != 0 {
		t.Errorf("locally constructed object flagged: %d violations", len(violations))
	}
}

func TestAnalyzer_ProtocolReceiverExcluded(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app/protocols.py": `from typing import Protocol

class Repo(Protocol):
    def get(self, key: str) -> str: ...
`,
		"app/svc.py": `from app.protocols import Repo

def f(repo: Repo):
    repo.get("k")
`,
	}, Options{})

	if violations := f.analyze(t, "app/svc.py"); len(violations) != 0 {
		t.Errorf("protocol receiver flagged: %d violations", len(violations))
	}
}

func TestIsTestFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"tests/test_app.py", true},
		{"test_runner.py", true},
		{"pkg/feature_test.py", true},
		{"pkg/feature.py", false},
		{"contest/vote.py", false},
	}
	for _, tc := range cases {
		if got := IsTestFile(tc.path); got != tc.want {
			t.Errorf("IsTestFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestChainPath(t *testing.T) {
	engine := pyast.NewEngine()
	parser := pyast.NewParser()
	tree, err := parser.Parse(context.Background(), []byte("r = self.a.b.c()\n"), "c.py")
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()
	engine.Add(tree)

	var call pyast.Node
	var walk func(pyast.Node)
	walk = func(n pyast.Node) {
		if n.Kind() == pyast.KindCall && call.IsNil() {
			call = n
		}
		for i := 0; i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.Root())

	if got := ChainPath(call); got != "self.a.b.c" {
		t.Errorf("ChainPath = %q, want self.a.b.c", got)
	}
}
