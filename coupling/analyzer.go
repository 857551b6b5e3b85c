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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/demeter/provenance"
	"github.com/AleutianAI/demeter/pyast"
	"github.com/AleutianAI/demeter/resolve"
)

// DefaultSafeRoots are the module prefixes excluded from coupling checks
// out of the box: structural and utility modules that never count as
// strangers. The standard library is covered separately by the oracle.
func DefaultSafeRoots() []string {
	return []string{
		"typing", "collections", "dataclasses", "enum", "abc",
		"itertools", "functools", "contextlib",
		"protocols", "interfaces",
	}
}

// Options configures an Analyzer.
type Options struct {
	// SafeRoots are allow-listed module/QName prefixes (exclusion 6).
	// Nil selects DefaultSafeRoots.
	SafeRoots []string

	// Overrides are configuration-supplied callee QNames that suppress
	// violations (exclusion 2). Matched against the resolved callee, the
	// raw callee text, and the reconstructed chain path.
	Overrides []string
}

// Analyzer is the per-scope structural coupling state machine.
//
// Description:
//
//	The analyzer walks one function body at a time in Scanning state,
//	building the caller-owned StrangerMap incrementally from assignment
//	statements, and running the chain check then the stranger check on
//	every call node. The nine-step exclusion policy runs before either
//	emission; first match wins, and at most one violation is emitted per
//	call node.
//
// Thread Safety: Safe for concurrent use; all mutable state is per call
// via the threaded StrangerMap and scope-local sets.
type Analyzer struct {
	index      provenance.Index
	classifier *provenance.Classifier
	resolver   *resolve.Resolver
	stubs      *provenance.StubResolver
	oracle     *provenance.Oracle
	safeRoots  []string
	overrides  map[string]struct{}
}

// NewAnalyzer creates a coupling analyzer.
func NewAnalyzer(
	index provenance.Index,
	classifier *provenance.Classifier,
	resolver *resolve.Resolver,
	stubs *provenance.StubResolver,
	oracle *provenance.Oracle,
	opts Options,
) *Analyzer {
	roots := opts.SafeRoots
	if roots == nil {
		roots = DefaultSafeRoots()
	}
	overrides := make(map[string]struct{}, len(opts.Overrides))
	for _, o := range opts.Overrides {
		overrides[o] = struct{}{}
	}
	return &Analyzer{
		index:      index,
		classifier: classifier,
		resolver:   resolver,
		stubs:      stubs,
		oracle:     oracle,
		safeRoots:  roots,
		overrides:  overrides,
	}
}

// scopeState is the per-function-walk state beyond the StrangerMap.
type scopeState struct {
	strangers StrangerMap
	owned     map[string]bool
	isTest    bool
}

// AnalyzeFile walks every function and method body in a parsed file.
//
// Description:
//
//	Each function body gets its own fresh StrangerMap. Nested function
//	and class definitions open their own scopes and are analyzed as
//	separate units.
//
// Outputs:
//
//	int - Number of violations emitted.
func (a *Analyzer) AnalyzeFile(ctx context.Context, tree *pyast.Tree, sink Sink) int {
	if tree == nil || sink == nil {
		return 0
	}
	count := 0
	isTest := IsTestFile(tree.FilePath)
	var walk func(n pyast.Node)
	walk = func(n pyast.Node) {
		if n.IsNil() {
			return
		}
		if n.Kind() == pyast.KindFunctionDef {
			count += a.analyzeFunction(ctx, n, NewStrangerMap(), isTest, sink)
		}
		for i := 0; i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.Root())
	return count
}

// AnalyzeFunction walks one function body with a caller-owned StrangerMap.
func (a *Analyzer) AnalyzeFunction(ctx context.Context, fn pyast.Node, strangers StrangerMap, sink Sink) int {
	isTest := false
	if fn.Tree() != nil {
		isTest = IsTestFile(fn.Tree().FilePath)
	}
	return a.analyzeFunction(ctx, fn, strangers, isTest, sink)
}

func (a *Analyzer) analyzeFunction(ctx context.Context, fn pyast.Node, strangers StrangerMap, isTest bool, sink Sink) int {
	if strangers == nil {
		strangers = NewStrangerMap()
	}
	st := &scopeState{
		strangers: strangers,
		owned:     make(map[string]bool),
		isTest:    isTest,
	}
	count := 0
	body := pyast.BodyOf(fn)
	a.walkNode(ctx, body, st, sink, &count)
	recordScopeAnalyzed(ctx, count)
	return count
}

// walkNode traverses statements and expressions within one scope,
// stopping at nested definitions.
func (a *Analyzer) walkNode(ctx context.Context, n pyast.Node, st *scopeState, sink Sink, count *int) {
	if n.IsNil() {
		return
	}
	switch n.Kind() {
	case pyast.KindFunctionDef, pyast.KindClassDef:
		return // separate scope

	case pyast.KindAssignment:
		// Calls inside the value are checked before the binding updates.
		a.walkNode(ctx, n.ChildByField("right"), st, sink, count)
		a.recordAssignment(ctx, n, st)
		return

	case pyast.KindCall:
		if a.checkCall(ctx, n, st, sink) {
			*count++
		}
	}
	for i := 0; i < n.NamedChildCount(); i++ {
		a.walkNode(ctx, n.NamedChild(i), st, sink, count)
	}
}

// recordAssignment updates the StrangerMap and the owned-local set for
// one assignment statement.
//
// A local name is marked a stranger only if its assigned value is a call
// whose resolved type is neither primitive nor trusted-authority, nor a
// primitive-typed attribute-access result.
func (a *Analyzer) recordAssignment(ctx context.Context, assign pyast.Node, st *scopeState) {
	left := assign.ChildByField("left")
	if left.Kind() != pyast.KindIdentifier {
		return
	}
	name := left.Text()
	value := assign.ChildByField("right")
	if value.IsNil() {
		return
	}

	if value.Kind() != pyast.KindCall {
		// Rebinding to a non-call value clears any prior stranger flag.
		st.strangers[name] = false
		delete(st.owned, name)
		return
	}

	if a.isConstructorCall(value) {
		st.owned[name] = true
	}

	q := a.resolver.Resolve(value, resolve.NewContext(ctx))
	switch {
	case a.classifier.IsPrimitive(q):
		st.strangers[name] = false
	case a.classifier.IsTrustedAuthority(ctx, value):
		st.strangers[name] = false
	case a.primitiveAttributeResult(ctx, value):
		st.strangers[name] = false
	default:
		st.strangers.Mark(name)
	}
}

// primitiveAttributeResult reports whether a call is made on an
// attribute access whose receiver resolves to a primitive type.
func (a *Analyzer) primitiveAttributeResult(ctx context.Context, call pyast.Node) bool {
	callee := call.ChildByField("function")
	if callee.Kind() != pyast.KindAttribute {
		return false
	}
	rq := a.resolver.Resolve(callee.ChildByField("object"), resolve.NewContext(ctx))
	return a.classifier.IsPrimitive(rq)
}

// isConstructorCall reports whether a call's callee resolves to a class
// definition (a directly constructed, locally owned object).
func (a *Analyzer) isConstructorCall(call pyast.Node) bool {
	callee := call.ChildByField("function")
	if callee.Kind() != pyast.KindIdentifier {
		return false
	}
	name := callee.Text()
	defs, err := a.index.Lookup(callee, name)
	if err != nil {
		return false
	}
	for _, def := range defs {
		switch def.Kind() {
		case pyast.KindClassDef:
			return true
		case pyast.KindDecoratedDef:
			if pyast.Undecorate(def).Kind() == pyast.KindClassDef {
				return true
			}
		case pyast.KindImport, pyast.KindImportFrom:
			q := resolve.QName(pyast.ImportedQName(def, name))
			if q == "" {
				continue
			}
			class, err := a.index.FindClass(q.Module(), q.Tail())
			if err == nil && !class.IsNil() {
				return true
			}
		}
	}
	return false
}

// checkCall runs the chain check then the stranger check on one call
// node, after the exclusion policy. Returns true when a violation was
// emitted; at most one violation is emitted per call node.
func (a *Analyzer) checkCall(ctx context.Context, call pyast.Node, st *scopeState, sink Sink) bool {
	callee := call.ChildByField("function")
	if callee.Kind() != pyast.KindAttribute {
		return false // bare calls have no receiver and no chain
	}
	receiver := callee.ChildByField("object")
	root := pyast.ChainRoot(call)
	depth := pyast.ChainDepth(call)
	chain := ChainPath(call)

	if a.excluded(ctx, call, receiver, root, depth, chain, st) {
		recordCallChecked(ctx, "excluded")
		return false
	}

	// 1. Chain check: 2+ dotted accesses are a train wreck.
	if depth >= 2 {
		rootQ := a.resolver.Resolve(root, resolve.NewContext(ctx))
		if module := a.unstableModule(rootQ, root); module != "" {
			if !a.stubs.HasStub(module, a.oracle.ProjectRoot()) {
				sink.Emit(Violation{
					Code: CodeUnstableDependency,
					Message: fmt.Sprintf(
						"unstable dependency: %q resolves into external module %q which has no compatibility stub; author %s",
						chain, module, a.stubs.StubPath(module, a.oracle.ProjectRoot())),
					Locations: []pyast.Location{call.Loc()},
					Chain:     chain,
					Node:      call,
				})
				recordCallChecked(ctx, "unstable")
				return true
			}
		}
		sink.Emit(Violation{
			Code: CodeLawOfDemeter,
			Message: fmt.Sprintf(
				"Law of Demeter violation: chain %q reaches through %d objects", chain, depth),
			Locations: []pyast.Location{call.Loc(), root.Loc()},
			Chain:     chain,
			Node:      call,
		})
		recordCallChecked(ctx, "chain")
		return true
	}

	// 2. Stranger-variable check.
	if receiver.Kind() == pyast.KindIdentifier && st.strangers.IsStranger(receiver.Text()) {
		sink.Emit(Violation{
			Code: CodeLawOfDemeter,
			Message: fmt.Sprintf(
				"Law of Demeter violation (Stranger): %q was assigned from an untrusted call earlier in this scope", chain),
			Locations: []pyast.Location{call.Loc()},
			Chain:     chain,
			Node:      call,
		})
		recordCallChecked(ctx, "stranger")
		return true
	}
	recordCallChecked(ctx, "clean")
	return false
}

// excluded applies the exclusion policy; first match wins.
func (a *Analyzer) excluded(ctx context.Context, call, receiver, root pyast.Node, depth int, chain string, st *scopeState) bool {
	// 1. Test files and mock/patch constructs.
	if st.isTest || involvesMock(chain, root) {
		return true
	}
	// 2. Configuration-supplied qname override.
	if a.overrideMatches(ctx, call, chain) {
		return true
	}
	// 3. Trusted-authority call, directly or through the chain.
	if a.classifier.IsTrustedAuthority(ctx, call) {
		return true
	}
	// 4. Fluent API.
	if a.classifier.IsFluent(ctx, call) {
		return true
	}
	rq := a.resolver.Resolve(receiver, resolve.NewContext(ctx))
	// 5. Primitive immediate receiver.
	if a.classifier.IsPrimitive(rq) {
		return true
	}
	// 6. Safe-root allow list, by resolved QName or raw lexical module.
	if a.safeRootMatches(rq, root) {
		return true
	}
	// 7. self/cls receivers, but only for shallow chains: deeper
	// self-chains still violate, to catch internal god-object growth.
	if root.Kind() == pyast.KindIdentifier {
		if text := root.Text(); (text == "self" || text == "cls") && depth <= 2 {
			return true
		}
	}
	// 8. Locally owned object graph: receiver constructed via a direct
	// class-constructor call earlier in this scope.
	if root.Kind() == pyast.KindIdentifier && st.owned[root.Text()] {
		return true
	}
	// 9. Structural Protocol receivers.
	if a.classifier.IsProtocolType(rq) {
		return true
	}
	return false
}

// overrideMatches checks the per-callable override allow-list against
// the resolved callee QName, the raw callee text, and the chain path.
func (a *Analyzer) overrideMatches(ctx context.Context, call pyast.Node, chain string) bool {
	if len(a.overrides) == 0 {
		return false
	}
	if _, ok := a.overrides[chain]; ok {
		return true
	}
	callee := call.ChildByField("function")
	if _, ok := a.overrides[callee.Text()]; ok {
		return true
	}
	if q := a.resolver.Resolve(callee, resolve.NewContext(ctx)); q.IsResolved() {
		if _, ok := a.overrides[string(q)]; ok {
			return true
		}
	}
	return false
}

// safeRootMatches checks the safe-root prefixes against a resolved QName
// or, when unresolved, the raw lexical module the chain root is bound to.
func (a *Analyzer) safeRootMatches(rq resolve.QName, root pyast.Node) bool {
	if rq.IsResolved() {
		for _, prefix := range a.safeRoots {
			if matchesPrefix(string(rq), prefix) {
				return true
			}
		}
	}
	origin := provenance.OriginQName(root)
	if origin == "" {
		return false
	}
	if a.oracle.IsStdlibModule(origin) {
		return true
	}
	for _, prefix := range a.safeRoots {
		if matchesPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// matchesPrefix reports whether a dotted path starts with prefix on a
// segment boundary ("typing" matches "typing.Optional", not "typings.X").
func matchesPrefix(path, prefix string) bool {
	if path == "" || prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+".")
}

// unstableModule returns the external module a chain root reaches into,
// or "" when the root is local, stdlib, or untraceable.
//
// Two shapes qualify: a root whose QName resolved into a module that was
// never parsed from the project tree (an annotation naming a stub-less
// dependency), and an unresolved root whose value chain traces back to
// such a module. Unresolvable-but-local receivers deliberately fall
// through to the plain Law-of-Demeter diagnostic; the unstable-dependency
// path is gated strictly on "external".
func (a *Analyzer) unstableModule(rootQ resolve.QName, root pyast.Node) string {
	if rootQ.IsResolved() {
		if rootQ.IsUnion() {
			return ""
		}
		module := rootQ.Module()
		if module == "" {
			return ""
		}
		base := resolve.QName(module).Root()
		if a.oracle.IsStdlibModule(module) || a.oracle.IsStdlibModule(base) {
			return ""
		}
		if a.index.HasModule(module) || a.index.HasModule(base) {
			return ""
		}
		return base
	}
	return a.traceExternalModule(root)
}

// traceExternalModule traces an unresolved chain root to the external
// module it came from, or "" when the root is local or untraceable.
func (a *Analyzer) traceExternalModule(root pyast.Node) string {
	module := a.traceOrigin(root, 0)
	if module == "" {
		return ""
	}
	if a.oracle.IsStdlibModule(module) {
		return ""
	}
	if a.index.HasModule(module) || a.index.HasModule(resolve.QName(module).Root()) {
		return ""
	}
	return module
}

// traceOrigin finds the imported module a name's value chain leads to.
func (a *Analyzer) traceOrigin(n pyast.Node, depth int) string {
	if depth > 4 || n.IsNil() {
		return ""
	}
	if origin := provenance.OriginQName(n); origin != "" {
		return resolve.QName(origin).Root()
	}
	if n.Kind() != pyast.KindIdentifier {
		return ""
	}
	defs, err := a.index.Lookup(n, n.Text())
	if err != nil {
		return ""
	}
	for _, def := range defs {
		switch def.Kind() {
		case pyast.KindAssignment:
			if m := a.traceOrigin(pyast.ChainRoot(def.ChildByField("right")), depth+1); m != "" {
				return m
			}
		case pyast.KindDefaultParameter, pyast.KindTypedDefaultParameter:
			if m := a.traceOrigin(pyast.ChainRoot(def.ChildByField("value")), depth+1); m != "" {
				return m
			}
		case pyast.KindTypedParameter:
			// Trace through the annotation's dotted root: an unresolvable
			// annotation naming an external type is still traceable. The
			// grammar wraps the annotation in a `type` node.
			ann := pyast.TypeExpr(def.ChildByField("type"))
			if m := a.traceOrigin(pyast.ChainRoot(ann), depth+1); m != "" {
				return m
			}
		}
	}
	return ""
}

// involvesMock reports whether a chain involves a mock or patch
// construct, textually or through the root's binding.
func involvesMock(chain string, root pyast.Node) bool {
	lower := strings.ToLower(chain)
	if strings.Contains(lower, "mock") || strings.Contains(lower, "patch") {
		return true
	}
	if origin := provenance.OriginQName(root); origin != "" {
		lo := strings.ToLower(origin)
		return strings.Contains(lo, "mock") || strings.Contains(lo, "patch")
	}
	return false
}

// IsTestFile reports whether a path names a test file.
func IsTestFile(path string) bool {
	base := filepath.Base(filepath.ToSlash(path))
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "tests" || seg == "test" {
			return true
		}
	}
	return false
}

// ChainPath reconstructs the dotted path of an attribute/call chain
// without arguments: `self.a.b.c()` -> "self.a.b.c".
func ChainPath(n pyast.Node) string {
	segments := chainSegments(n)
	return strings.Join(segments, ".")
}

func chainSegments(n pyast.Node) []string {
	switch n.Kind() {
	case pyast.KindCall:
		return chainSegments(n.ChildByField("function"))
	case pyast.KindAttribute:
		object := chainSegments(n.ChildByField("object"))
		return append(object, n.ChildByField("attribute").Text())
	case pyast.KindIdentifier:
		return []string{n.Text()}
	case pyast.KindParenthesized:
		inner := n.NamedChild(0)
		if !inner.IsNil() {
			return chainSegments(inner)
		}
		return []string{"(...)"}
	default:
		return []string{"<expr>"}
	}
}
