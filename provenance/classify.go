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
	"strings"

	"github.com/AleutianAI/demeter/pyast"
	"github.com/AleutianAI/demeter/resolve"
)

// Class is the trust-domain classification of a resolved type's origin.
type Class string

const (
	// ClassPrimitive is a builtin or typing-namespace type.
	ClassPrimitive Class = "primitive"

	// ClassStdlib is a standard-library type.
	ClassStdlib Class = "stdlib"

	// ClassExternal is a third-party dependency type.
	ClassExternal Class = "external"

	// ClassLocal is a type declared in the analyzed project.
	ClassLocal Class = "local"

	// ClassProtocol is a structural-typing interface, not a concrete
	// dependency.
	ClassProtocol Class = "protocol"

	// ClassUnknown is the classification of the Unresolved sentinel.
	ClassUnknown Class = "unknown"
)

// Index is the project knowledge the classifier consumes: the resolver's
// provider surface plus module membership. pyast.Engine satisfies it.
type Index interface {
	resolve.Provider

	// HasModule reports whether a module was parsed from the project's
	// own source tree.
	HasModule(module string) bool
}

// Classifier implements the provenance predicates.
//
// Description:
//
//	Four independent, composable predicates over QNames and call nodes.
//	All of them are memo-free: each call recomputes from scratch with a
//	fresh resolution context, so results never depend on call order.
//
// Thread Safety: Safe for concurrent use.
type Classifier struct {
	index    Index
	oracle   *Oracle
	resolver *resolve.Resolver
}

// NewClassifier creates a classifier.
func NewClassifier(index Index, oracle *Oracle, resolver *resolve.Resolver) *Classifier {
	return &Classifier{index: index, oracle: oracle, resolver: resolver}
}

// resolveFresh resolves a node with a fresh per-call context.
func (c *Classifier) resolveFresh(ctx context.Context, n pyast.Node) resolve.QName {
	return c.resolver.Resolve(n, resolve.NewContext(ctx))
}

// IsPrimitive reports whether a QName denotes a primitive type.
//
// Description:
//
//	True for the builtins namespace (bare builtin names normalize into
//	it) and for the typing / collections.abc namespaces. A pipe-joined
//	union is primitive only if every member independently is.
func (c *Classifier) IsPrimitive(q resolve.QName) bool {
	if !q.IsResolved() {
		return false
	}
	if q.IsUnion() {
		for _, m := range q.UnionMembers() {
			if !c.IsPrimitive(m) {
				return false
			}
		}
		return true
	}
	n := string(resolve.Normalize(q))
	return strings.HasPrefix(n, "builtins.") ||
		strings.HasPrefix(n, "typing.") ||
		strings.HasPrefix(n, "collections.abc.")
}

// IsTrustedAuthority reports whether a call's resolved callee — or,
// recursively, a chained call whose receiver is itself already a trusted
// or protocol call — belongs to a standard-library module or an external
// dependency.
func (c *Classifier) IsTrustedAuthority(ctx context.Context, call pyast.Node) bool {
	if call.Kind() != pyast.KindCall {
		return false
	}
	callee := call.ChildByField("function")

	switch callee.Kind() {
	case pyast.KindIdentifier:
		return c.trustedOrigin(OriginQName(callee))

	case pyast.KindAttribute:
		receiver := callee.ChildByField("object")

		// Chain continuity: a call on a trusted or protocol call stays
		// inside the trusted boundary.
		if receiver.Kind() == pyast.KindCall {
			if c.IsTrustedAuthority(ctx, receiver) {
				return true
			}
			if rq := c.resolveFresh(ctx, receiver); c.IsProtocolQName(rq) {
				return true
			}
		}

		if rq := c.resolveFresh(ctx, receiver); rq.IsResolved() {
			return c.trustedModule(rq.Module())
		}

		// Unresolved receiver: fall back to its raw lexical origin.
		return c.trustedOrigin(OriginQName(pyast.ChainRoot(receiver)))
	}
	return false
}

// trustedOrigin decides trust for an imported dotted path.
func (c *Classifier) trustedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	root := origin
	if idx := strings.IndexByte(root, '.'); idx >= 0 {
		root = root[:idx]
	}
	if c.oracle.IsStdlibModule(root) {
		return true
	}
	// Imported but not parsed from the project tree: external dependency.
	return !c.index.HasModule(root) && !c.index.HasModule(origin)
}

// trustedModule decides trust for the module segment of a resolved QName.
func (c *Classifier) trustedModule(module string) bool {
	if module == "" {
		return false
	}
	if c.oracle.IsStdlibModule(module) {
		return true
	}
	return !c.index.HasModule(module)
}

// interfaceModuleSegments are module path segments that conventionally
// denote interface-definition modules.
var interfaceModuleSegments = map[string]struct{}{
	"protocols":  {},
	"interfaces": {},
}

// IsProtocolQName reports whether a QName's dotted path conventionally
// denotes an interface definition.
func (c *Classifier) IsProtocolQName(q resolve.QName) bool {
	if !q.IsResolved() {
		return false
	}
	for _, seg := range strings.Split(q.Module(), ".") {
		if _, ok := interfaceModuleSegments[seg]; ok {
			return true
		}
	}
	return false
}

// IsProtocolClass reports whether a class definition is, or inherits
// from (via ancestor walk), the structural-typing marker class.
func (c *Classifier) IsProtocolClass(class pyast.Node) bool {
	class = pyast.Undecorate(class)
	if class.Kind() != pyast.KindClassDef {
		return false
	}
	if hasProtocolBase(c.index.BaseQNames(class)) {
		return true
	}
	ancestors, err := c.index.Ancestors(class)
	if err != nil {
		return false
	}
	for _, anc := range ancestors {
		if hasProtocolBase(c.index.BaseQNames(anc)) {
			return true
		}
	}
	return false
}

// IsProtocolType reports whether a resolved QName names a Protocol class
// declared in the project, or a conventional interface module path.
func (c *Classifier) IsProtocolType(q resolve.QName) bool {
	if !q.IsResolved() {
		return false
	}
	if c.IsProtocolQName(q) {
		return true
	}
	class, err := c.index.FindClass(q.Module(), q.Tail())
	if err != nil || class.IsNil() {
		return false
	}
	return c.IsProtocolClass(class)
}

// hasProtocolBase matches the structural-typing marker among base names.
func hasProtocolBase(bases []string) bool {
	for _, b := range bases {
		if b == "typing.Protocol" || b == "Protocol" || strings.HasSuffix(b, ".Protocol") {
			return true
		}
	}
	return false
}

// IsFluent reports whether a call continues a fluent chain.
//
// Description:
//
//	True when the call chains from a receiver call that is itself fluent
//	(recursive continuity), or when the call's own resolved return QName
//	equals the receiver's resolved QName — exactly, or by trailing
//	identifier when the full names diverge, which covers builder APIs
//	re-exported across modules.
func (c *Classifier) IsFluent(ctx context.Context, call pyast.Node) bool {
	if call.Kind() != pyast.KindCall {
		return false
	}
	callee := call.ChildByField("function")
	if callee.Kind() != pyast.KindAttribute {
		return false
	}
	receiver := callee.ChildByField("object")

	if receiver.Kind() == pyast.KindCall && c.IsFluent(ctx, receiver) {
		return true
	}

	retQ := c.resolveFresh(ctx, call)
	recvQ := c.resolveFresh(ctx, receiver)
	if !retQ.IsResolved() || !recvQ.IsResolved() {
		return false
	}
	if retQ == recvQ {
		return true
	}
	return retQ.Tail() != "" && retQ.Tail() == recvQ.Tail()
}

// Classify returns the trust-domain class of a QName.
func (c *Classifier) Classify(q resolve.QName) Class {
	switch {
	case !q.IsResolved():
		return ClassUnknown
	case c.IsPrimitive(q):
		return ClassPrimitive
	case c.IsProtocolType(q):
		return ClassProtocol
	case c.oracle.IsStdlibModule(string(q)):
		return ClassStdlib
	case c.oracle.IsStdlibModule(q.Module()):
		return ClassStdlib
	case c.index.HasModule(q.Module()):
		return ClassLocal
	default:
		return ClassExternal
	}
}

// OriginQName returns the imported dotted path the root of an expression
// chain is lexically bound to, or "" when the root is not import-bound.
//
// Description:
//
//	For `requests.get(...)` the chain root `requests` is bound by
//	`import requests`, so the origin is "requests". For a name bound by
//	`from fastapi import FastAPI`, the origin is "fastapi.FastAPI".
func OriginQName(n pyast.Node) string {
	root := pyast.ChainRoot(n)
	if root.Kind() != pyast.KindIdentifier {
		return ""
	}
	name := root.Text()
	for _, def := range pyast.Lookup(root, name) {
		switch def.Kind() {
		case pyast.KindImport, pyast.KindImportFrom:
			if q := pyast.ImportedQName(def, name); q != "" {
				return q
			}
		}
	}
	return ""
}
