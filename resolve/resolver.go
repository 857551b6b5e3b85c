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
	"time"

	"github.com/AleutianAI/demeter/pyast"
)

// Resolver resolves the qualified type name of arbitrary expression nodes.
//
// Description:
//
//	Resolve applies a fixed, deterministic strategy order and returns on
//	the first success. It never fails and never yields a partial QName:
//	total exhaustion produces the Unresolved sentinel (zero-fallback
//	policy). Provider faults are caught at each call site and treated as
//	strategy failure, never propagated.
//
// Thread Safety: Safe for concurrent use; per-call state lives in Context.
type Resolver struct {
	provider Provider
	ann      *AnnotationResolver
}

// NewResolver creates a resolver over a provider.
func NewResolver(p Provider) *Resolver {
	return &Resolver{
		provider: p,
		ann:      NewAnnotationResolver(p),
	}
}

// Annotations exposes the annotation resolver for collaborators that
// resolve declared types directly.
func (r *Resolver) Annotations() *AnnotationResolver {
	return r.ann
}

// Resolve resolves the QName of an expression node.
//
// Description:
//
//	Strategy order, fixed:
//	 1. explicit annotation short-circuit
//	 2. direct semantic inference
//	 3. call-specific resolution
//	 4. attribute resolution
//	 5. compound-expression resolution
//	 6. lexical name resolution
//	 7. broad inference fallback
//
//	A node already present in the context's visited set resolves to
//	Unresolved immediately, which cuts cycles on self-referential
//	definitions.
//
// Inputs:
//
//	n  - The expression node. The nil node resolves to Unresolved.
//	rc - Per-top-level-call context. Must not be shared across calls.
//
// Outputs:
//
//	QName - Fully resolved and normalized, or Unresolved. Never partial.
func (r *Resolver) Resolve(n pyast.Node, rc *Context) QName {
	if n.IsNil() || rc == nil {
		return Unresolved
	}
	if !rc.Enter(n.ID()) {
		return Unresolved
	}
	start := time.Now()

	if q := r.fromAnnotation(n); q.IsResolved() {
		recordResolution(rc.Ctx(), "annotation", time.Since(start), true)
		return q
	}
	if q := r.fromInference(n, rc); q.IsResolved() {
		recordResolution(rc.Ctx(), "inference", time.Since(start), true)
		return q
	}
	if n.Kind() == pyast.KindCall {
		if q := r.fromCall(n, rc); q.IsResolved() {
			recordResolution(rc.Ctx(), "call", time.Since(start), true)
			return q
		}
	}
	if n.Kind() == pyast.KindAttribute {
		if q := r.fromAttribute(n, rc); q.IsResolved() {
			recordResolution(rc.Ctx(), "attribute", time.Since(start), true)
			return q
		}
	}
	if q := r.fromCompound(n, rc); q.IsResolved() {
		recordResolution(rc.Ctx(), "compound", time.Since(start), true)
		return q
	}
	if n.Kind() == pyast.KindIdentifier {
		if q := r.fromName(n, rc); q.IsResolved() {
			recordResolution(rc.Ctx(), "name", time.Since(start), true)
			return q
		}
	}
	if q := r.fromBroadInference(n, rc); q.IsResolved() {
		recordResolution(rc.Ctx(), "broad", time.Since(start), true)
		return q
	}

	recordResolution(rc.Ctx(), "exhausted", time.Since(start), false)
	return Unresolved
}

// fromAnnotation is strategy 1: the explicit annotation short-circuit.
//
// Fires when the node is itself an annotated parameter, or the value side
// of an annotated assignment, or an annotated assignment statement. Works
// even when general inference fails (forward references, stub-only types).
func (r *Resolver) fromAnnotation(n pyast.Node) QName {
	switch n.Kind() {
	case pyast.KindTypedParameter, pyast.KindTypedDefaultParameter:
		return r.ann.ResolveAnnotation(n.ChildByField("type"))

	case pyast.KindAssignment:
		if ann := n.ChildByField("type"); !ann.IsNil() {
			return r.ann.ResolveAnnotation(ann)
		}
		return Unresolved
	}

	// Value side of an annotated assignment: x: T = <n>.
	parent := n.Parent()
	if parent.Kind() == pyast.KindAssignment {
		right := parent.ChildByField("right")
		ann := parent.ChildByField("type")
		if !ann.IsNil() && !right.IsNil() && right.ID() == n.ID() {
			return r.ann.ResolveAnnotation(ann)
		}
	}
	return Unresolved
}

// fromInference is strategy 2: direct semantic inference, normalized.
func (r *Resolver) fromInference(n pyast.Node, rc *Context) QName {
	candidates, err := r.provider.Infer(rc.Ctx(), n)
	if err != nil || len(candidates) == 0 {
		return Unresolved
	}
	return Normalize(QName(candidates[0]))
}

// fromCall is strategy 3: call-specific resolution.
//
// A constructor call resolves to its class; a function or method call with
// a declared return annotation resolves to that annotation. A dynamic
// attribute getter with exactly 3 positional arguments resolves to the
// type of the 3rd (default) argument; no other getattr-shaped call is
// special-cased.
func (r *Resolver) fromCall(n pyast.Node, rc *Context) QName {
	callee := n.ChildByField("function")
	if callee.IsNil() {
		return Unresolved
	}

	if callee.Kind() == pyast.KindIdentifier && callee.Text() == "getattr" {
		args := positionalArgs(n)
		if len(args) == 3 {
			return r.Resolve(args[2], rc)
		}
		return Unresolved
	}

	switch callee.Kind() {
	case pyast.KindIdentifier:
		defs, err := r.provider.Lookup(callee, callee.Text())
		if err != nil {
			return Unresolved
		}
		for _, def := range defs {
			if q := r.resolveCallee(def, callee.Text(), rc); q.IsResolved() {
				return q
			}
		}

	case pyast.KindAttribute:
		// method call: resolve the receiver's class, then the method's
		// declared return type.
		receiver := callee.ChildByField("object")
		method := callee.ChildByField("attribute").Text()
		recvQ := r.Resolve(receiver, rc)
		if !recvQ.IsResolved() || method == "" {
			return Unresolved
		}
		class := r.findClassByQName(recvQ)
		if class.IsNil() {
			return Unresolved
		}
		def := r.findAttributeDecl(class, method)
		if def.IsNil() {
			return Unresolved
		}
		if def.Kind() == pyast.KindFunctionDef || def.Kind() == pyast.KindDecoratedDef {
			return r.resolveReturn(def, recvQ)
		}
	}
	return Unresolved
}

// resolveCallee resolves one defining statement of a called name.
func (r *Resolver) resolveCallee(def pyast.Node, name string, rc *Context) QName {
	switch def.Kind() {
	case pyast.KindClassDef:
		return Normalize(QName(pyast.ClassQName(def)))

	case pyast.KindDecoratedDef:
		inner := pyast.Undecorate(def)
		if inner.Kind() == pyast.KindClassDef {
			return Normalize(QName(pyast.ClassQName(inner)))
		}
		return r.resolveReturn(def, Unresolved)

	case pyast.KindFunctionDef:
		return r.resolveReturn(def, Unresolved)

	case pyast.KindImport, pyast.KindImportFrom:
		// A constructor imported from another project module resolves
		// through the cross-module class lookup.
		imported := pyast.ImportedQName(def, name)
		if imported == "" {
			return Unresolved
		}
		q := QName(imported)
		class, err := r.provider.FindClass(q.Module(), q.Tail())
		if err != nil || class.IsNil() {
			return Unresolved
		}
		return Normalize(QName(pyast.ClassQName(class)))

	case pyast.KindAssignment:
		// Callable rebound to a local name: chase the assigned value.
		return r.Resolve(def.ChildByField("right"), rc)
	}
	return Unresolved
}

// resolveReturn resolves a function definition's declared return type.
// selfQ substitutes the receiver's QName for a Self return when known.
func (r *Resolver) resolveReturn(def pyast.Node, selfQ QName) QName {
	ret := pyast.ReturnAnnotation(def)
	if ret.IsNil() {
		return Unresolved
	}
	if ret.Kind() == pyast.KindIdentifier && ret.Text() == "Self" && selfQ.IsResolved() {
		return selfQ
	}
	return r.ann.ResolveAnnotation(ret)
}

// fromAttribute is strategy 4: attribute resolution for receiver.attr.
//
// The receiver's QName is resolved recursively through the same resolver,
// then the receiver's class body is searched — own declarations first,
// then ancestors in MRO order — for an annotated attribute or a property
// whose return annotation supplies the type. A class not declared in the
// current module is found by splitting the QName into module and class
// segments (absolute lookup).
func (r *Resolver) fromAttribute(n pyast.Node, rc *Context) QName {
	receiver := n.ChildByField("object")
	attr := n.ChildByField("attribute").Text()
	if receiver.IsNil() || attr == "" {
		return Unresolved
	}
	recvQ := r.Resolve(receiver, rc)
	if !recvQ.IsResolved() {
		return Unresolved
	}

	class := r.findClassByQName(recvQ)
	if class.IsNil() {
		if q, ok := nativeAttributeType(recvQ, attr); ok {
			return Normalize(q)
		}
		return Unresolved
	}

	if def := r.findAttributeDecl(class, attr); !def.IsNil() {
		if q := r.ann.ResolveDeclared(def); q.IsResolved() {
			return q
		}
	}
	if q, ok := nativeAttributeType(recvQ, attr); ok {
		return Normalize(q)
	}
	return Unresolved
}

// findAttributeDecl searches a class and its ancestors for attr.
func (r *Resolver) findAttributeDecl(class pyast.Node, attr string) pyast.Node {
	if def := pyast.FindClassAttribute(class, attr); !def.IsNil() {
		return def
	}
	ancestors, err := r.provider.Ancestors(class)
	if err != nil {
		return pyast.Node{}
	}
	for _, anc := range ancestors {
		if def := pyast.FindClassAttribute(anc, attr); !def.IsNil() {
			return def
		}
	}
	return pyast.Node{}
}

// findClassByQName performs the absolute lookup of a class by its QName.
func (r *Resolver) findClassByQName(q QName) pyast.Node {
	if !q.IsResolved() || q.IsUnion() {
		return pyast.Node{}
	}
	module := q.Module()
	name := q.Tail()
	if module == "" {
		return pyast.Node{}
	}
	class, err := r.provider.FindClass(module, name)
	if err != nil || class.IsNil() {
		// The class may be nested: pkg.mod.Outer.Inner splits one
		// segment further left until a known module is found.
		for module != "" {
			name = QName(module).Tail() + "." + name
			module = QName(module).Module()
			if module == "" {
				break
			}
			class, err = r.provider.FindClass(module, name)
			if err == nil && !class.IsNil() {
				return class
			}
		}
		return pyast.Node{}
	}
	return class
}

// fromCompound is strategy 5: boolean chains and binary arithmetic.
//
// Boolean chains resolve every operand, discard operands normalizing to
// NoneType, and succeed only when exactly one distinct QName remains.
// Binary arithmetic succeeds when both operands agree, with the single
// numeric widening int,float -> float.
func (r *Resolver) fromCompound(n pyast.Node, rc *Context) QName {
	switch n.Kind() {
	case pyast.KindBooleanOperator:
		operands := flattenBoolean(n)
		distinct := map[QName]struct{}{}
		var last QName
		for _, op := range operands {
			q := r.Resolve(op, rc)
			if !q.IsResolved() {
				return Unresolved
			}
			if q.IsNone() {
				continue
			}
			distinct[Normalize(q)] = struct{}{}
			last = Normalize(q)
		}
		if len(distinct) == 1 {
			return last
		}
		return Unresolved

	case pyast.KindBinaryOperator:
		left := r.Resolve(n.ChildByField("left"), rc)
		right := r.Resolve(n.ChildByField("right"), rc)
		if !left.IsResolved() || !right.IsResolved() {
			return Unresolved
		}
		left, right = Normalize(left), Normalize(right)
		if left == right {
			return left
		}
		if (left == "builtins.int" && right == "builtins.float") ||
			(left == "builtins.float" && right == "builtins.int") {
			return "builtins.float"
		}
		return Unresolved
	}
	return Unresolved
}

// fromName is strategy 6: lexical name resolution.
//
// A bare name resolves to its originating statement — assignment,
// parameter, or import — and recursion continues into that statement's
// value or annotation. self and cls resolve to the enclosing class.
func (r *Resolver) fromName(n pyast.Node, rc *Context) QName {
	name := n.Text()
	if name == "self" || name == "cls" {
		if class := pyast.EnclosingClass(n); !class.IsNil() {
			return Normalize(QName(pyast.ClassQName(class)))
		}
		return Unresolved
	}

	defs, err := r.provider.Lookup(n, name)
	if err != nil {
		return Unresolved
	}
	for _, def := range defs {
		switch def.Kind() {
		case pyast.KindAssignment:
			if ann := def.ChildByField("type"); !ann.IsNil() {
				if q := r.ann.ResolveAnnotation(ann); q.IsResolved() {
					return q
				}
			}
			if q := r.Resolve(def.ChildByField("right"), rc); q.IsResolved() {
				return q
			}

		case pyast.KindTypedParameter, pyast.KindTypedDefaultParameter:
			if q := r.ann.ResolveAnnotation(def.ChildByField("type")); q.IsResolved() {
				return q
			}

		case pyast.KindDefaultParameter:
			if q := r.Resolve(def.ChildByField("value"), rc); q.IsResolved() {
				return q
			}

		case pyast.KindClassDef, pyast.KindDecoratedDef:
			inner := pyast.Undecorate(def)
			if inner.Kind() == pyast.KindClassDef {
				return Normalize(QName(pyast.ClassQName(inner)))
			}

		case pyast.KindImport, pyast.KindImportFrom:
			// An import-bound name resolves through the cross-module
			// class lookup; bare module bindings stay unresolved.
			imported := pyast.ImportedQName(def, name)
			if imported == "" {
				continue
			}
			q := QName(imported)
			class, err := r.provider.FindClass(q.Module(), q.Tail())
			if err != nil || class.IsNil() {
				continue
			}
			return Normalize(QName(pyast.ClassQName(class)))
		}
	}
	return Unresolved
}

// fromBroadInference is strategy 7: the wider inference query over the
// original node, catching builtin-method-call return types the narrower
// call strategy has no declarations for.
func (r *Resolver) fromBroadInference(n pyast.Node, rc *Context) QName {
	candidates, err := r.provider.InferBroad(rc.Ctx(), n)
	if err != nil || len(candidates) == 0 {
		return Unresolved
	}
	return Normalize(QName(candidates[0]))
}

// flattenBoolean flattens nested and/or chains into operands in source order.
func flattenBoolean(n pyast.Node) []pyast.Node {
	if n.Kind() != pyast.KindBooleanOperator {
		return []pyast.Node{n}
	}
	left := n.ChildByField("left")
	right := n.ChildByField("right")
	return append(flattenBoolean(left), flattenBoolean(right)...)
}

// positionalArgs returns a call's positional argument nodes.
func positionalArgs(call pyast.Node) []pyast.Node {
	list := call.ChildByField("arguments")
	if list.IsNil() {
		return nil
	}
	var out []pyast.Node
	for i := 0; i < list.NamedChildCount(); i++ {
		c := list.NamedChild(i)
		if c.Kind() == pyast.KindKeywordArgument {
			continue
		}
		out = append(out, c)
	}
	return out
}
