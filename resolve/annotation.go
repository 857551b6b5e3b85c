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
	"strings"

	"github.com/AleutianAI/demeter/pyast"
)

// maxAnnotationDepth bounds alias-chasing so `A = A` style cycles in
// malformed source terminate.
const maxAnnotationDepth = 16

// AnnotationResolver resolves explicit type-hint syntax nodes to QNames.
//
// Description:
//
//	Handles bare names, dotted attribute paths, subscripted generics,
//	PEP 604 union syntax, quoted forward references, and the Self marker.
//	Resolution is purely lexical plus the provider's cross-module class
//	lookup; it works even where general inference fails (forward
//	references, stub-only types).
//
// Thread Safety: Safe for concurrent use; the resolver holds no state.
type AnnotationResolver struct {
	provider Provider
}

// NewAnnotationResolver creates an annotation resolver over a provider.
func NewAnnotationResolver(p Provider) *AnnotationResolver {
	return &AnnotationResolver{provider: p}
}

// ResolveAnnotation resolves an annotation node to a QName.
//
// Outputs:
//
//	QName - The resolved, normalized type identifier, or Unresolved.
//	        Never partial; this method never fails.
func (a *AnnotationResolver) ResolveAnnotation(ann pyast.Node) QName {
	return a.resolve(ann, 0)
}

func (a *AnnotationResolver) resolve(ann pyast.Node, depth int) QName {
	if ann.IsNil() || depth > maxAnnotationDepth {
		return Unresolved
	}
	switch ann.Kind() {
	case pyast.KindType:
		// The grammar wraps the `type` field of parameters and
		// assignments; the annotation proper is the inner expression.
		return a.resolve(pyast.TypeExpr(ann), depth+1)

	case pyast.KindNone:
		return "builtins.NoneType"

	case pyast.KindString:
		// Quoted forward reference: parse the content as a (dotted)
		// identifier and look it up in the enclosing scope.
		ref := strings.Trim(ann.Text(), "\"'")
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return Unresolved
		}
		return a.resolveDotted(ref, ann, depth)

	case pyast.KindIdentifier:
		name := ann.Text()
		if name == "Self" {
			// Self resolves through the scope chain, not the syntactic
			// parent: nested functions inside a method still see the class.
			if class := pyast.EnclosingClass(ann); !class.IsNil() {
				return Normalize(QName(pyast.ClassQName(class)))
			}
			return Unresolved
		}
		return a.resolveDotted(name, ann, depth)

	case pyast.KindAttribute:
		return a.resolveDotted(ann.Text(), ann, depth)

	case pyast.KindParenthesized:
		return a.resolve(ann.NamedChild(0), depth+1)

	case pyast.KindSubscript:
		return a.resolveSubscript(ann, depth)

	case pyast.KindBinaryOperator:
		if ann.ChildByField("operator").Text() == "|" || strings.Contains(ann.Text(), "|") {
			return a.resolveUnion(flattenPipe(ann), depth)
		}
		return Unresolved

	default:
		return Unresolved
	}
}

// resolveSubscript resolves generics, unwrapping Optional and Union.
func (a *AnnotationResolver) resolveSubscript(ann pyast.Node, depth int) QName {
	value := ann.ChildByField("value")
	base := a.resolve(value, depth+1)
	if base == Unresolved {
		// The subscripted value may still be a recognizable typing name
		// even when unbound (stub-only environments).
		base = Normalize(QName(value.Text()))
	}

	args := subscriptArgs(ann)
	switch base {
	case "typing.Optional":
		if len(args) == 0 {
			return Unresolved
		}
		return a.resolveUnion(args, depth)
	case "typing.Union":
		return a.resolveUnion(args, depth)
	default:
		// List[int] resolves to the container, not the element.
		return Normalize(base)
	}
}

// resolveUnion applies the first-match rule: of the argument nodes, the
// first (in source order) whose resolution does not normalize to NoneType
// wins. This is deliberately not a union merge.
func (a *AnnotationResolver) resolveUnion(args []pyast.Node, depth int) QName {
	for _, arg := range args {
		q := a.resolve(arg, depth+1)
		if q == Unresolved {
			continue
		}
		if q.IsNone() {
			continue
		}
		return Normalize(q)
	}
	return Unresolved
}

// resolveDotted resolves a dotted identifier path lexically from the
// scope enclosing the node it appeared in.
func (a *AnnotationResolver) resolveDotted(text string, at pyast.Node, depth int) QName {
	root := text
	rest := ""
	if idx := strings.IndexByte(text, '.'); idx >= 0 {
		root, rest = text[:idx], text[idx+1:]
	}

	defs, err := a.provider.Lookup(at, root)
	if err != nil {
		return Unresolved
	}
	for _, def := range defs {
		switch def.Kind() {
		case pyast.KindClassDef, pyast.KindDecoratedDef:
			q := pyast.ClassQName(def)
			if q == "" {
				continue
			}
			if rest != "" {
				q = q + "." + rest
			}
			return Normalize(QName(q))

		case pyast.KindImport, pyast.KindImportFrom:
			imported := pyast.ImportedQName(def, root)
			if imported == "" {
				continue
			}
			if rest != "" {
				imported = imported + "." + rest
			}
			return Normalize(QName(imported))

		case pyast.KindAssignment:
			// Type alias: UserId = int. Chase the aliased annotation.
			if rest == "" {
				if q := a.resolve(def.ChildByField("right"), depth+1); q.IsResolved() {
					return q
				}
			}
		}
	}

	// Unbound names resolve only if they are recognizable builtins;
	// anything else would be a guess.
	normalized := Normalize(QName(text))
	if normalized != QName(text) {
		return normalized
	}
	if strings.HasPrefix(text, "typing.") || strings.HasPrefix(text, "collections.abc.") {
		return QName(text)
	}
	return Unresolved
}

// ResolveDeclared resolves the type a declared attribute or method
// supplies to attribute access.
//
// Description:
//
//	An annotated assignment contributes its annotation. A method decorated
//	as a property contributes its return annotation rather than its call
//	signature. Plain methods contribute nothing here; calling them is
//	handled by call resolution.
func (a *AnnotationResolver) ResolveDeclared(def pyast.Node) QName {
	switch def.Kind() {
	case pyast.KindAssignment:
		if ann := def.ChildByField("type"); !ann.IsNil() {
			return a.ResolveAnnotation(ann)
		}
	case pyast.KindFunctionDef, pyast.KindDecoratedDef:
		if pyast.IsPropertyDef(pyast.Undecorate(def)) || pyast.IsPropertyDef(def) {
			return a.ResolveAnnotation(pyast.ReturnAnnotation(def))
		}
	}
	return Unresolved
}

// subscriptArgs returns a subscript's argument nodes in source order.
func subscriptArgs(sub pyast.Node) []pyast.Node {
	value := sub.ChildByField("value")
	var args []pyast.Node
	for i := 0; i < sub.NamedChildCount(); i++ {
		c := sub.NamedChild(i)
		if !value.IsNil() && c.ID() == value.ID() {
			continue
		}
		// Union[A, B] parses its arguments as a tuple inside the subscript.
		if c.Kind() == pyast.KindTuple {
			for j := 0; j < c.NamedChildCount(); j++ {
				args = append(args, c.NamedChild(j))
			}
			continue
		}
		args = append(args, c)
	}
	return args
}

// flattenPipe flattens a PEP 604 union chain (A | B | None) into its
// operand nodes in source order.
func flattenPipe(n pyast.Node) []pyast.Node {
	if n.Kind() != pyast.KindBinaryOperator {
		return []pyast.Node{n}
	}
	left := n.ChildByField("left")
	right := n.ChildByField("right")
	return append(flattenPipe(left), flattenPipe(right)...)
}
