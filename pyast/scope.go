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
	"strings"
)

// IsScope reports whether n opens a lexical scope (module, function, class).
func IsScope(n Node) bool {
	switch n.Kind() {
	case KindModule, KindFunctionDef, KindClassDef:
		return true
	default:
		return false
	}
}

// ScopeOf returns the nearest scope enclosing n, excluding n itself.
// Returns the nil node only if n is detached or the module node itself.
func ScopeOf(n Node) Node {
	for p := n.Parent(); !p.IsNil(); p = p.Parent() {
		if IsScope(p) {
			return p
		}
	}
	return Node{}
}

// ScopeChain returns all scopes enclosing n, innermost first, module last.
// If n is itself a scope it is not included.
func ScopeChain(n Node) []Node {
	var chain []Node
	for s := ScopeOf(n); !s.IsNil(); s = ScopeOf(s) {
		chain = append(chain, s)
	}
	return chain
}

// EnclosingClass walks the scope chain (not merely syntactic parents) and
// returns the nearest class scope, or the nil node when there is none.
func EnclosingClass(n Node) Node {
	for _, s := range ScopeChain(n) {
		if s.Kind() == KindClassDef {
			return s
		}
	}
	return Node{}
}

// NameOf returns the declared name of a function or class definition.
// Decorated definitions are unwrapped first.
func NameOf(def Node) string {
	def = Undecorate(def)
	return def.ChildByField("name").Text()
}

// BodyOf returns the body block of a definition, unwrapping decorators.
func BodyOf(def Node) Node {
	def = Undecorate(def)
	return def.ChildByField("body")
}

// Undecorate unwraps a decorated_definition to the inner definition.
func Undecorate(def Node) Node {
	if def.Kind() == KindDecoratedDef {
		return def.ChildByField("definition")
	}
	return def
}

// Decorators returns the decorator expression texts applied to def,
// without the leading "@". Empty when the definition is undecorated.
func Decorators(def Node) []string {
	wrapper := def
	if wrapper.Kind() != KindDecoratedDef {
		wrapper = def.Parent()
		if wrapper.Kind() != KindDecoratedDef {
			return nil
		}
	}
	var out []string
	for i := 0; i < wrapper.NamedChildCount(); i++ {
		c := wrapper.NamedChild(i)
		if c.RawType() == "decorator" {
			text := strings.TrimPrefix(c.Text(), "@")
			out = append(out, strings.TrimSpace(text))
		}
	}
	return out
}

// IsPropertyDef reports whether def is a method exposed as an attribute
// via the property protocol.
func IsPropertyDef(def Node) bool {
	for _, d := range Decorators(def) {
		name := d
		if idx := strings.Index(name, "("); idx >= 0 {
			name = name[:idx]
		}
		switch name {
		case "property", "cached_property", "functools.cached_property":
			return true
		}
	}
	return false
}

// TypeExpr unwraps the `type` wrapper the grammar puts around every
// annotation, yielding the annotation's expression node. Non-wrapper
// nodes pass through unchanged.
func TypeExpr(ann Node) Node {
	for ann.Kind() == KindType {
		ann = ann.NamedChild(0)
	}
	return ann
}

// ReturnAnnotation returns the return-type annotation expression of a
// function definition, or the nil node when it has none.
func ReturnAnnotation(def Node) Node {
	return TypeExpr(Undecorate(def).ChildByField("return_type"))
}

// ClassBases returns the base-class expression nodes of a class definition
// in source order, keyword arguments (metaclass=...) excluded.
func ClassBases(class Node) []Node {
	class = Undecorate(class)
	args := class.ChildByField("superclasses")
	if args.IsNil() {
		return nil
	}
	var bases []Node
	for i := 0; i < args.NamedChildCount(); i++ {
		c := args.NamedChild(i)
		if c.Kind() == KindKeywordArgument {
			continue
		}
		bases = append(bases, c)
	}
	return bases
}

// Lookup resolves a bare name lexically starting from the given scope.
//
// Description:
//
//	Searches the scope's own bindings first (parameters, assignments,
//	imports, nested definitions), then walks outward through enclosing
//	scopes. The first scope with any binding wins (lexical shadowing);
//	within that scope all defining statements are returned in source order.
//
// Inputs:
//
//	scope - The scope node to start from. A non-scope node is allowed;
//	        its enclosing scope is used.
//	name  - The bare name to resolve.
//
// Outputs:
//
//	[]Node - Defining statements: assignment, parameter, import statement,
//	         or function/class definition nodes. Nil when unbound.
func Lookup(scope Node, name string) []Node {
	if scope.IsNil() || name == "" {
		return nil
	}
	if !IsScope(scope) {
		scope = ScopeOf(scope)
	}
	for ; !scope.IsNil(); scope = ScopeOf(scope) {
		if defs := bindingsIn(scope, name); len(defs) > 0 {
			return defs
		}
	}
	return nil
}

// bindingsIn collects defining statements for name within one scope.
func bindingsIn(scope Node, name string) []Node {
	var defs []Node

	if scope.Kind() == KindFunctionDef {
		if p := parameterNamed(scope, name); !p.IsNil() {
			defs = append(defs, p)
		}
	}

	body := scope
	if scope.Kind() != KindModule {
		body = BodyOf(scope)
	}
	if body.IsNil() {
		return defs
	}

	for i := 0; i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Kind() {
		case KindExpressionStatement:
			for j := 0; j < stmt.NamedChildCount(); j++ {
				inner := stmt.NamedChild(j)
				if inner.Kind() == KindAssignment && assignmentBinds(inner, name) {
					defs = append(defs, inner)
				}
			}
		case KindImport, KindImportFrom:
			if ImportedQName(stmt, name) != "" {
				defs = append(defs, stmt)
			}
		case KindFunctionDef, KindClassDef:
			if NameOf(stmt) == name {
				defs = append(defs, stmt)
			}
		case KindDecoratedDef:
			if NameOf(stmt) == name {
				defs = append(defs, stmt)
			}
		}
	}
	return defs
}

// parameterNamed finds the parameter binding name in a function definition.
func parameterNamed(def Node, name string) Node {
	params := Undecorate(def).ChildByField("parameters")
	if params.IsNil() {
		return Node{}
	}
	for i := 0; i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		switch p.Kind() {
		case KindIdentifier:
			if p.Text() == name {
				return p
			}
		case KindTypedParameter, KindDefaultParameter, KindTypedDefaultParameter:
			if parameterName(p) == name {
				return p
			}
		}
	}
	return Node{}
}

// parameterName extracts the bound name from a parameter node.
func parameterName(p Node) string {
	if p.Kind() == KindIdentifier {
		return p.Text()
	}
	// typed_parameter puts the identifier as first child; default
	// parameters expose it under the "name" field.
	if n := p.ChildByField("name"); !n.IsNil() {
		return n.Text()
	}
	if c := p.NamedChild(0); c.Kind() == KindIdentifier {
		return c.Text()
	}
	return ""
}

// assignmentBinds reports whether an assignment's target is exactly name.
// Tuple unpacking and attribute targets do not bind bare names.
func assignmentBinds(assign Node, name string) bool {
	left := assign.ChildByField("left")
	return left.Kind() == KindIdentifier && left.Text() == name
}

// ImportedQName returns the qualified path a local name is bound to by an
// import statement, or "" when the statement does not bind that name.
//
// Description:
//
//	import a.b          binds "a"   -> "a"
//	import a.b as c     binds "c"   -> "a.b"
//	from a.b import C   binds "C"   -> "a.b.C"
//	from a import C as D binds "D"  -> "a.C"
//	from . import x     binds "x"   -> "<pkg>.x" (relative to the module)
func ImportedQName(imp Node, name string) string {
	switch imp.Kind() {
	case KindImport:
		for i := 0; i < imp.NamedChildCount(); i++ {
			c := imp.NamedChild(i)
			switch c.RawType() {
			case "dotted_name":
				path := c.Text()
				if firstSegment(path) == name {
					return firstSegment(path)
				}
			case "aliased_import":
				alias := c.ChildByField("alias").Text()
				if alias == name {
					return c.ChildByField("name").Text()
				}
			}
		}
	case KindImportFrom:
		module := importFromModule(imp)
		if module == "" {
			return ""
		}
		for i := 0; i < imp.NamedChildCount(); i++ {
			c := imp.NamedChild(i)
			if isModuleNameChild(imp, c) {
				continue
			}
			switch c.RawType() {
			case "dotted_name":
				if c.Text() == name {
					return module + "." + name
				}
			case "aliased_import":
				if c.ChildByField("alias").Text() == name {
					return module + "." + c.ChildByField("name").Text()
				}
			}
		}
	}
	return ""
}

// importFromModule returns the absolute module path of an import-from
// statement, resolving relative imports against the importing module.
func importFromModule(imp Node) string {
	mod := imp.ChildByField("module_name")
	if mod.IsNil() {
		return ""
	}
	if mod.RawType() != "relative_import" {
		return mod.Text()
	}

	// relative_import = import_prefix (dots) + optional dotted_name
	text := mod.Text()
	dots := 0
	for dots < len(text) && text[dots] == '.' {
		dots++
	}
	rest := text[dots:]

	base := ""
	if imp.Tree() != nil {
		base = imp.Tree().Module
	}
	parts := []string{}
	if base != "" {
		parts = strings.Split(base, ".")
	}
	// One dot means the current package: drop the module's own last segment.
	drop := dots
	if drop > len(parts) {
		drop = len(parts)
	}
	parts = parts[:len(parts)-drop]

	if rest != "" {
		parts = append(parts, rest)
	}
	return strings.Join(parts, ".")
}

// isModuleNameChild reports whether c is the module_name field of imp.
func isModuleNameChild(imp, c Node) bool {
	mod := imp.ChildByField("module_name")
	return !mod.IsNil() && mod.ID() == c.ID()
}

// firstSegment returns the leading segment of a dotted path.
func firstSegment(path string) string {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		return path[:idx]
	}
	return path
}

// FindClassAttribute searches a class body for a declared attribute.
//
// Description:
//
//	Searches, in order: annotated class-level assignments (`x: T = ...`),
//	method definitions named attr (including properties), and annotated
//	instance assignments inside methods (`self.x: T = ...`). Base classes
//	are not searched here; callers walk ancestors explicitly.
//
// Outputs:
//
//	Node - The assignment or function-definition node declaring attr,
//	       or the nil node when the class body has no declaration.
func FindClassAttribute(class Node, attr string) Node {
	body := BodyOf(class)
	if body.IsNil() {
		return Node{}
	}
	for i := 0; i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Kind() {
		case KindExpressionStatement:
			for j := 0; j < stmt.NamedChildCount(); j++ {
				inner := stmt.NamedChild(j)
				if inner.Kind() == KindAssignment && assignmentBinds(inner, attr) {
					return inner
				}
			}
		case KindFunctionDef, KindDecoratedDef:
			if NameOf(stmt) == attr {
				return stmt
			}
		}
	}
	// Instance attributes annotated inside methods: self.attr: T = ...
	for i := 0; i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt.Kind() != KindFunctionDef && stmt.Kind() != KindDecoratedDef {
			continue
		}
		if found := findSelfAssignment(BodyOf(stmt), attr); !found.IsNil() {
			return found
		}
	}
	return Node{}
}

// findSelfAssignment scans a method body for `self.attr: T = ...`.
// Only annotated assignments count as declarations.
func findSelfAssignment(body Node, attr string) Node {
	if body.IsNil() {
		return Node{}
	}
	for i := 0; i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt.Kind() != KindExpressionStatement {
			continue
		}
		for j := 0; j < stmt.NamedChildCount(); j++ {
			inner := stmt.NamedChild(j)
			if inner.Kind() != KindAssignment {
				continue
			}
			if inner.ChildByField("type").IsNil() {
				continue
			}
			left := inner.ChildByField("left")
			if left.Kind() != KindAttribute {
				continue
			}
			recv := left.ChildByField("object")
			name := left.ChildByField("attribute")
			if recv.Text() == "self" && name.Text() == attr {
				return inner
			}
		}
	}
	return Node{}
}
