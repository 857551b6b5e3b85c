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
)

// QName is a fully-qualified, normalized type identifier, or the
// Unresolved sentinel.
//
// Description:
//
//	QName is an immutable value type produced fresh per resolution call.
//	It is either fully resolved ("builtins.str", "pkg.models.User") or
//	Unresolved — never partial, never a guess. A pipe-joined QName
//	("builtins.str|builtins.int") denotes a union that survived
//	normalization without collapsing to a single member.
type QName string

// Unresolved is the sentinel for total resolution failure. It is a normal
// first-class value, not an error.
const Unresolved QName = ""

// IsResolved reports whether q carries a concrete identifier.
func (q QName) IsResolved() bool {
	return q != Unresolved
}

// String returns the dotted identifier, or "<unresolved>" for the sentinel.
func (q QName) String() string {
	if q == Unresolved {
		return "<unresolved>"
	}
	return string(q)
}

// Module returns every segment but the last ("pkg.models.User" -> "pkg.models").
func (q QName) Module() string {
	s := string(q)
	if idx := strings.LastIndexByte(s, '.'); idx >= 0 {
		return s[:idx]
	}
	return ""
}

// Tail returns the trailing identifier ("pkg.models.User" -> "User").
func (q QName) Tail() string {
	s := string(q)
	if idx := strings.LastIndexByte(s, '.'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// Root returns the leading segment ("pkg.models.User" -> "pkg").
func (q QName) Root() string {
	s := string(q)
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// IsUnion reports whether q is a pipe-joined union.
func (q QName) IsUnion() bool {
	return strings.ContainsRune(string(q), '|')
}

// UnionMembers splits a pipe-joined union into its member QNames. A
// non-union QName yields itself as the single member.
func (q QName) UnionMembers() []QName {
	if !q.IsUnion() {
		return []QName{q}
	}
	parts := strings.Split(string(q), "|")
	out := make([]QName, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, QName(p))
		}
	}
	return out
}

// IsNone reports whether q normalizes to the NoneType.
func (q QName) IsNone() bool {
	return Normalize(q) == "builtins.NoneType"
}

// bareBuiltins are unqualified names that normalize into the builtins
// namespace.
var bareBuiltins = map[string]struct{}{
	"str": {}, "int": {}, "float": {}, "bool": {}, "bytes": {},
	"bytearray": {}, "list": {}, "dict": {}, "set": {}, "frozenset": {},
	"tuple": {}, "complex": {}, "object": {}, "type": {}, "range": {},
	"slice": {}, "memoryview": {}, "Exception": {}, "BaseException": {},
	"None": {}, "NoneType": {},
}

// typingAliases maps typing-module generic aliases to their runtime types.
var typingAliases = map[string]string{
	"typing.List":        "builtins.list",
	"typing.Dict":        "builtins.dict",
	"typing.Set":         "builtins.set",
	"typing.FrozenSet":   "builtins.frozenset",
	"typing.Tuple":       "builtins.tuple",
	"typing.Text":        "builtins.str",
	"typing.Type":        "builtins.type",
	"typing.ByteString":  "builtins.bytes",
	"typing.DefaultDict": "collections.defaultdict",
	"typing.OrderedDict": "collections.OrderedDict",
	"typing.Counter":     "collections.Counter",
	"typing.Deque":       "collections.deque",
}

// Normalize canonicalizes a QName.
//
// Description:
//
//	Bare builtin names gain the "builtins." prefix, "None" becomes
//	"builtins.NoneType", and typing-module aliases collapse to their
//	runtime counterparts (typing.List -> builtins.list). Union members are
//	normalized independently. Unresolved stays Unresolved; anything
//	unrecognized passes through unchanged.
func Normalize(q QName) QName {
	if q == Unresolved {
		return Unresolved
	}
	if q.IsUnion() {
		members := q.UnionMembers()
		parts := make([]string, 0, len(members))
		for _, m := range members {
			parts = append(parts, string(Normalize(m)))
		}
		return QName(strings.Join(parts, "|"))
	}
	s := string(q)
	if s == "None" || s == "NoneType" || s == "builtins.None" {
		return "builtins.NoneType"
	}
	if _, ok := bareBuiltins[s]; ok {
		return QName("builtins." + s)
	}
	if alias, ok := typingAliases[s]; ok {
		return QName(alias)
	}
	return q
}
