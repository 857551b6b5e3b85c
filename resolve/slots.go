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

// nativeAttributeTypes covers attributes implemented in C or via slots on
// well-known stdlib types, which never appear as ordinary declarations in
// any source the analyzer can parse.
//
// This table is an explicit compatibility map keyed "<class qname>.<attr>".
// Keep it small and add entries only for attributes a resolution strategy
// demonstrably needs; it must never be grown heuristically.
var nativeAttributeTypes = map[string]QName{
	"pathlib.Path.name":       "builtins.str",
	"pathlib.Path.stem":       "builtins.str",
	"pathlib.Path.suffix":     "builtins.str",
	"pathlib.Path.parent":     "pathlib.Path",
	"pathlib.Path.parts":      "builtins.tuple",
	"datetime.datetime.year":  "builtins.int",
	"datetime.datetime.month": "builtins.int",
	"datetime.datetime.day":   "builtins.int",
	"datetime.date.year":      "builtins.int",
	"datetime.date.month":     "builtins.int",
	"datetime.date.day":       "builtins.int",
	"re.Match.string":         "builtins.str",
	"builtins.complex.real":   "builtins.float",
	"builtins.complex.imag":   "builtins.float",
}

// nativeAttributeType looks up the override table for receiver.attr.
func nativeAttributeType(receiver QName, attr string) (QName, bool) {
	q, ok := nativeAttributeTypes[string(receiver)+"."+attr]
	return q, ok
}
