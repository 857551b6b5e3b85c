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
	"context"
)

// builtinConstructors are bare names whose call yields the builtin type
// of the same name.
var builtinConstructors = map[string]struct{}{
	"str": {}, "int": {}, "float": {}, "bool": {}, "bytes": {},
	"bytearray": {}, "list": {}, "dict": {}, "set": {}, "frozenset": {},
	"tuple": {}, "complex": {}, "object": {},
}

// builtinMethodReturns maps "<receiver qname>.<method>" to the method's
// return type. Only methods with a fixed, element-type-independent return
// belong here; anything generic stays Unknown.
var builtinMethodReturns = map[string]string{
	"builtins.str.split":      "builtins.list",
	"builtins.str.rsplit":     "builtins.list",
	"builtins.str.splitlines": "builtins.list",
	"builtins.str.join":       "builtins.str",
	"builtins.str.strip":      "builtins.str",
	"builtins.str.lstrip":     "builtins.str",
	"builtins.str.rstrip":     "builtins.str",
	"builtins.str.upper":      "builtins.str",
	"builtins.str.lower":      "builtins.str",
	"builtins.str.title":      "builtins.str",
	"builtins.str.replace":    "builtins.str",
	"builtins.str.format":     "builtins.str",
	"builtins.str.startswith": "builtins.bool",
	"builtins.str.endswith":   "builtins.bool",
	"builtins.str.isdigit":    "builtins.bool",
	"builtins.str.isalpha":    "builtins.bool",
	"builtins.str.find":       "builtins.int",
	"builtins.str.rfind":      "builtins.int",
	"builtins.str.index":      "builtins.int",
	"builtins.str.count":      "builtins.int",
	"builtins.str.encode":     "builtins.bytes",
	"builtins.bytes.decode":   "builtins.str",
	"builtins.list.copy":      "builtins.list",
	"builtins.list.count":     "builtins.int",
	"builtins.list.index":     "builtins.int",
	"builtins.dict.copy":      "builtins.dict",
	"builtins.dict.keys":      "builtins.dict_keys",
	"builtins.dict.values":    "builtins.dict_values",
	"builtins.dict.items":     "builtins.dict_items",
	"builtins.set.copy":       "builtins.set",
}

// inferNode performs direct, single-node inference.
//
// Description:
//
//	Literals, container displays, comparisons and builtin constructor
//	calls have unambiguous types; everything else is Unknown (nil).
//	Name and attribute resolution is the resolver's job, not inference's.
func inferNode(n Node) []string {
	switch n.Kind() {
	case KindString:
		return []string{"builtins.str"}
	case KindInteger:
		return []string{"builtins.int"}
	case KindFloat:
		return []string{"builtins.float"}
	case KindTrue, KindFalse:
		return []string{"builtins.bool"}
	case KindNone:
		return []string{"builtins.NoneType"}
	case KindList:
		return []string{"builtins.list"}
	case KindDict:
		return []string{"builtins.dict"}
	case KindSet:
		return []string{"builtins.set"}
	case KindTuple:
		return []string{"builtins.tuple"}
	case KindComparisonOperator, KindNotOperator:
		return []string{"builtins.bool"}
	case KindParenthesized:
		inner := n.NamedChild(0)
		if inner.IsNil() {
			return nil
		}
		return inferNode(inner)
	case KindCall:
		fn := n.ChildByField("function")
		if fn.Kind() == KindIdentifier {
			if _, ok := builtinConstructors[fn.Text()]; ok {
				return []string{"builtins." + fn.Text()}
			}
		}
		return nil
	default:
		return nil
	}
}

// inferBroadNode performs the wider inference pass.
//
// Description:
//
//	Runs direct inference first, then covers builtin-method calls whose
//	receiver type is itself inferable (directly or through another broad
//	step, so chained calls like `s.strip().split()` resolve end to end).
func (e *Engine) inferBroadNode(ctx context.Context, n Node) []string {
	if direct := inferNode(n); direct != nil {
		return direct
	}
	if n.Kind() != KindCall {
		return nil
	}
	fn := n.ChildByField("function")
	if fn.Kind() != KindAttribute {
		return nil
	}
	receiver := fn.ChildByField("object")
	method := fn.ChildByField("attribute").Text()
	if receiver.IsNil() || method == "" {
		return nil
	}
	recvTypes, err := e.InferBroad(ctx, receiver)
	if err != nil || len(recvTypes) == 0 {
		return nil
	}
	if ret, ok := builtinMethodReturns[recvTypes[0]+"."+method]; ok {
		return []string{ret}
	}
	return nil
}
