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

// ChainRoot returns the terminal receiver of an attribute/call chain:
// the leftmost expression after unwrapping `.attr` accesses and `()`
// applications. For `a.b.c().d`, that is the identifier `a`.
func ChainRoot(n Node) Node {
	for {
		switch n.Kind() {
		case KindAttribute:
			n = n.ChildByField("object")
		case KindCall:
			n = n.ChildByField("function")
		case KindParenthesized:
			inner := n.NamedChild(0)
			if inner.IsNil() {
				return n
			}
			n = inner
		default:
			return n
		}
	}
}

// ChainDepth counts the dotted accesses in an attribute/call chain.
// `a.b()` has depth 1, `a.b.c()` depth 2.
func ChainDepth(n Node) int {
	depth := 0
	for {
		switch n.Kind() {
		case KindAttribute:
			depth++
			n = n.ChildByField("object")
		case KindCall:
			n = n.ChildByField("function")
		case KindParenthesized:
			inner := n.NamedChild(0)
			if inner.IsNil() {
				return depth
			}
			n = inner
		default:
			return depth
		}
	}
}
