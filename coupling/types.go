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
	"github.com/AleutianAI/demeter/pyast"
)

// Diagnostic codes emitted by the structural coupling analyzer.
const (
	// CodeLawOfDemeter flags a train-wreck method chain or a call on a
	// stranger variable.
	CodeLawOfDemeter = "DEM001"

	// CodeUnstableDependency flags a chain rooted in an uninferable
	// external module that has no on-disk compatibility stub.
	CodeUnstableDependency = "DEM002"
)

// Violation is one detected rule breach.
//
// Description:
//
//	Violations are plain data, immutable after creation, consumed by an
//	external diagnostic sink. They never carry error semantics.
type Violation struct {
	// Code is the diagnostic code (DEM001, DEM002).
	Code string `json:"code"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Locations are the source positions involved; the first is the
	// offending call.
	Locations []pyast.Location `json:"locations"`

	// Chain is the reconstructed dotted path ("self.a.b.c"), when the
	// violation came from the chain check.
	Chain string `json:"chain,omitempty"`

	// Node is the offending call node. Borrowed; not serialized.
	Node pyast.Node `json:"-"`
}

// Sink consumes diagnostics. Implementations must not assume any
// ordering across analysis units.
type Sink interface {
	Emit(v Violation)
}

// StrangerMap records which local names hold non-trusted, non-primitive
// call results within one analyzed scope.
//
// Description:
//
//	Built incrementally while walking a function body, owned by the
//	caller of the analyzer, passed by reference. Each parallel analysis
//	unit owns its own map.
type StrangerMap map[string]bool

// NewStrangerMap creates an empty per-scope map.
func NewStrangerMap() StrangerMap {
	return make(StrangerMap)
}

// Mark flags name as holding a stranger value.
func (m StrangerMap) Mark(name string) {
	m[name] = true
}

// IsStranger reports whether name holds a stranger value.
func (m StrangerMap) IsStranger(name string) bool {
	return m[name]
}
