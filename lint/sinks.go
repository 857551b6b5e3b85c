// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/AleutianAI/demeter/coupling"
)

// CollectorSink accumulates violations in memory.
//
// Thread Safety: Safe for concurrent use.
type CollectorSink struct {
	mu         sync.Mutex
	violations []coupling.Violation
}

// NewCollectorSink creates an empty collector.
func NewCollectorSink() *CollectorSink {
	return &CollectorSink{}
}

// Emit implements coupling.Sink.
func (s *CollectorSink) Emit(v coupling.Violation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, v)
}

// Violations returns a copy of everything collected so far.
func (s *CollectorSink) Violations() []coupling.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]coupling.Violation, len(s.violations))
	copy(out, s.violations)
	return out
}

// ConsoleSink renders violations to a writer as they arrive, in the
// conventional file:line:col format.
//
// Thread Safety: Safe for concurrent use.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink creates a console sink over a writer.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Emit implements coupling.Sink.
func (s *ConsoleSink) Emit(v coupling.Violation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := v.Locations[0]
	fmt.Fprintf(s.w, "%s:%d:%d: %s %s\n", loc.FilePath, loc.Line, loc.Column, v.Code, v.Message)
}

// WriteReportJSON renders a full report as indented JSON.
func WriteReportJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
