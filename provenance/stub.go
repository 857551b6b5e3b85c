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
	"os"
	"path/filepath"
	"strings"
)

// StubResolver checks for on-disk type-declaration stubs that compensate
// for uninferable external modules.
//
// Description:
//
//	The lookup is synchronous and idempotent; it is the only I/O this
//	layer performs and it is used solely to pick a diagnostic code.
//	Callers may cache results, the resolver does not.
//
// Thread Safety: Safe for concurrent use.
type StubResolver struct{}

// NewStubResolver creates a stub resolver.
func NewStubResolver() *StubResolver {
	return &StubResolver{}
}

// HasStub reports whether a compatibility stub exists for module under
// the project root.
//
// Description:
//
//	Checked locations, in order:
//	  <root>/stubs/<module path>.pyi
//	  <root>/stubs/<module path>/__init__.pyi
//	  <root>/<module path>.pyi
func (s *StubResolver) HasStub(moduleName, projectRoot string) bool {
	if moduleName == "" || projectRoot == "" {
		return false
	}
	rel := filepath.FromSlash(strings.ReplaceAll(moduleName, ".", "/"))
	candidates := []string{
		filepath.Join(projectRoot, "stubs", rel+".pyi"),
		filepath.Join(projectRoot, "stubs", rel, "__init__.pyi"),
		filepath.Join(projectRoot, rel+".pyi"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// StubPath returns the conventional path a stub for module should be
// authored at, used in unstable-dependency diagnostics.
func (s *StubResolver) StubPath(moduleName, projectRoot string) string {
	rel := filepath.FromSlash(strings.ReplaceAll(moduleName, ".", "/"))
	return filepath.Join(projectRoot, "stubs", rel+".pyi")
}
