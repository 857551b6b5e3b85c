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
	"path/filepath"
	"strings"
)

// Oracle answers trust-domain questions about modules and file paths.
//
// Description:
//
//	The oracle decides whether a module belongs to the Python standard
//	library, and whether a source file resolves outside the analyzed
//	project's own source tree (an external dependency). Both checks are
//	pure; the oracle performs no I/O.
//
// Thread Safety: Safe for concurrent use; the oracle is immutable.
type Oracle struct {
	projectRoot string
}

// NewOracle creates an oracle for a project root. The root should be an
// absolute, cleaned path; relative roots are resolved against the
// process working directory by the caller.
func NewOracle(projectRoot string) *Oracle {
	return &Oracle{projectRoot: filepath.Clean(projectRoot)}
}

// ProjectRoot returns the configured project root.
func (o *Oracle) ProjectRoot() string {
	return o.projectRoot
}

// IsStdlibModule reports whether a dotted module path belongs to the
// standard library. Only the leading segment decides ("os.path" -> "os").
func (o *Oracle) IsStdlibModule(name string) bool {
	if name == "" {
		return false
	}
	root := name
	if idx := strings.IndexByte(root, '.'); idx >= 0 {
		root = root[:idx]
	}
	_, ok := stdlibModules[root]
	return ok
}

// IsExternalDependency reports whether a source file path resolves
// outside the analyzed project's source tree.
//
// Description:
//
//	A path under a site-packages or dist-packages directory is external
//	regardless of location. Otherwise the decision is a path check
//	relative to the project root.
func (o *Oracle) IsExternalDependency(filePath string) bool {
	if filePath == "" {
		return false
	}
	slashed := filepath.ToSlash(filePath)
	if strings.Contains(slashed, "/site-packages/") || strings.Contains(slashed, "/dist-packages/") {
		return true
	}
	clean := filepath.Clean(filePath)
	if !filepath.IsAbs(clean) {
		// Paths the analyzer produced itself are project-relative.
		return false
	}
	rel, err := filepath.Rel(o.projectRoot, clean)
	if err != nil {
		return true
	}
	return strings.HasPrefix(rel, "..")
}
