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
	"time"

	"github.com/AleutianAI/demeter/coupling"
	"github.com/AleutianAI/demeter/pyast"
)

// Severity represents the severity level of a reported issue.
type Severity int

const (
	// SeverityInfo represents informational issues.
	SeverityInfo Severity = iota

	// SeverityWarning represents issues that should be noted.
	SeverityWarning

	// SeverityError represents issues that should block.
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// severityFor maps a diagnostic code to its severity. Unstable
// dependencies warn; train wrecks are errors.
func severityFor(code string) Severity {
	switch code {
	case coupling.CodeUnstableDependency:
		return SeverityWarning
	case coupling.CodeLawOfDemeter:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Issue is one rendered diagnostic.
//
// Thread Safety: Immutable after creation by the runner.
type Issue struct {
	// Code is the diagnostic code (DEM001, DEM002).
	Code string `json:"code"`

	// Severity is the mapped severity level.
	Severity string `json:"severity"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Location is the offending call position.
	Location pyast.Location `json:"location"`

	// Chain is the reconstructed dotted path, when applicable.
	Chain string `json:"chain,omitempty"`
}

// Report is the result of one analysis pass over a project.
//
// Thread Safety: Immutable after creation by the runner.
type Report struct {
	// RunID uniquely identifies this pass.
	RunID string `json:"run_id"`

	// ProjectRoot is the analyzed tree.
	ProjectRoot string `json:"project_root"`

	// FilesAnalyzed counts parsed source files.
	FilesAnalyzed int `json:"files_analyzed"`

	// FilesSkipped counts files discovery matched but parsing rejected.
	FilesSkipped int `json:"files_skipped"`

	// Issues are the emitted diagnostics, ordered by file then line.
	Issues []Issue `json:"issues"`

	// Duration is how long the pass took.
	Duration time.Duration `json:"duration_ns"`

	// CacheStats reports inference-cache effectiveness for the pass.
	CacheStats pyast.CacheStats `json:"cache_stats"`
}

// Valid reports whether the pass found no error-severity issues.
func (r *Report) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError.String() {
			return false
		}
	}
	return true
}
