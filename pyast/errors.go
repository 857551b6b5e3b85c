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

import "errors"

// Sentinel errors for parse and lookup failures.
//
// These can be checked with errors.Is() to determine the category of
// failure without inspecting error messages.
var (
	// ErrInvalidContent indicates the provided content cannot be parsed
	// at all (nil slice, non-UTF-8 encoding).
	ErrInvalidContent = errors.New("invalid content")

	// ErrParseFailed indicates tree-sitter produced no usable tree.
	ErrParseFailed = errors.New("parse failed")

	// ErrFileTooLarge indicates the file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnknownModule indicates a cross-module lookup named a module the
	// engine has not parsed.
	ErrUnknownModule = errors.New("unknown module")

	// ErrNilNode indicates an engine query was handed the nil node.
	ErrNilNode = errors.New("nil node")
)
