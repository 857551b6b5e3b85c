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
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// File size limits for parsing.
const (
	// MaxFileSize is the default parse size limit (10 MB).
	MaxFileSize = 10 * 1024 * 1024

	// WarnFileSize triggers a log warning for unusually large sources (1 MB).
	WarnFileSize = 1024 * 1024
)

// Parser parses Python source into borrowable Trees.
//
// Description:
//
//	Parser wraps tree-sitter-python. A fresh tree-sitter parser instance is
//	created per Parse call, so a single Parser value is safe for concurrent
//	use by multiple goroutines.
//
// Thread Safety: Safe for concurrent use.
type Parser struct {
	maxFileSize int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxFileSize overrides the parse size limit.
func WithMaxFileSize(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// NewParser creates a Python parser with default limits.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxFileSize: MaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses Python source content.
//
// Description:
//
//	Parses the given content and returns a Tree that owns the resulting
//	tree-sitter tree. Syntax errors do not fail the parse; the partial tree
//	is returned and Tree.HasError reports the condition. The caller owns the
//	Tree and must Close it when analysis of the file is done.
//
// Inputs:
//
//	ctx      - Context for cancellation.
//	content  - Raw source bytes. Must be valid UTF-8.
//	filePath - Path relative to project root, used for locations and the
//	           derived module name.
//
// Outputs:
//
//	*Tree - The parsed tree. Never nil when error is nil.
//	error - Non-nil only for complete failures (invalid content, canceled).
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*Tree, error) {
	start := time.Now()

	if content == nil {
		return nil, fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	if len(content) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	// New instance per call for thread safety.
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tsTree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	if tsTree == nil || tsTree.RootNode() == nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: nil root node", ErrParseFailed)
	}
	if err := ctx.Err(); err != nil {
		tsTree.Close()
		return nil, fmt.Errorf("parse canceled: %w", err)
	}

	tree := &Tree{
		FilePath: filePath,
		Module:   ModuleName(filePath),
		Source:   content,
		ts:       tsTree,
	}

	if tree.HasError() {
		slog.Debug("source contains syntax errors",
			slog.String("file", filePath))
	}

	recordParseMetrics(ctx, time.Since(start), true)
	return tree, nil
}

// ModuleName derives the dotted module name from a project-relative path.
//
// Description:
//
//	"pkg/models/user.py" -> "pkg.models.user". A trailing "__init__" segment
//	is dropped, so "pkg/__init__.py" -> "pkg". Paths are normalized to
//	forward slashes first.
func ModuleName(filePath string) string {
	path := filepath.ToSlash(filePath)
	path = strings.TrimSuffix(path, ".pyi")
	path = strings.TrimSuffix(path, ".py")
	path = strings.TrimSuffix(path, "/__init__")
	path = strings.Trim(path, "/")
	return strings.ReplaceAll(path, "/", ".")
}
