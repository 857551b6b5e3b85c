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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/demeter/coupling"
	"github.com/AleutianAI/demeter/provenance"
	"github.com/AleutianAI/demeter/pyast"
	"github.com/AleutianAI/demeter/resolve"
)

// Runner orchestrates one analysis pass over a project tree.
//
// Description:
//
//	The runner discovers Python sources, parses them all into a shared
//	engine (so cross-module lookups see the whole project), then analyzes
//	files in parallel. Each parallel unit gets its own resolution
//	contexts and StrangerMaps; the engine is read-only during analysis,
//	so the core needs no locking.
//
//	The inference cache is owned here, not by the engine: watch-style
//	callers must call InvalidateCache between passes over mutated source.
//
// Thread Safety: Run may not be called concurrently on one Runner.
type Runner struct {
	cfg    *Config
	parser *pyast.Parser
	cache  *pyast.InferenceCache
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInferenceCache substitutes a caller-owned inference cache.
func WithInferenceCache(c *pyast.InferenceCache) RunnerOption {
	return func(r *Runner) {
		r.cache = c
	}
}

// NewRunner creates a runner for a validated configuration.
func NewRunner(cfg *Config, opts ...RunnerOption) (*Runner, error) {
	if cfg == nil || cfg.ProjectRoot == "" {
		return nil, ErrNoProjectRoot
	}
	r := &Runner{
		cfg:    cfg,
		parser: pyast.NewParser(),
		cache:  pyast.NewInferenceCache(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// InvalidateCache drops all memoized inference results. Must be called
// between passes whenever the analyzed source may have changed.
func (r *Runner) InvalidateCache() {
	r.cache.Invalidate()
}

// Run executes one full analysis pass.
//
// Outputs:
//
//	*Report - Diagnostics ordered by file, line, column.
//	error   - Non-nil on discovery or I/O failure. Analysis itself never
//	          fails; unresolvable code simply yields no diagnostics.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	slog.Info("analysis pass starting",
		slog.String("run_id", runID),
		slog.String("root", r.cfg.ProjectRoot))

	files, err := r.discover()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", r.cfg.ProjectRoot, ErrNoPythonFiles)
	}

	engine := pyast.NewEngine(pyast.WithCache(r.cache))
	var trees []*pyast.Tree
	skipped := 0
	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(r.cfg.ProjectRoot, rel))
		if err != nil {
			slog.Warn("skipping unreadable file",
				slog.String("file", rel), slog.String("error", err.Error()))
			skipped++
			continue
		}
		tree, err := r.parser.Parse(ctx, content, rel)
		if err != nil {
			slog.Warn("skipping unparseable file",
				slog.String("file", rel), slog.String("error", err.Error()))
			skipped++
			continue
		}
		engine.Add(tree)
		trees = append(trees, tree)
	}
	defer func() {
		for _, t := range trees {
			t.Close()
		}
	}()

	oracle := provenance.NewOracle(r.cfg.ProjectRoot)
	resolver := resolve.NewResolver(engine)
	classifier := provenance.NewClassifier(engine, oracle, resolver)
	stubs := provenance.NewStubResolver()
	analyzer := coupling.NewAnalyzer(engine, classifier, resolver, stubs, oracle, coupling.Options{
		SafeRoots: nilIfEmpty(r.cfg.SafeRoots),
		Overrides: r.cfg.Overrides,
	})

	collector := NewCollectorSink()
	g, gctx := errgroup.WithContext(ctx)
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for _, tree := range trees {
		if !r.cfg.IncludeTests && coupling.IsTestFile(tree.FilePath) {
			continue
		}
		tree := tree
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analyzer.AnalyzeFile(gctx, tree, collector)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	issues := renderIssues(collector.Violations())
	report := &Report{
		RunID:         runID,
		ProjectRoot:   r.cfg.ProjectRoot,
		FilesAnalyzed: len(trees),
		FilesSkipped:  skipped,
		Issues:        issues,
		Duration:      time.Since(start),
		CacheStats:    r.cache.Stats(),
	}
	recordRun(ctx, time.Since(start), len(trees), len(issues))
	slog.Info("analysis pass finished",
		slog.String("run_id", runID),
		slog.Int("files", len(trees)),
		slog.Int("issues", len(issues)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// discover returns project-relative paths of Python sources to analyze.
func (r *Runner) discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.cfg.ProjectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != r.cfg.ProjectRoot && (strings.HasPrefix(name, ".") || r.excluded(name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".py") || r.excluded(path) {
			return nil
		}
		rel, err := filepath.Rel(r.cfg.ProjectRoot, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", r.cfg.ProjectRoot, err)
	}
	sort.Strings(files)
	return files, nil
}

// excluded matches a path against the configured exclude substrings.
func (r *Runner) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, ex := range r.cfg.Exclude {
		if ex != "" && strings.Contains(slashed, ex) {
			return true
		}
	}
	return false
}

// renderIssues converts violations to ordered issues.
func renderIssues(violations []coupling.Violation) []Issue {
	issues := make([]Issue, 0, len(violations))
	for _, v := range violations {
		issues = append(issues, Issue{
			Code:     v.Code,
			Severity: severityFor(v.Code).String(),
			Message:  v.Message,
			Location: v.Locations[0],
			Chain:    v.Chain,
		})
	}
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Location.FilePath != b.Location.FilePath {
			return a.Location.FilePath < b.Location.FilePath
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		if a.Location.Column != b.Location.Column {
			return a.Location.Column < b.Location.Column
		}
		return a.Code < b.Code
	})
	return issues
}

// nilIfEmpty lets an empty config slice select analyzer defaults.
func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
