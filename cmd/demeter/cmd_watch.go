// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/demeter/lint"
)

var (
	watchCmd = &cobra.Command{
		Use:   "watch [project-root]",
		Short: "Re-run analysis whenever Python sources change",
		Long: `Runs an initial analysis pass, then watches the project tree and
re-analyzes after each burst of filesystem changes. The inference cache
is invalidated between passes so results never go stale.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatchCommand,
	}

	flagDebounce time.Duration
)

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 500*time.Millisecond, "quiet period before re-running after a change")
	rootCmd.AddCommand(watchCmd)
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadAnalyzeConfig(args)
	if err != nil {
		return err
	}
	runner, err := lint.NewRunner(cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watchTree(watcher, cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	runPass(ctx, runner)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			// New directories need explicit watches.
			if event.Op.Has(fsnotify.Create) {
				if err := watchTree(watcher, cfg); err != nil {
					slog.Warn("watch refresh failed", slog.String("error", err.Error()))
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(flagDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		case <-pending:
			runner.InvalidateCache()
			runPass(ctx, runner)
		}
	}
}

// runPass runs one analysis pass and prints its report; watch mode keeps
// going on analysis errors.
func runPass(ctx context.Context, runner *lint.Runner) {
	report, err := runner.Run(ctx)
	if err != nil {
		slog.Error("analysis pass failed", slog.String("error", err.Error()))
		return
	}
	printReport(report)
}

// relevantEvent filters watcher noise down to Python source mutations.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	if event.Op.Has(fsnotify.Create) && looksLikeDir(event.Name) {
		return true
	}
	return strings.HasSuffix(event.Name, ".py")
}

// looksLikeDir reports whether the path names something without a file
// extension; the watcher needs to pick up new package directories.
func looksLikeDir(path string) bool {
	return filepath.Ext(path) == ""
}

// watchTree registers the project root and every non-excluded directory
// under it.
func watchTree(watcher *fsnotify.Watcher, cfg *lint.Config) error {
	return filepath.WalkDir(cfg.ProjectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != cfg.ProjectRoot && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		for _, ex := range cfg.Exclude {
			if ex != "" && strings.Contains(filepath.ToSlash(path), ex) {
				return filepath.SkipDir
			}
		}
		if err := watcher.Add(path); err != nil {
			return err
		}
		return nil
	})
}
