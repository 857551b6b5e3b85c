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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/demeter/lint"
)

var (
	analyzeCmd = &cobra.Command{
		Use:   "analyze [project-root]",
		Short: "Run one coupling-analysis pass over a Python project",
		Long: `Parses every Python file under the project root, resolves receiver
types across modules, and reports DEM001 (Law of Demeter) and DEM002
(unstable external dependency) diagnostics.

The project root defaults to the current directory. A .demeter.yaml at
the root supplies safe roots, overrides, and exclusions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyzeCommand,
	}

	flagConfig       string
	flagJSON         bool
	flagWorkers      int
	flagIncludeTests bool
	flagSafeRoots    []string
)

func init() {
	analyzeCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to a config file (default <root>/.demeter.yaml if present)")
	analyzeCmd.Flags().BoolVar(&flagJSON, "json", false, "emit the full report as JSON on stdout")
	analyzeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel analysis workers (0 = GOMAXPROCS)")
	analyzeCmd.Flags().BoolVar(&flagIncludeTests, "include-tests", false, "analyze test files too")
	analyzeCmd.Flags().StringSliceVar(&flagSafeRoots, "safe-root", nil, "extra safe-root prefixes (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}

// loadAnalyzeConfig resolves the effective configuration from the
// positional root, an explicit --config, or a conventional config file.
func loadAnalyzeConfig(args []string) (*lint.Config, error) {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var cfg *lint.Config
	switch {
	case flagConfig != "":
		cfg, err = lint.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			cfg.ProjectRoot = absRoot
		}
	default:
		conventional := filepath.Join(absRoot, lint.ConfigFileName)
		if _, statErr := os.Stat(conventional); statErr == nil {
			cfg, err = lint.LoadConfig(conventional)
			if err != nil {
				return nil, err
			}
			cfg.ProjectRoot = absRoot
		} else {
			cfg = lint.DefaultConfig(absRoot)
		}
	}

	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagIncludeTests {
		cfg.IncludeTests = true
	}
	cfg.SafeRoots = append(cfg.SafeRoots, flagSafeRoots...)
	return cfg, nil
}

func runAnalyzeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadAnalyzeConfig(args)
	if err != nil {
		return err
	}
	runner, err := lint.NewRunner(cfg)
	if err != nil {
		return err
	}
	report, err := runner.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, lint.ErrNoPythonFiles) {
			return fmt.Errorf("nothing to analyze under %s", cfg.ProjectRoot)
		}
		return err
	}

	if flagJSON {
		if err := lint.WriteReportJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}
	if !report.Valid() {
		exitCode = ExitViolation
	}
	return nil
}

// printReport renders a human-readable report to stdout.
func printReport(report *lint.Report) {
	for _, issue := range report.Issues {
		fmt.Printf("%s:%d:%d: %s [%s] %s\n",
			issue.Location.FilePath, issue.Location.Line, issue.Location.Column,
			issue.Code, issue.Severity, issue.Message)
	}
	fmt.Printf("%d file(s) analyzed, %d issue(s) found\n",
		report.FilesAnalyzed, len(report.Issues))
}
