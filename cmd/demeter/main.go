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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Exit codes.
const (
	ExitSuccess   = 0
	ExitViolation = 1
	ExitError     = 2
)

var (
	rootCmd = &cobra.Command{
		Use:   "demeter",
		Short: "Structural coupling analysis for Python codebases",
		Long: `Demeter detects Law of Demeter violations (train wrecks and stranger
calls) in Python source using type resolution instead of syntax matching,
so fluent builders and standard-library chains do not trip false alarms.`,
	}

	flagVerbose bool
	flagMetrics bool

	meterProvider *sdkmetric.MeterProvider
)

func main() {
	os.Exit(run())
}

func run() int {
	defer shutdownMetrics()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		return ExitError
	}
	return exitCode
}

// exitCode is set by commands that distinguish clean from violating runs.
var exitCode = ExitSuccess

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagMetrics, "metrics", false, "dump OpenTelemetry metrics to stderr on exit")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		if flagMetrics {
			return setupMetrics()
		}
		return nil
	}
}

// setupMetrics installs a periodic stderr exporter as the global meter
// provider so the per-package instruments have somewhere to land.
func setupMetrics() error {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return err
	}
	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(meterProvider)
	return nil
}

func shutdownMetrics() {
	if meterProvider == nil {
		return
	}
	if err := meterProvider.Shutdown(context.Background()); err != nil {
		slog.Warn("metrics shutdown failed", slog.String("error", err.Error()))
	}
}
