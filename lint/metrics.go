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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meterOnce sync.Once

	runLatency    metric.Float64Histogram
	runsTotal     metric.Int64Counter
	filesPerRun   metric.Int64Histogram
	issuesPerRun  metric.Int64Histogram
	metricsFailed bool
)

// initMetrics lazily initializes the pass-level instruments. Failures
// disable recording rather than failing the run.
func initMetrics() {
	meterOnce.Do(func() {
		meter := otel.Meter("demeter.lint")
		var err error
		runLatency, err = meter.Float64Histogram(
			"demeter.lint.run.duration",
			metric.WithDescription("Duration of a full analysis pass in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsFailed = true
			return
		}
		runsTotal, err = meter.Int64Counter(
			"demeter.lint.runs.total",
			metric.WithDescription("Number of completed analysis passes"),
		)
		if err != nil {
			metricsFailed = true
			return
		}
		filesPerRun, err = meter.Int64Histogram(
			"demeter.lint.run.files",
			metric.WithDescription("Source files analyzed per pass"),
		)
		if err != nil {
			metricsFailed = true
			return
		}
		issuesPerRun, err = meter.Int64Histogram(
			"demeter.lint.run.issues",
			metric.WithDescription("Diagnostics emitted per pass"),
		)
		if err != nil {
			metricsFailed = true
		}
	})
}

// recordRun records instruments for one completed pass.
func recordRun(ctx context.Context, d time.Duration, files, issues int) {
	initMetrics()
	if metricsFailed {
		return
	}
	runLatency.Record(ctx, d.Seconds())
	runsTotal.Add(ctx, 1)
	filesPerRun.Record(ctx, int64(files))
	issuesPerRun.Record(ctx, int64(issues))
}
