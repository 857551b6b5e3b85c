// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coupling

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for coupling analysis.
var meter = otel.Meter("demeter.coupling")

// Metrics for coupling analysis operations.
var (
	callsChecked   metric.Int64Counter
	scopesAnalyzed metric.Int64Counter
	violationCount metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		callsChecked, err = meter.Int64Counter(
			"coupling_calls_checked_total",
			metric.WithDescription("Call nodes checked, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		scopesAnalyzed, err = meter.Int64Counter(
			"coupling_scopes_analyzed_total",
			metric.WithDescription("Function scopes analyzed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationCount, err = meter.Int64Histogram(
			"coupling_violations_per_scope",
			metric.WithDescription("Violations emitted per analyzed scope"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordCallChecked records one call-node check outcome
// (excluded, chain, stranger, unstable, clean).
func recordCallChecked(ctx context.Context, outcome string) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	callsChecked.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// recordScopeAnalyzed records one completed function-scope walk.
func recordScopeAnalyzed(ctx context.Context, violations int) {
	if err := initMetrics(); err != nil {
		return
	}
	scopesAnalyzed.Add(ctx, 1)
	violationCount.Record(ctx, int64(violations))
}
