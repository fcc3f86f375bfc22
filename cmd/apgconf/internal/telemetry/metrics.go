// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Compile outcomes recorded by RecordCompile.
const (
	OutcomeSuccess    = "success"
	OutcomeUsage      = "usage_error"
	OutcomeValidation = "validation_error"
	OutcomeRegistry   = "registry_error"
	OutcomeInternal   = "internal_error"
)

// Metrics holds the compiler's instruments.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// CompilesTotal counts compilations by outcome and target.
	CompilesTotal metric.Int64Counter

	// CompileDuration records end-to-end compilation time in seconds.
	CompileDuration metric.Float64Histogram

	// GenusTotal counts resolved genera by name and family.
	GenusTotal metric.Int64Counter

	// CanonicalizedTotal counts rules rewritten by canonicalization.
	CanonicalizedTotal metric.Int64Counter
}

// NewMetrics registers the compiler's instruments with meter.
//
// # Example
//
//	metrics, err := telemetry.NewMetrics(provider.Meter("apgconf"))
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.CompilesTotal, err = meter.Int64Counter(
		"apgconf_compiles",
		metric.WithDescription("Total configuration compilations"),
		metric.WithUnit("{compile}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create compiles counter: %w", err)
	}

	m.CompileDuration, err = meter.Float64Histogram(
		"apgconf_compile_duration",
		metric.WithDescription("Configuration compilation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("create compile duration histogram: %w", err)
	}

	m.GenusTotal, err = meter.Int64Counter(
		"apgconf_genus_resolutions",
		metric.WithDescription("Resolved rule genera"),
		metric.WithUnit("{rule}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create genus counter: %w", err)
	}

	m.CanonicalizedTotal, err = meter.Int64Counter(
		"apgconf_rules_canonicalized",
		metric.WithDescription("Rules rewritten to canonical form"),
		metric.WithUnit("{rule}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create canonicalized counter: %w", err)
	}

	return m, nil
}

// RecordCompile records one compilation.
func (m *Metrics) RecordCompile(ctx context.Context, outcome, target string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("target", target),
	)
	m.CompilesTotal.Add(ctx, 1, attrs)
	m.CompileDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordGenus records a resolved genus.
func (m *Metrics) RecordGenus(ctx context.Context, name string, family int) {
	m.GenusTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("genus", name),
		attribute.Int("family", family),
	))
}

// RecordCanonicalized records a rewritten rule.
func (m *Metrics) RecordCanonicalized(ctx context.Context) {
	m.CanonicalizedTotal.Add(ctx, 1)
}
