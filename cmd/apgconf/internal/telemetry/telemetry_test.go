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
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := DefaultConfig()
	assert.Equal(t, "apgconf", cfg.ServiceName)
	assert.Equal(t, ExporterNone, cfg.TraceExporter)
	assert.Equal(t, ExporterPrometheus, cfg.MetricExporter)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, os.Stderr, cfg.Output)
}

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("OTEL_METRICS_EXPORTER", "none")

	cfg := DefaultConfig()
	assert.Equal(t, ExporterStdout, cfg.TraceExporter)
	assert.Equal(t, ExporterNone, cfg.MetricExporter)
}

// =============================================================================
// Init Tests
// =============================================================================

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, Config{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_Noop(t *testing.T) {
	p, err := Init(context.Background(), Config{TraceExporter: ExporterNone, MetricExporter: ExporterNone})
	require.NoError(t, err)

	assert.ErrorIs(t, p.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")), ErrNoPrometheus)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{TraceExporter: "jaeger-thrift"})
	assert.ErrorIs(t, err, ErrUnknownExporter)

	_, err = Init(context.Background(), Config{MetricExporter: "statsd"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
}

func TestInit_StdoutTrace(t *testing.T) {
	var buf bytes.Buffer
	p, err := Init(context.Background(), Config{
		ServiceName:    "apgconf-test",
		TraceExporter:  ExporterStdout,
		MetricExporter: ExporterNone,
		Output:         &buf,
	})
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "compile-under-test")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "compile-under-test")
	assert.Contains(t, buf.String(), "apgconf-test")
}

func TestInit_StdoutMetrics(t *testing.T) {
	var buf bytes.Buffer
	p, err := Init(context.Background(), Config{
		TraceExporter:  ExporterNone,
		MetricExporter: ExporterStdout,
		Output:         &buf,
	})
	require.NoError(t, err)

	m, err := NewMetrics(p.Meter("test"))
	require.NoError(t, err)
	m.RecordCanonicalized(context.Background())
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "apgconf_rules_canonicalized")
}

// =============================================================================
// Prometheus Textfile Tests
// =============================================================================

func TestWriteTextfile(t *testing.T) {
	p, err := Init(context.Background(), Config{TraceExporter: ExporterNone, MetricExporter: ExporterPrometheus})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := NewMetrics(p.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCompile(ctx, OutcomeSuccess, "cpu", 3*time.Millisecond)
	m.RecordCompile(ctx, OutcomeValidation, "gpu", time.Millisecond)
	m.RecordGenus(ctx, "lifelike", 0)
	m.RecordCanonicalized(ctx)

	path := filepath.Join(t.TempDir(), "apgconf.prom")
	require.NoError(t, p.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "apgconf_compiles")
	assert.Contains(t, text, `outcome="success"`)
	assert.Contains(t, text, `outcome="validation_error"`)
	assert.Contains(t, text, "apgconf_compile_duration")
	assert.Contains(t, text, `genus="lifelike"`)
	assert.Contains(t, text, "apgconf_rules_canonicalized")
}

// =============================================================================
// Tracing Helper Tests
// =============================================================================

func TestTraceID(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.Len(t, TraceID(ctx), 32)
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Same(t, logger, LoggerWithTrace(context.Background(), logger))
	assert.NotNil(t, LoggerWithTrace(context.Background(), nil))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	LoggerWithTrace(ctx, logger).Info("hello")
	assert.Contains(t, buf.String(), "trace_id="+TraceID(ctx))
	assert.Contains(t, buf.String(), "span_id=")
}
