// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry tracing and metrics for apgconf.
//
// A compile is a single short-lived process, so nothing is scraped. Spans go
// to stderr (stdout exporter) or an OTLP collector, and metrics are gathered
// into a private Prometheus registry that the CLI dumps to a textfile for the
// node exporter's textfile collector.
//
// # Usage
//
//	p, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer p.Shutdown(ctx)
//
//	metrics, _ := telemetry.NewMetrics(p.Meter("apgconf"))
//	metrics.RecordCompile(ctx, telemetry.OutcomeSuccess, "cpu", elapsed)
//	_ = p.WriteTextfile("/var/lib/node_exporter/apgconf.prom")
//
// # Environment Variables
//
//   - OTEL_TRACES_EXPORTER: stdout, otlp or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout or none (default: prometheus)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
package telemetry
