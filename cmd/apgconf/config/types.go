// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"
)

// CurrentConfigVersion is the schema version this build writes and reads.
// Files with the same major version are accepted.
const CurrentConfigVersion = "v1.0.0"

// ApgconfConfig is the on-disk configuration. Every field is optional; a
// missing file behaves exactly like DefaultConfig().
type ApgconfConfig struct {
	// Meta: schema bookkeeping
	Meta MetaConfig `yaml:"meta"`

	// Output: where and how the compiled configuration is written
	Output OutputConfig `yaml:"output"`

	// Registry: optional replacement for the embedded genus registry
	Registry RegistryConfig `yaml:"registry"`

	// Logging: pkg/logging settings
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry: OpenTelemetry exporters and the Prometheus textfile
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type MetaConfig struct {
	Version string `yaml:"version" validate:"required,semver"`
}

// OutputConfig.Format is "header" (#define lines) or "json".
type OutputConfig struct {
	Path   string `yaml:"path" validate:"required"`
	Format string `yaml:"format" validate:"oneof=header json"`
	Color  string `yaml:"color" validate:"oneof=auto rich plain always never"`
}

type RegistryConfig struct {
	// Path to a genera YAML file; empty uses the embedded registry.
	Path         string        `yaml:"path,omitempty"`
	MatchTimeout time.Duration `yaml:"match_timeout" validate:"gte=0"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty" validate:"omitempty,hostname_port"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`

	// MetricsFile receives a Prometheus textfile after each run.
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() ApgconfConfig {
	return ApgconfConfig{
		Meta: MetaConfig{Version: CurrentConfigVersion},
		Output: OutputConfig{
			Path:   "includes/params.h",
			Format: "header",
			Color:  "auto",
		},
		Registry: RegistryConfig{
			MatchTimeout: time.Second,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
