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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AleutianAI/apgconf/cmd/apgconf/config"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/genus"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/params"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/telemetry"
	"github.com/AleutianAI/apgconf/pkg/logging"
	"github.com/AleutianAI/apgconf/pkg/ux"
	"github.com/spf13/cobra"
)

// version is set at link time: -ldflags "-X main.version=v1.2.3".
var version = "dev"

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath  string
	output      string
	registry    string
	dryRun      bool
	json        bool
	logLevel    string
	metricsFile string
	trace       string
	color       string
	verbose     bool
}

// app carries the per-invocation dependencies built in setup.
//
// # Thread Safety
//
// Not safe for concurrent use; one app serves one command execution.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg          config.ApgconfConfig
	configSource string
	logger       *logging.Logger
	telemetry    *telemetry.Provider
	metrics      *telemetry.Metrics

	// printer writes the compile trace. It targets stderr whenever stdout
	// carries the configuration itself.
	printer *ux.Printer

	// errPrinter reports failures on stderr.
	errPrinter *ux.Printer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

// setup resolves configuration and builds the logger, telemetry, and
// printers. It runs before every subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	mode, err := ux.ParseMode(a.flags.color)
	if err != nil {
		return &params.UsageError{Message: "--color", Err: err}
	}
	a.errPrinter = ux.NewPrinter(a.stderr, mode)

	cfg, source, err := config.Load(a.flags.configPath)
	if err != nil {
		return NewCommandError("config", ExitFailure, err)
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return &params.UsageError{Message: "invalid flag value", Err: err}
	}
	a.cfg = cfg
	a.configSource = source

	if !cmd.Flags().Changed("color") {
		if mode, err = ux.ParseMode(cfg.Output.Color); err != nil {
			return NewCommandError("config", ExitFailure, err)
		}
		a.errPrinter = ux.NewPrinter(a.stderr, mode)
	}
	traceOut := a.stdout
	if a.flags.dryRun || a.flags.json {
		traceOut = a.stderr
	}
	a.printer = ux.NewPrinter(traceOut, mode)

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return &params.UsageError{Message: "--log-level", Err: err}
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "apgconf",
		JSON:    cfg.Logging.JSON,
		Writer:  a.stderr,
	})
	if source != "" {
		a.logger.Debug("config loaded", "path", source)
	}
	a.logger.Debug("output mode", "trace", a.printer.Mode(), "errors", a.errPrinter.Mode())

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version
	tcfg.Output = a.stderr
	tcfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	if os.Getenv("OTEL_TRACES_EXPORTER") == "" || cmd.Flags().Changed("trace") {
		tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	}
	if os.Getenv("OTEL_METRICS_EXPORTER") == "" {
		tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" && cfg.Telemetry.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}

	a.telemetry, err = telemetry.Init(cmd.Context(), tcfg)
	if err != nil {
		return NewCommandError("telemetry", ExitFailure, err)
	}
	a.metrics, err = telemetry.NewMetrics(a.telemetry.Meter(params.TracerName))
	if err != nil {
		return NewCommandError("telemetry", ExitFailure, err)
	}
	return nil
}

// applyFlags layers explicitly set flags over the loaded configuration.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.ApgconfConfig) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path = a.flags.output
	}
	if flags.Changed("registry") {
		cfg.Registry.Path = a.flags.registry
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.flags.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = a.flags.metricsFile
	}
	if flags.Changed("trace") {
		cfg.Telemetry.TraceExporter = a.flags.trace
	}
	if flags.Changed("color") {
		cfg.Output.Color = a.flags.color
	}
	if a.flags.verbose && !flags.Changed("log-level") {
		cfg.Logging.Level = "debug"
	}
}

// close flushes metrics and telemetry and closes the log file. It is safe
// to call when setup failed part way.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.telemetry != nil {
		if path := a.cfg.Telemetry.MetricsFile; path != "" {
			if err := a.telemetry.WriteTextfile(path); err != nil && !errors.Is(err, telemetry.ErrNoPrometheus) {
				errs = append(errs, fmt.Errorf("writing metrics file: %w", err))
			}
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadRegistry returns the configured genus registry. A registry that
// cannot be loaded is a consistency failure, not a user error.
func (a *app) loadRegistry() (*genus.YAMLRegistry, error) {
	var (
		reg *genus.YAMLRegistry
		err error
	)
	if path := a.cfg.Registry.Path; path != "" {
		reg, err = genus.LoadFile(path, a.cfg.Registry.MatchTimeout)
	} else {
		reg, err = genus.LoadDefault()
	}
	if err != nil {
		return nil, &params.RegistryConsistencyError{Err: err}
	}
	a.logger.Debug("registry loaded", "path", a.cfg.Registry.Path, "version", reg.Version(), "genera", len(reg.Genera()))
	return reg, nil
}

// sink picks where the compiled configuration goes.
func (a *app) sink() (params.Sink, string) {
	switch {
	case a.flags.json:
		return &params.WriterSink{W: a.stdout, Format: params.FormatJSON}, "stdout"
	case a.flags.dryRun:
		return &params.WriterSink{W: a.stdout, Format: params.FormatHeader}, "stdout"
	}
	format := params.FormatHeader
	if a.cfg.Output.Format == "json" {
		format = params.FormatJSON
	}
	return &params.HeaderSink{Path: a.cfg.Output.Path, Format: format}, a.cfg.Output.Path
}

// =============================================================================
// Compile Observer
// =============================================================================

// traceObserver prints compile progress and records metrics.
type traceObserver struct {
	ctx     context.Context
	printer *ux.Printer
	metrics *telemetry.Metrics
	verbose bool
}

func (o *traceObserver) RuleCanonicalized(raw string, canonical rule.Spec) {
	o.printer.RuleInterpreted(raw, canonical.String())
	o.metrics.RecordCanonicalized(o.ctx)
}

func (o *traceObserver) SymmetryValidated(token symmetry.Token) {
	o.printer.ValidSymmetry(token.String())
}

func (o *traceObserver) GenusResolved(_ rule.Spec, g genus.Genus) {
	o.metrics.RecordGenus(o.ctx, g.Name, g.Family)
	if o.verbose {
		o.printer.Genus(g.Name, g.Family, g.Bitplanes)
	}
}

var _ params.Observer = (*traceObserver)(nil)
