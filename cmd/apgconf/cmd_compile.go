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
	"time"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/params"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// runCompile is the root command: compile the positional arguments and
// write the result.
func (a *app) runCompile(cmd *cobra.Command, args []string) error {
	req, err := params.ParseArgs(args)
	if err != nil {
		a.metrics.RecordCompile(cmd.Context(), telemetry.OutcomeUsage, "", 0)
		if errors.Is(err, params.ErrMissingRule) {
			a.printer.Usage(cmd.Root().Name())
			return &CommandError{Command: "compile", ExitCode: ExitUsage, Wrapped: err, Reported: true}
		}
		return err
	}
	return a.compileAndWrite(cmd.Context(), req)
}

// compileAndWrite runs one full compilation. Nothing is written unless
// every stage succeeds.
func (a *app) compileAndWrite(ctx context.Context, req params.Request) error {
	ctx, span := a.telemetry.Tracer(params.TracerName).Start(ctx, "apgconf.compile",
		trace.WithAttributes(attribute.String("apgconf.run_id", a.logger.RunID())))
	defer span.End()

	start := time.Now()
	err := a.compileOnce(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	a.metrics.RecordCompile(ctx, outcomeFor(err), req.Target.String(), time.Since(start))
	return err
}

func (a *app) compileOnce(ctx context.Context, req params.Request) error {
	registry, err := a.loadRegistry()
	if err != nil {
		return err
	}

	compiler := params.NewCompiler(registry,
		params.WithLogger(a.logger.Slog()),
		params.WithTracer(a.telemetry.Tracer(params.TracerName)),
		params.WithVersion(version),
		params.WithObserver(&traceObserver{
			ctx:     ctx,
			printer: a.printer,
			metrics: a.metrics,
			verbose: a.flags.verbose,
		}),
	)

	cfg, err := compiler.Compile(ctx, req)
	if err != nil {
		a.logger.Error("compile failed", "rule", req.Rule, "symmetry", req.Symmetry, "error", err)
		return err
	}

	sink, dest := a.sink()
	if err := sink.Write(ctx, cfg); err != nil {
		return NewCommandError("compile", ExitFailure, fmt.Errorf("writing %s: %w", dest, err))
	}
	traceID := telemetry.TraceID(ctx)
	a.logger.Info("configuration written",
		"trace_id", traceID,
		"path", dest,
		"rule", cfg.Rule,
		"symmetry", cfg.Symmetry,
		"genus", cfg.Genus.Name,
		"canonicalized", cfg.Canonicalized(),
		"definitions", len(cfg.Definitions),
	)
	a.logger.Debug("definitions emitted", "names", cfg.Names())

	if a.flags.verbose {
		a.printer.Wrote(dest)
		if traceID != "" {
			a.printer.TraceID(traceID)
		}
	}
	a.printer.Success()
	return nil
}
