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
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/params"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree for one invocation.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "apgconf <rule> <symmetry> [gpu] [max_population max_generation]",
		Short: "Compile a rule and symmetry into search-engine build parameters",
		Long: `apgconf derives the build configuration of the soup search engine
from a cellular-automaton rule, a symmetry group and a hardware target, and
writes it as #define lines to includes/params.h.

  apgconf b3s23 C1
  apgconf B36/S23 D2_+1 true
  apgconf b3s23 C1 false 10000 100000`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: a.runCompile,
	}

	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &params.UsageError{Message: "invalid flags", Err: err}
	})

	f := rootCmd.PersistentFlags()
	f.StringVar(&a.flags.configPath, "config", "", "config file (default ~/.apgconf/apgconf.yaml, or $APGCONF_CONFIG)")
	f.StringVarP(&a.flags.output, "output", "o", params.DefaultHeaderPath, "header file to write")
	f.StringVar(&a.flags.registry, "registry", "", "genus registry YAML file (default: embedded registry)")
	f.BoolVar(&a.flags.dryRun, "dry-run", false, "print the header to stdout instead of writing it")
	f.BoolVar(&a.flags.json, "json", false, "print machine-readable JSON to stdout")
	f.StringVar(&a.flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	f.StringVar(&a.flags.trace, "trace", "none", "trace exporter: none, stdout, otlp")
	f.Lookup("trace").NoOptDefVal = "stdout"
	f.StringVar(&a.flags.color, "color", "auto", "colorize output: auto, rich, plain")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "print the resolved genus and debug logs")

	rootCmd.AddCommand(
		newGeneraCmd(a),
		newSymmetriesCmd(a),
		newVersionCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}
