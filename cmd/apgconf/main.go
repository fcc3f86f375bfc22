// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command apgconf compiles a cellular-automaton rule, symmetry group and
// hardware target into the engine's params.h build configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/apgconf/pkg/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := a.close(context.WithoutCancel(ctx)); closeErr != nil {
		fmt.Fprintf(stderr, "apgconf: %v\n", closeErr)
	}
	if err == nil {
		return ExitOK
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || !cmdErr.Reported {
		p := a.errPrinter
		if p == nil {
			p = ux.NewPrinter(stderr, ux.ModeAuto)
		}
		p.Error(err)
	}
	return exitCodeFor(err)
}
