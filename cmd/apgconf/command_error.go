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
	"errors"
	"fmt"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/params"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/telemetry"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitValidation = 2
	ExitRegistry   = 3

	// ExitFailure covers everything else: unreadable config, I/O errors
	// writing the header, telemetry setup.
	ExitFailure = 4
)

// CommandError wraps a failed subcommand with the exit code it maps to.
//
// # Description
//
// Errors returned by compile stages are classified once, where they are
// produced, so main only needs errors.As to pick the exit code.
//
// # Example
//
//	err := NewCommandError("compile", ExitValidation, validationErr)
//	fmt.Println(err.Error()) // "compile (exit 2): invalid symmetry D8_1 for rule b3s23: ..."
type CommandError struct {
	// Command is the subcommand that failed.
	Command string

	// ExitCode is the process exit code to use.
	ExitCode int

	// Wrapped is the underlying error.
	Wrapped error

	// Reported is set when the failure was already shown to the user.
	Reported bool
}

// Error returns a formatted error message.
func (e *CommandError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// NewCommandError creates a CommandError, classifying wrapped when code
// is negative.
func NewCommandError(cmd string, code int, wrapped error) *CommandError {
	if code < 0 {
		code = exitCodeFor(wrapped)
	}
	return &CommandError{Command: cmd, ExitCode: code, Wrapped: wrapped}
}

// exitCodeFor maps a compile error to its exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}

	var (
		usageErr      *params.UsageError
		validationErr *params.ValidationError
		registryErr   *params.RegistryConsistencyError
	)
	switch {
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.As(err, &validationErr):
		return ExitValidation
	case errors.As(err, &registryErr):
		return ExitRegistry
	default:
		return ExitFailure
	}
}

// outcomeFor maps a compile error to its metrics label.
func outcomeFor(err error) string {
	switch exitCodeFor(err) {
	case ExitOK:
		return telemetry.OutcomeSuccess
	case ExitUsage:
		return telemetry.OutcomeUsage
	case ExitValidation:
		return telemetry.OutcomeValidation
	case ExitRegistry:
		return telemetry.OutcomeRegistry
	default:
		return telemetry.OutcomeInternal
	}
}
