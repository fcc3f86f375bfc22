// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
)

// Sentinel errors for request construction.
var (
	ErrMissingLimit = errors.New("max_population and max_generation must be given together")
	ErrInvalidLimit = errors.New("limits must be positive integers")
	ErrInvalidGPU   = errors.New("gpu flag must be true or false")
	ErrMissingRule  = errors.New("rule is required")
	ErrMissingSym   = errors.New("symmetry is required")
)

// UsageError reports malformed invocation input. Nothing is written.
//
// # Example
//
//	var usageErr *UsageError
//	if errors.As(err, &usageErr) {
//	    os.Exit(1)
//	}
type UsageError struct {
	// Message is the human-readable problem description.
	Message string

	// Err is the underlying sentinel or parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error.
func (e *UsageError) Unwrap() error {
	return e.Err
}

// ValidationError reports a rule and symmetry the engine cannot run,
// including the isotropic precondition of ikpx2 symmetries.
type ValidationError struct {
	Rule     rule.Spec
	Symmetry symmetry.Token
	Err      error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid symmetry %s for rule %s: %v", e.Symmetry, e.Rule, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RegistryConsistencyError reports a registry that cannot classify a rule
// uniquely, or that lacks the genera the compiler depends on.
type RegistryConsistencyError struct {
	Rule    rule.Spec
	Matches []string
	Err     error
}

// Error implements the error interface.
func (e *RegistryConsistencyError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("genus registry unusable: %v", e.Err)
	}
	if len(e.Matches) == 0 {
		return fmt.Sprintf("genus registry inconsistent for rule %s: %v", e.Rule, e.Err)
	}
	return fmt.Sprintf("genus registry inconsistent for rule %s (matches: %s): %v",
		e.Rule, strings.Join(e.Matches, ", "), e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistryConsistencyError) Unwrap() error {
	return e.Err
}
