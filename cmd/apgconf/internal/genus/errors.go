// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package genus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
)

// Sentinel errors for genus resolution.
var (
	// Rule errors
	ErrNotIsotropic = errors.New("rule is not an isotropic 2-state Moore-neighbourhood rule")

	// Registry consistency errors
	ErrNoGenus               = errors.New("no genus matches rule")
	ErrAmbiguousGenus        = errors.New("more than one genus matches rule")
	ErrIsotropicGenusMissing = errors.New("registry must define exactly one isotropic genus")

	// Registry loading errors
	ErrEmptyRegistry  = errors.New("registry defines no genera")
	ErrInvalidGenus   = errors.New("invalid genus definition")
	ErrDuplicateGenus = errors.New("duplicate genus name")
)

// MatchError reports a rule whose genus could not be determined uniquely.
type MatchError struct {
	Rule    rule.Spec
	Matches []string // Names of every matching genus
	Err     error    // ErrNoGenus or ErrAmbiguousGenus
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Rule)
	}
	return fmt.Sprintf("%v: %s (%s)", e.Err, e.Rule, strings.Join(e.Matches, ", "))
}

// Unwrap returns the underlying sentinel.
func (e *MatchError) Unwrap() error {
	return e.Err
}

// PatternError wraps a failure to compile or evaluate a genus pattern.
type PatternError struct {
	Genus string
	Err   error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("genus %s pattern: %v", e.Genus, e.Err)
}

// Unwrap returns the underlying error.
func (e *PatternError) Unwrap() error {
	return e.Err
}
