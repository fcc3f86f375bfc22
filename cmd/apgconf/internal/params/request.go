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
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
	"github.com/go-playground/validator/v10"
)

// Limits bounds a space-invaders search. A nil *Limits means no limits.
type Limits struct {
	MaxPopulation int `json:"max_population" validate:"gt=0"`
	MaxGeneration int `json:"max_generation" validate:"gt=0"`
}

// Request is one compilation input.
//
// # Fields
//
//   - Rule: Free-form rulestring; canonicalized during compilation.
//   - Symmetry: Symmetry as requested, before GPU renaming.
//   - Target: Hardware the engine is built for.
//   - Limits: Optional space-invaders limits.
type Request struct {
	Rule     string          `json:"rule" validate:"required"`
	Symmetry string          `json:"symmetry" validate:"required"`
	Target   symmetry.Target `json:"target" validate:"oneof=0 1"`
	Limits   *Limits         `json:"limits,omitempty" validate:"omitempty"`
}

var requestValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. Failures are reported as *UsageError.
// A rule or symmetry made only of whitespace counts as missing.
func (r Request) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return &UsageError{Message: "invalid request", Err: mapValidationError(err)}
	}
	if strings.TrimSpace(r.Rule) == "" {
		return &UsageError{Message: "rule is blank", Err: ErrMissingRule}
	}
	if strings.TrimSpace(r.Symmetry) == "" {
		return &UsageError{Message: "symmetry is blank", Err: ErrMissingSym}
	}
	return nil
}

// mapValidationError converts validator output into package sentinels
// where one fits.
func mapValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	switch first.Field() {
	case "Rule":
		return ErrMissingRule
	case "Symmetry":
		return ErrMissingSym
	case "MaxPopulation", "MaxGeneration":
		return fmt.Errorf("%w: %s=%v", ErrInvalidLimit, first.Field(), first.Value())
	default:
		return err
	}
}

// ParseArgs builds a Request from positional arguments:
//
//	<rule> <symmetry> [gpu] [max_population max_generation]
//
// # Description
//
// The gpu argument must be "true" or "false". Limits are accepted only as
// a pair and only after the gpu argument. Every failure is a *UsageError.
//
// # Example
//
//	req, err := ParseArgs([]string{"B3/S23", "C1", "true"})
//	// req.Target == symmetry.TargetGPU
func ParseArgs(args []string) (Request, error) {
	if len(args) < 2 {
		return Request{}, &UsageError{Message: "expected at least <rule> <symmetry>", Err: ErrMissingRule}
	}
	if len(args) > 5 {
		return Request{}, &UsageError{Message: fmt.Sprintf("expected at most 5 arguments, got %d", len(args))}
	}

	req := Request{Rule: args[0], Symmetry: args[1], Target: symmetry.TargetCPU}

	if len(args) >= 3 {
		switch args[2] {
		case "true":
			req.Target = symmetry.TargetGPU
		case "false":
		default:
			return Request{}, &UsageError{Message: fmt.Sprintf("gpu argument %q", args[2]), Err: ErrInvalidGPU}
		}
	}

	switch len(args) {
	case 4:
		return Request{}, &UsageError{Err: ErrMissingLimit}
	case 5:
		limits, err := parseLimits(args[3], args[4])
		if err != nil {
			return Request{}, err
		}
		req.Limits = limits
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func parseLimits(pop, gen string) (*Limits, error) {
	maxPop, err := strconv.Atoi(pop)
	if err != nil {
		return nil, &UsageError{Message: fmt.Sprintf("max_population %q", pop), Err: ErrInvalidLimit}
	}
	maxGen, err := strconv.Atoi(gen)
	if err != nil {
		return nil, &UsageError{Message: fmt.Sprintf("max_generation %q", gen), Err: ErrInvalidLimit}
	}
	return &Limits{MaxPopulation: maxPop, MaxGeneration: maxGen}, nil
}
