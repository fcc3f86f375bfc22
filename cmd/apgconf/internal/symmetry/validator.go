// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symmetry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
)

// Sentinel errors returned by validators.
var (
	ErrUnknownSymmetry          = errors.New("unknown symmetry")
	ErrReflectionNeedsIsotropic = errors.New("reflecting symmetries require an isotropic rule")
	ErrGPUNeedsLifeLike         = errors.New("GPU symmetries require a life-like rule")
)

// Validator checks that a symmetry is legal for a rule.
//
// Validation is owned by the engine's tooling; apgconf consumes it through
// this interface and aborts on any error.
type Validator interface {
	Validate(spec rule.Spec, token Token) error
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(spec rule.Spec, token Token) error

// Validate calls f(spec, token).
func (f ValidatorFunc) Validate(spec rule.Spec, token Token) error {
	return f(spec, token)
}

// IsotropyChecker reports whether a rule is isotropic. The genus resolver
// implements it from the registry's isotropic genus.
type IsotropyChecker interface {
	IsIsotropic(spec rule.Spec) (bool, error)
}

// catalog lists the groups the engine ships soup generators for.
var catalog = map[Token]struct{}{
	"C1": {}, "C2_1": {}, "C2_2": {}, "C2_4": {}, "C4_1": {}, "C4_4": {},
	"D2_+1": {}, "D2_+2": {}, "D2_x": {},
	"D4_+1": {}, "D4_+2": {}, "D4_+4": {}, "D4_x1": {}, "D4_x4": {},
	"D8_1": {}, "D8_4": {},
	"G1": {}, "G2_1": {}, "G2_2": {}, "G2_4": {},
	"H2_+1": {}, "H2_+2": {}, "H4_+1": {}, "H4_+2": {}, "H4_+4": {},
}

// largeSuffixes may follow a catalog group to request a larger domain.
var largeSuffixes = []string{"_64x64", "_128x128", "_256x256", "_512x512", "_1k", "_2k", "_4k", "_8k"}

// Catalog returns the known symmetry groups in sorted order.
func Catalog() []Token {
	tokens := make([]Token, 0, len(catalog))
	for t := range catalog {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

// CatalogValidator is the default Validator.
//
// # Description
//
// Accepts every catalog group, optionally followed by a large-domain suffix,
// plus any streaming ("stdin") token and any ikpx2 token. Reflecting groups
// (D and H classes) additionally need an isotropic rule, and GPU groups (G
// and H classes) need a life-like rule.
//
// # Thread Safety
//
// Safe for concurrent use if the IsotropyChecker is.
type CatalogValidator struct {
	isotropy IsotropyChecker
}

// NewCatalogValidator returns a validator that consults isotropy for
// reflecting groups.
func NewCatalogValidator(isotropy IsotropyChecker) *CatalogValidator {
	return &CatalogValidator{isotropy: isotropy}
}

// Validate implements Validator.
func (v *CatalogValidator) Validate(spec rule.Spec, token Token) error {
	if token.IsStreaming() || strings.HasPrefix(string(token), "ikpx2") {
		return nil
	}

	base := trimLargeSuffix(token)
	if _, ok := catalog[base]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSymmetry, token)
	}

	if base.IsGPU() && !rule.IsLifeLike(spec) {
		return fmt.Errorf("%w: %s under %s", ErrGPUNeedsLifeLike, spec, token)
	}

	if base.IsReflecting() {
		isotropic, err := v.isotropy.IsIsotropic(spec)
		if err != nil {
			return fmt.Errorf("checking isotropy of %s: %w", spec, err)
		}
		if !isotropic {
			return fmt.Errorf("%w: %s under %s", ErrReflectionNeedsIsotropic, spec, token)
		}
	}
	return nil
}

// trimLargeSuffix strips one large-domain suffix from t.
func trimLargeSuffix(t Token) Token {
	for _, suffix := range largeSuffixes {
		if strings.HasSuffix(string(t), suffix) {
			return Token(strings.TrimSuffix(string(t), suffix))
		}
	}
	return t
}
