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
	"fmt"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
)

// IsotropicGenus names the compatibility genus behind the ikpx2 check.
const IsotropicGenus = "isotropic"

// Resolver determines the unique genus of a rule.
type Resolver struct {
	registry Registry
}

// NewResolver returns a Resolver backed by registry.
func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the genus of spec.
//
// # Description
//
// When requireIsotropic is set, spec must first belong to the isotropic
// genus; this stricter test runs before ordinary resolution. Ordinary
// resolution ignores compatibility-only genera and demands exactly one
// match.
//
// # Inputs
//
//   - spec: Canonical rulestring.
//   - requireIsotropic: True when the symmetry selects the ikpx2 mode.
//
// # Outputs
//
//   - Genus: The single matching genus.
//   - error: ErrNotIsotropic (wrapped) when the isotropic check fails;
//     *MatchError wrapping ErrNoGenus or ErrAmbiguousGenus when the
//     registry cannot classify spec; ErrIsotropicGenusMissing or a
//     *PatternError when the registry itself is broken.
func (r *Resolver) Resolve(spec rule.Spec, requireIsotropic bool) (Genus, error) {
	if requireIsotropic {
		isotropic, err := r.IsIsotropic(spec)
		if err != nil {
			return Genus{}, err
		}
		if !isotropic {
			return Genus{}, fmt.Errorf("%w: %s", ErrNotIsotropic, spec)
		}
	}

	all, err := r.registry.Lookup(spec)
	if err != nil {
		return Genus{}, err
	}

	var matches []Genus
	for _, g := range all {
		if !g.CompatibilityOnly {
			matches = append(matches, g)
		}
	}

	switch len(matches) {
	case 0:
		return Genus{}, &MatchError{Rule: spec, Err: ErrNoGenus}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, g := range matches {
			names[i] = g.Name
		}
		return Genus{}, &MatchError{Rule: spec, Matches: names, Err: ErrAmbiguousGenus}
	}
}

// IsIsotropic reports whether spec belongs to the isotropic genus. It
// satisfies symmetry.IsotropyChecker.
func (r *Resolver) IsIsotropic(spec rule.Spec) (bool, error) {
	if n := len(r.registry.Named(IsotropicGenus)); n != 1 {
		return false, fmt.Errorf("%w: found %d", ErrIsotropicGenusMissing, n)
	}

	matches, err := r.registry.Lookup(spec)
	if err != nil {
		return false, err
	}
	for _, g := range matches {
		if g.Name == IsotropicGenus {
			return true, nil
		}
	}
	return false, nil
}
