// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rule

import (
	"regexp"
	"strings"
)

// Spec is a rulestring in canonical form.
//
// Birth/survival rules look like "b3s23". Anything else is an opaque
// lowercase identifier understood only by the genus registry.
type Spec string

// String returns the rulestring.
func (s Spec) String() string {
	return string(s)
}

// Well-known rules with dedicated engine code paths.
const (
	// StandardLife is Conway's Game of Life.
	StandardLife Spec = "b3s23"

	// PedestrianLife adds B8 to Life and shares its GPU kernel.
	PedestrianLife Spec = "b38s23"
)

// maxNeighbours is the largest Moore neighbour count.
const maxNeighbours = 8

var (
	// lifeLikePattern is the strict outer-totalistic grammar. B0 is excluded
	// because the tile representations cannot emulate strobing rules.
	lifeLikePattern = regexp.MustCompile(`^b1?2?3?4?5?6?7?8?s0?1?2?3?4?5?6?7?8?$`)

	// gliderPattern accepts the rules in which the standard glider is known
	// to exist: B3 without B2/B4/B5, and S23 without S1/S4.
	gliderPattern = regexp.MustCompile(`^b36?7?8?s0?235?6?7?8?$`)

	birthFirst    = regexp.MustCompile(`^b([^/s]*)/?s([^/]*)$`)
	survivalFirst = regexp.MustCompile(`^s([^/b]*)/?b([^/]*)$`)
	legacyForm    = regexp.MustCompile(`^([0-9]*)/([0-9]*)$`)
)

// Canonicalize converts a free-form rulestring into its canonical Spec.
//
// # Description
//
// Lowercases the input, removes whitespace, and recognises the three
// birth/survival layouts (b…/s…, s…/b…, and legacy digits-only s/b). When
// both halves are digit sets in 0-8, the digits are sorted and
// de-duplicated. When a half carries letters, the halves are joined
// without reordering. Every other input is returned lowercased.
//
// # Inputs
//
//   - raw: The user-supplied rulestring.
//
// # Outputs
//
//   - Spec: The canonical rulestring. Canonicalize(string(spec)) == spec.
//   - bool: True when the canonical form differs from raw. Callers report
//     this as a warning.
//
// # Example
//
//	spec, changed := rule.Canonicalize("B3/S23")
//	// spec == "b3s23", changed == true
func Canonicalize(raw string) (Spec, bool) {
	s := strings.ToLower(strings.Join(strings.Fields(raw), ""))

	birth, survival, ok := split(s)
	if !ok {
		return Spec(s), s != raw
	}

	canonical := "b" + birth + "s" + survival
	if b, bok := digitSet(birth); bok {
		if sv, sok := digitSet(survival); sok {
			canonical = "b" + b + "s" + sv
		}
	}
	return Spec(canonical), canonical != raw
}

// split separates a lowercase rulestring into its birth and survival halves.
func split(s string) (birth, survival string, ok bool) {
	if m := birthFirst.FindStringSubmatch(s); m != nil {
		return m[1], m[2], true
	}
	if m := survivalFirst.FindStringSubmatch(s); m != nil {
		return m[2], m[1], true
	}
	if m := legacyForm.FindStringSubmatch(s); m != nil {
		return m[2], m[1], true
	}
	return "", "", false
}

// digitSet returns the sorted, de-duplicated neighbour counts in s.
// It reports false if s contains anything other than the digits 0-8.
func digitSet(s string) (string, bool) {
	var seen [maxNeighbours + 1]bool
	for _, r := range s {
		if r < '0' || r > '0'+maxNeighbours {
			return "", false
		}
		seen[r-'0'] = true
	}

	var b strings.Builder
	for n, present := range seen {
		if present {
			b.WriteByte(byte('0' + n))
		}
	}
	return b.String(), true
}

// IsLifeLike reports whether spec is a two-state outer-totalistic Moore
// rule without B0.
func IsLifeLike(spec Spec) bool {
	return lifeLikePattern.MatchString(string(spec))
}

// GlidersGuaranteed reports whether the standard glider is known to travel
// under spec. This only steers search heuristics.
func GlidersGuaranteed(spec Spec) bool {
	return gliderPattern.MatchString(string(spec))
}
