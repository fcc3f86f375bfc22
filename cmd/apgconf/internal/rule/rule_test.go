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
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Canonicalize Tests
// =============================================================================

func TestCanonicalize_LifePermutations(t *testing.T) {
	inputs := []string{"b3s23", "B3/S23", "S23/B3", "b3/s23", "B3S23", "23/3", "b3s32", "b33s223", " B3 / S23 "}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, _ := Canonicalize(in)
			assert.Equal(t, StandardLife, got)
		})
	}
}

func TestCanonicalize_ChangedFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    Spec
		changed bool
	}{
		{"b3s23", "b3s23", false},
		{"B3/S23", "b3s23", true},
		{"b36s23", "b36s23", false},
		{"B36/S23", "b36s23", true},
		{"b2s", "b2s", false},
		{"B2/S", "b2s", true},
		{"b3-jk/s23", "b3-jks23", true},
		{"g4b2s345", "g4b2s345", false},
		{"G4B2S345", "g4b2s345", true},
		{"r2b5t6s4t7", "r2b5t6s4t7", false},
		{"b3s23h", "b3s23h", false},
		{"B0/S8", "b0s8", true},
		{"b9s23", "b9s23", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, changed := Canonicalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"B3/S23", "S23/B3", "23/3", "b3s23", "B36/S23", "b3-jk/s23",
		"S4/B2-a", "G4/B2/S345", "LifeHistory", "b0s8", "b9s23", "x/y/z",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once, _ := Canonicalize(in)
			twice, changed := Canonicalize(string(once))
			assert.Equal(t, once, twice)
			assert.False(t, changed, "canonical form should be stable")
		})
	}
}

func TestCanonicalize_OpaquePassthrough(t *testing.T) {
	got, changed := Canonicalize("LifeHistory")
	assert.Equal(t, Spec("lifehistory"), got)
	assert.True(t, changed)
}

// =============================================================================
// Grammar Tests
// =============================================================================

func TestIsLifeLike(t *testing.T) {
	tests := []struct {
		spec Spec
		want bool
	}{
		{"b3s23", true},
		{"b36s23", true},
		{"b2s", true},
		{"b12345678s012345678", true},
		{"b0s8", false},
		{"b3-jks23", false},
		{"b3s23h", false},
		{"g4b2s345", false},
		{"b32s23", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.spec), func(t *testing.T) {
			assert.Equal(t, tt.want, IsLifeLike(tt.spec))
		})
	}
}

func TestGlidersGuaranteed(t *testing.T) {
	tests := []struct {
		spec Spec
		want bool
	}{
		{"b3s23", true},
		{"b38s23", true},
		{"b36s23", true},
		{"b3678s0235678", true},
		{"b3s234", false},
		{"b34s23", false},
		{"b2s23", false},
		{"b3s3", false},
		{"b3s123", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.spec), func(t *testing.T) {
			assert.Equal(t, tt.want, GlidersGuaranteed(tt.spec))
		})
	}
}
