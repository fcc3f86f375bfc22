// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symmetry resolves symmetry tokens for a hardware target.
//
// A symmetry token names the group under which seeded soups are invariant,
// e.g. "C1", "D2_+1" or "stdin". The GPU kernels use their own naming for
// the same groups: the leading class letter C becomes G and D becomes H.
// The rewrite changes which engine code path is selected, never the group.
package symmetry

import (
	"strings"
)

// =============================================================================
// Hardware Target
// =============================================================================

// Target is the hardware the engine is built for.
type Target int

const (
	// TargetCPU builds the engine for CPU-only search.
	TargetCPU Target = iota

	// TargetGPU enables the GPU soup-searching kernels.
	TargetGPU
)

// String returns "cpu" or "gpu".
func (t Target) String() string {
	if t == TargetGPU {
		return "gpu"
	}
	return "cpu"
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// =============================================================================
// Tokens
// =============================================================================

// Token is a resolved symmetry identifier.
type Token string

// String returns the token text.
func (t Token) String() string {
	return string(t)
}

// gpuClasses maps CPU class letters to their GPU counterparts.
var gpuClasses = map[byte]byte{
	'C': 'G',
	'D': 'H',
}

// Resolve maps a requested symmetry onto its name for target.
//
// # Description
//
// Under TargetGPU a token beginning with C or D has that letter replaced by
// G or H; the rest of the token is preserved. Every other token, and every
// token under TargetCPU, is returned unchanged. The rewrite is applied once:
// a token that already starts with G or H is never rewritten again.
//
// # Example
//
//	Resolve("D2_+1", TargetGPU) // "H2_+1"
//	Resolve("stdin", TargetGPU) // "stdin"
//	Resolve("C1", TargetCPU)    // "C1"
func Resolve(raw string, target Target) Token {
	if target != TargetGPU || raw == "" {
		return Token(raw)
	}
	if class, ok := gpuClasses[raw[0]]; ok {
		return Token(string(class) + raw[1:])
	}
	return Token(raw)
}

// largeDomains are the token fragments naming square domains from 64x64 up
// to 8192x8192.
var largeDomains = []string{"64x64", "128x128", "256x256", "512x512", "_1k", "_2k", "_4k", "_8k"}

// IsTrivial reports whether t is the trivial group under either naming.
func (t Token) IsTrivial() bool {
	return t == "C1" || t == "G1"
}

// IsStreaming reports whether the engine reads soups from standard input
// instead of generating them.
func (t Token) IsStreaming() bool {
	return strings.Contains(string(t), "stdin")
}

// IsLarge reports whether t names one of the large square domains.
func (t Token) IsLarge() bool {
	for _, frag := range largeDomains {
		if strings.Contains(string(t), frag) {
			return true
		}
	}
	return false
}

// RequiresIsotropic reports whether t selects the ikpx2 analysis mode, which
// only supports isotropic two-state Moore rules.
func (t Token) RequiresIsotropic() bool {
	return strings.Contains(string(t), "ikpx2")
}

// IsGPU reports whether t uses the GPU class letters.
func (t Token) IsGPU() bool {
	return strings.HasPrefix(string(t), "G") || strings.HasPrefix(string(t), "H")
}

// IsReflecting reports whether t includes a reflection (dihedral classes).
func (t Token) IsReflecting() bool {
	return strings.HasPrefix(string(t), "D") || strings.HasPrefix(string(t), "H")
}
