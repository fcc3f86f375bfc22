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

// Parity is the reflection parity along one axis of a GPU soup.
//
// A single value per axis means a token can never request both the odd and
// the even reflection kernel for the same axis.
type Parity uint8

const (
	// ParityNone means the axis is not reflected.
	ParityNone Parity = iota

	// ParityOdd reflects about a cell centre.
	ParityOdd

	// ParityEven reflects about a cell boundary.
	ParityEven
)

// String returns "none", "odd" or "even".
func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return "none"
	}
}

// Reflection describes the reflection kernels a GPU symmetry needs.
//
// # Fields
//
//   - Vertical: Parity of the vertical reflection.
//   - Horizontal: Parity of the horizontal reflection.
//   - RestrictC2: Rotation-centre restriction for the C2 groups (1, 2 or 4);
//     zero when unrestricted.
type Reflection struct {
	Vertical   Parity
	Horizontal Parity
	RestrictC2 int
}

// IsZero reports whether no reflection kernel is needed.
func (r Reflection) IsZero() bool {
	return r == Reflection{}
}

// reflections is keyed by the GPU spelling of each token.
var reflections = map[Token]Reflection{
	"H2_+1": {Vertical: ParityOdd},
	"H2_+2": {Vertical: ParityEven},
	"H4_+1": {Vertical: ParityOdd, Horizontal: ParityOdd},
	"H4_+2": {Vertical: ParityOdd, Horizontal: ParityEven},
	"H4_+4": {Vertical: ParityEven, Horizontal: ParityEven},
	"G2_1":  {Vertical: ParityOdd, Horizontal: ParityOdd, RestrictC2: 1},
	"G2_2":  {Vertical: ParityEven, Horizontal: ParityOdd, RestrictC2: 2},
	"G2_4":  {Vertical: ParityEven, Horizontal: ParityEven, RestrictC2: 4},
}

// ReflectionFor returns the reflection kernels for a GPU token. Tokens
// without an entry need none and yield the zero Reflection.
func ReflectionFor(t Token) Reflection {
	return reflections[t]
}
