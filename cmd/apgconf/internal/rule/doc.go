// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rule normalizes cellular-automaton rulestrings.
//
// Every downstream decision in apgconf keys off the canonical form of a
// rule, so the canonicalizer is deliberately total: any input produces some
// output. Outer-totalistic Moore rules are rewritten into the lowercase
// birth/survival form:
//
//	B3/S23  -> b3s23
//	S23/B3  -> b3s23
//	23/3    -> b3s23   (legacy survival/birth notation)
//	b3s32   -> b3s23   (digits sorted, duplicates dropped)
//
// Rules that carry extra letters (isotropic non-totalistic conditions,
// hexagonal suffixes, Generations prefixes) are lowercased and have their
// separator removed but are otherwise passed through untouched.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package rule
