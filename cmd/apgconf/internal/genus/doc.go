// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package genus classifies canonical rules into genera.
//
// A genus groups rules that share a simulation strategy: its family number
// decides which representations apply and its bitplane count sizes the
// per-cell state. The classification data lives in a Registry; the
// Resolver layers the lookup rules on top:
//
//	┌──────────────┐   Lookup(spec)   ┌───────────────────┐
//	│   Resolver   │─────────────────▶│ Registry          │
//	│              │◀─────────────────│ (YAML, embedded   │
//	│ isotropic    │   []Genus        │  or user file)    │
//	│ check, then  │                  └───────────────────┘
//	│ unique match │
//	└──────────────┘
//
// # Registry Consistency
//
// Outside the compatibility-only genera (the "isotropic" superset used for
// the ikpx2 check), every rule must match exactly one genus. Zero or several
// matches indicate a broken registry and are reported as errors instead of
// being resolved by ordering.
//
// # Pattern Syntax
//
// Registry patterns use backtracking regular expressions, including
// lookahead, and are matched from the start of the rulestring.
package genus
