// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package params compiles a rule, symmetry and hardware target into the
// engine's build parameters.
//
// # Architecture
//
//	┌──────────┐    ┌──────────┐    ┌──────────────┐    ┌───────────────┐
//	│ Request  │───▶│ Compiler │───▶│ Configuration│───▶│ Sink          │
//	│ (args)   │    │          │    │ (ordered     │    │ HeaderSink    │
//	└──────────┘    └────┬─────┘    │  #defines)   │    │ WriterSink    │
//	                     │          └──────────────┘    └───────────────┘
//	      ┌──────────────┼──────────────┬─────────────────┐
//	      ▼              ▼              ▼                 ▼
//	  rule.Canonicalize  symmetry    genus.Resolver   representation
//	                     Resolve +                    .Select
//	                     Validator
//
// # Error Kinds
//
//   - *UsageError: malformed arguments; nothing runs.
//   - *ValidationError: symmetry rejected, or the rule fails the isotropic
//     precondition of an ikpx2 symmetry.
//   - *RegistryConsistencyError: the genus registry matched zero or several
//     genera, or lacks its isotropic genus.
//
// Every failure aborts before any Sink runs.
package params
