// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package representation chooses the engine's pattern representation.
//
// The engine offers three layouts, from fastest to most general:
//
//   - Fixed VTile layouts with compile-time geometry, for life-like rules.
//   - The universal leaf iterator (UTile), sized by bitplane count, for any
//     rule with incremental tile updates.
//   - Plain hashlife patterns, for families too irregular for tiles.
//
// Select picks one of them from the rule and its genus and reports the
// rule-specific optimizations that go with it.
package representation

import (
	"fmt"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/genus"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
)

// HashlifeFamily is the first family that cannot use incremental tiles.
const HashlifeFamily = 6

// HashlifePattern is the whole-pattern hashlife type.
const HashlifePattern = "apg::pattern"

// LeafIteratorPattern is the universal leaf iterator, parameterised by the
// engine's BITPLANES macro.
const LeafIteratorPattern = "apg::upattern<apg::UTile<BITPLANES + 1, BITPLANES>, 16>"

// Tile is a fixed VTile geometry.
type Tile struct {
	Width  int
	Height int
}

var (
	// StandardTile is the 28x28 tile used by every life-like rule.
	StandardTile = Tile{Width: 28, Height: 28}

	// LongTile trades memory for speed on standard Life when the engine is
	// built with LONG_TILES.
	LongTile = Tile{Width: 28, Height: 44}
)

// Pattern returns the upattern type expression for t. The VTile type is
// named after its height.
func (t Tile) Pattern() string {
	return fmt.Sprintf("apg::upattern<apg::VTile%d, %d, %d>", t.Height, t.Width, t.Height)
}

// Incubator returns the incubator sized to twice the tile on each axis.
func (t Tile) Incubator() string {
	return fmt.Sprintf("apg::incubator<%d, %d>", 2*t.Width, 2*t.Height)
}

// Choice is a pattern type and its optional incubator.
type Choice struct {
	Pattern   string `json:"pattern"`
	Incubator string `json:"incubator,omitempty"`
}

// tileChoice pairs a tile's pattern with its incubator.
func tileChoice(t Tile) Choice {
	return Choice{Pattern: t.Pattern(), Incubator: t.Incubator()}
}

// Selection is the outcome of Select.
//
// # Fields
//
//   - Choice: Representation used by default.
//   - LongTiles: Alternative used when the engine defines LONG_TILES; nil
//     when the rule has no long-tile variant.
//   - HashlifeOnly: The family forbids incremental tiles.
//   - StandardLife: The rule is exactly b3s23.
//   - Pedestrian: The rule is exactly b38s23.
//   - GlidersExist: The standard glider is known to exist. When false the
//     engine disables glider-specific heuristics.
type Selection struct {
	Choice
	LongTiles    *Choice `json:"long_tiles,omitempty"`
	HashlifeOnly bool    `json:"hashlife_only"`
	StandardLife bool    `json:"standard_life"`
	Pedestrian   bool    `json:"pedestrian"`
	GlidersExist bool    `json:"gliders_exist"`
}

// Base returns the representation implied by the rule's shape alone:
// the 28x28 VTile for life-like rules, the leaf iterator otherwise.
func Base(spec rule.Spec) Choice {
	if rule.IsLifeLike(spec) {
		return tileChoice(StandardTile)
	}
	return Choice{Pattern: LeafIteratorPattern}
}

// Select chooses the representation for spec in genus g.
//
// # Description
//
// Starts from Base(spec) and applies, in priority order:
//
//  1. Family >= HashlifeFamily: hashlife-only, plain pattern, no incubator.
//  2. Standard Life: 28x28 tiles, or 28x44 long tiles under LONG_TILES,
//     each with an incubator twice its size.
//  3. Otherwise the base choice; a VTile base keeps its incubator.
//
// Pedestrian and glider detection are independent of the above.
func Select(spec rule.Spec, g genus.Genus) Selection {
	sel := Selection{
		Pedestrian:   spec == rule.PedestrianLife,
		GlidersExist: rule.GlidersGuaranteed(spec),
	}

	switch {
	case g.Family >= HashlifeFamily:
		sel.HashlifeOnly = true
		sel.Choice = Choice{Pattern: HashlifePattern}
	case spec == rule.StandardLife:
		sel.StandardLife = true
		sel.Choice = tileChoice(StandardTile)
		long := tileChoice(LongTile)
		sel.LongTiles = &long
	default:
		sel.Choice = Base(spec)
	}
	return sel
}
