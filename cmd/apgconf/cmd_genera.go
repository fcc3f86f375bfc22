// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"strconv"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/genus"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/spf13/cobra"
)

func newGeneraCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "genera [rule]",
		Short: "List the genus registry, or the genera matching a rule",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runGenera,
	}
}

func (a *app) runGenera(_ *cobra.Command, args []string) error {
	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}

	genera := reg.Genera()
	title := "Genera"
	if len(args) == 1 {
		spec, _ := rule.Canonicalize(args[0])
		if genera, err = reg.Lookup(spec); err != nil {
			return NewCommandError("genera", ExitRegistry, err)
		}
		title = "Genera matching " + spec.String()
	}

	if a.flags.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Version string        `json:"version,omitempty"`
			Genera  []genus.Genus `json:"genera"`
		}{reg.Version(), genera})
	}

	rows := make([][]string, 0, len(genera))
	for _, g := range genera {
		compat := ""
		if g.CompatibilityOnly {
			compat = "yes"
		}
		rows = append(rows, []string{
			g.Name,
			strconv.Itoa(g.Family),
			strconv.Itoa(g.Bitplanes),
			compat,
			g.Description,
		})
	}
	a.printer.Table(title, []string{"NAME", "FAMILY", "BITPLANES", "COMPAT", "DESCRIPTION"}, rows)
	return nil
}
