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
	"fmt"
	"strings"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
	"github.com/spf13/cobra"
)

// symmetryInfo is one row of `apgconf symmetries`.
type symmetryInfo struct {
	Token      symmetry.Token  `json:"token"`
	Target     symmetry.Target `json:"target"`
	Requires   []string        `json:"requires,omitempty"`
	Reflection string          `json:"reflection,omitempty"`
}

func newSymmetriesCmd(a *app) *cobra.Command {
	var gpuOnly bool
	cmd := &cobra.Command{
		Use:   "symmetries",
		Short: "List the symmetry groups accepted by the default validator",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runSymmetries(gpuOnly)
		},
	}
	cmd.Flags().BoolVar(&gpuOnly, "gpu", false, "only list GPU groups")
	return cmd
}

func describeSymmetries(gpuOnly bool) []symmetryInfo {
	var out []symmetryInfo
	for _, t := range symmetry.Catalog() {
		info := symmetryInfo{Token: t, Target: symmetry.TargetCPU}
		if t.IsGPU() {
			info.Target = symmetry.TargetGPU
			info.Requires = append(info.Requires, "life-like")
		} else if gpuOnly {
			continue
		}
		if t.IsReflecting() {
			info.Requires = append(info.Requires, "isotropic")
		}
		if r := symmetry.ReflectionFor(t); !r.IsZero() {
			info.Reflection = formatReflection(r)
		}
		out = append(out, info)
	}
	return out
}

func formatReflection(r symmetry.Reflection) string {
	s := fmt.Sprintf("v=%s h=%s", r.Vertical, r.Horizontal)
	if r.RestrictC2 != 0 {
		s += fmt.Sprintf(" c2=%d", r.RestrictC2)
	}
	return s
}

func (a *app) runSymmetries(gpuOnly bool) error {
	infos := describeSymmetries(gpuOnly)

	if a.flags.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.Token.String(),
			info.Target.String(),
			strings.Join(info.Requires, ", "),
			info.Reflection,
		})
	}
	a.printer.Table("Symmetries", []string{"TOKEN", "TARGET", "REQUIRES", "REFLECTION"}, rows)
	return nil
}
