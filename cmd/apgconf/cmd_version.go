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
	"runtime"

	"github.com/AleutianAI/apgconf/cmd/apgconf/config"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/params"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version         string `json:"version"`
	Go              string `json:"go"`
	Generator       string `json:"generator"`
	RegistryVersion string `json:"registry_version,omitempty"`
	ConfigSchema    string `json:"config_schema"`
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := versionInfo{
				Version:      version,
				Go:           runtime.Version(),
				ConfigSchema: config.CurrentConfigVersion,
			}
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			info.RegistryVersion = reg.Version()
			info.Generator = params.NewCompiler(reg, params.WithVersion(version)).GeneratorVersion()

			if a.flags.json {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err = fmt.Fprintf(a.stdout, "apgconf %s\n  generator: %s\n  go:        %s\n  registry:  %s\n  config:    %s\n",
				info.Version, info.Generator, info.Go, info.RegistryVersion, info.ConfigSchema)
			return err
		},
	}
}
