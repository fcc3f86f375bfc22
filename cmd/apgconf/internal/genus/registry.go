// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package genus

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/dlclark/regexp2"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed genera.yaml
var defaultGenera []byte

// DefaultMatchTimeout bounds a single pattern evaluation. Backtracking
// patterns supplied by users must not hang the compiler.
const DefaultMatchTimeout = time.Second

// Genus is one classification bucket of the registry.
//
// # Fields
//
//   - Name: Full genus name, unique within a registry.
//   - Description: Human-readable summary, shown by `apgconf genera`.
//   - Regex: Start-anchored membership pattern.
//   - Family: Simulation family; 6 and above is hashlife-only.
//   - Bitplanes: Bits of state per cell.
//   - CompatibilityOnly: Excluded from ordinary resolution; used only for
//     compatibility checks such as isotropy.
type Genus struct {
	Name              string `yaml:"name" json:"name" validate:"required"`
	Description       string `yaml:"description,omitempty" json:"description,omitempty"`
	Regex             string `yaml:"regex" json:"regex" validate:"required"`
	Family            int    `yaml:"family" json:"family" validate:"gte=0"`
	Bitplanes         int    `yaml:"bitplanes" json:"bitplanes" validate:"gte=1,lte=16"`
	CompatibilityOnly bool   `yaml:"compatibility_only,omitempty" json:"compatibility_only,omitempty"`
}

// Registry is the lookup capability the resolver needs. Implementations
// may be backed by any storage; tests use in-memory fakes.
type Registry interface {
	// Lookup returns every genus, compatibility-only ones included, whose
	// pattern matches spec.
	Lookup(spec rule.Spec) ([]Genus, error)

	// Named returns every genus with the given name.
	Named(name string) []Genus
}

// registryFile is the on-disk YAML layout.
type registryFile struct {
	Version string  `yaml:"version"`
	Genera  []Genus `yaml:"genera"`
}

// YAMLRegistry is a Registry loaded from a YAML document.
//
// # Thread Safety
//
// Immutable after construction and safe for concurrent use.
type YAMLRegistry struct {
	version  string
	genera   []Genus
	patterns []*regexp2.Regexp
}

// registryValidate checks genus entries.
var registryValidate = validator.New(validator.WithRequiredStructEnabled())

// LoadDefault returns the registry embedded in the binary.
func LoadDefault() (*YAMLRegistry, error) {
	return Parse(defaultGenera, DefaultMatchTimeout)
}

// LoadFile reads a registry from path.
//
// # Inputs
//
//   - path: YAML file in the same layout as the embedded registry.
//   - timeout: Per-match evaluation limit; zero selects DefaultMatchTimeout.
//
// # Outputs
//
//   - *YAMLRegistry: The parsed registry.
//   - error: If the file cannot be read or any entry is invalid.
func LoadFile(path string, timeout time.Duration) (*YAMLRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file: %w", err)
	}
	reg, err := Parse(data, timeout)
	if err != nil {
		return nil, fmt.Errorf("parsing registry file %s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from YAML data and compiles every pattern.
func Parse(data []byte, timeout time.Duration) (*YAMLRegistry, error) {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding registry: %w", err)
	}
	if len(file.Genera) == 0 {
		return nil, ErrEmptyRegistry
	}

	reg := &YAMLRegistry{
		version:  file.Version,
		genera:   make([]Genus, 0, len(file.Genera)),
		patterns: make([]*regexp2.Regexp, 0, len(file.Genera)),
	}

	seen := make(map[string]struct{}, len(file.Genera))
	for i, g := range file.Genera {
		if err := registryValidate.Struct(g); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q): %v", ErrInvalidGenus, i, g.Name, err)
		}
		if _, dup := seen[g.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGenus, g.Name)
		}
		seen[g.Name] = struct{}{}

		// Anchor at the start only; patterns choose whether to pin the end.
		re, err := regexp2.Compile(`^(?:`+g.Regex+`)`, regexp2.None)
		if err != nil {
			return nil, &PatternError{Genus: g.Name, Err: err}
		}
		re.MatchTimeout = timeout

		reg.genera = append(reg.genera, g)
		reg.patterns = append(reg.patterns, re)
	}
	return reg, nil
}

// Version returns the registry's declared version, if any.
func (r *YAMLRegistry) Version() string {
	return r.version
}

// Genera returns a copy of every genus in declaration order.
func (r *YAMLRegistry) Genera() []Genus {
	out := make([]Genus, len(r.genera))
	copy(out, r.genera)
	return out
}

// Lookup implements Registry.
func (r *YAMLRegistry) Lookup(spec rule.Spec) ([]Genus, error) {
	var matches []Genus
	for i, re := range r.patterns {
		ok, err := re.MatchString(string(spec))
		if err != nil {
			return nil, &PatternError{Genus: r.genera[i].Name, Err: err}
		}
		if ok {
			matches = append(matches, r.genera[i])
		}
	}
	return matches, nil
}

// Named implements Registry.
func (r *YAMLRegistry) Named(name string) []Genus {
	var out []Genus
	for _, g := range r.genera {
		if g.Name == name {
			out = append(out, g)
		}
	}
	return out
}

var _ Registry = (*YAMLRegistry)(nil)
