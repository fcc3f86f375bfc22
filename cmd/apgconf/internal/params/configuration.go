// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package params

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/genus"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
)

// Kind identifies how a definition's value is rendered.
type Kind int

const (
	// KindMarker is a bare `#define NAME`.
	KindMarker Kind = iota

	// KindString is a quoted string literal.
	KindString

	// KindInt is a decimal integer.
	KindInt

	// KindExpr is a raw type or value expression.
	KindExpr

	// KindConditional selects between two definition lists on whether
	// Name is defined when the engine is built.
	KindConditional
)

var kindNames = [...]string{"marker", "string", "int", "expr", "conditional"}

// String returns the kind's lowercase name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Definition is one entry of a Configuration.
//
// For KindConditional, Name is the macro tested with #ifdef; Then and Else
// hold the definitions of each branch.
type Definition struct {
	Name string       `json:"name"`
	Kind Kind         `json:"kind"`
	Str  string       `json:"string,omitempty"`
	Int  int          `json:"int,omitempty"`
	Then []Definition `json:"then,omitempty"`
	Else []Definition `json:"else,omitempty"`
}

// Marker returns a bare presence definition.
func Marker(name string) Definition { return Definition{Name: name, Kind: KindMarker} }

// String returns a quoted string definition.
func String(name, value string) Definition {
	return Definition{Name: name, Kind: KindString, Str: value}
}

// Int returns an integer definition.
func Int(name string, value int) Definition {
	return Definition{Name: name, Kind: KindInt, Int: value}
}

// Expr returns a raw expression definition.
func Expr(name, expr string) Definition {
	return Definition{Name: name, Kind: KindExpr, Str: expr}
}

// IfDef returns a conditional block on macro.
func IfDef(macro string, then, otherwise []Definition) Definition {
	return Definition{Name: macro, Kind: KindConditional, Then: then, Else: otherwise}
}

// Value renders the right-hand side of the definition; empty for markers
// and conditionals.
func (d Definition) Value() string {
	switch d.Kind {
	case KindString:
		return strconv.Quote(d.Str)
	case KindInt:
		return strconv.Itoa(d.Int)
	case KindExpr:
		return d.Str
	default:
		return ""
	}
}

// Configuration is the compiled build configuration.
//
// # Description
//
// Definitions are kept in emission order; the header rendering follows
// that order exactly. The remaining fields record the decisions that
// produced them and are reported by --json.
type Configuration struct {
	Version     string          `json:"version"`
	Rule        rule.Spec       `json:"rule"`
	RawRule     string          `json:"raw_rule"`
	Symmetry    symmetry.Token  `json:"symmetry"`
	Target      symmetry.Target `json:"target"`
	Genus       genus.Genus     `json:"genus"`
	Limits      *Limits         `json:"limits,omitempty"`
	Definitions []Definition    `json:"definitions"`
}

// Canonicalized reports whether the raw rule was rewritten.
func (c *Configuration) Canonicalized() bool {
	return string(c.Rule) != c.RawRule
}

// Lookup finds name as the engine would see it with the given macros
// defined externally. Conditionals are resolved against external.
//
// # Outputs
//
//   - Definition: The effective definition.
//   - bool: False if name is never defined on that branch.
func (c *Configuration) Lookup(name string, external ...string) (Definition, bool) {
	defined := make(map[string]bool, len(external))
	for _, e := range external {
		defined[e] = true
	}
	return lookup(c.Definitions, name, defined)
}

func lookup(defs []Definition, name string, defined map[string]bool) (Definition, bool) {
	var (
		found Definition
		ok    bool
	)
	for _, d := range defs {
		if d.Kind == KindConditional {
			branch := d.Else
			if defined[d.Name] {
				branch = d.Then
			}
			if inner, hit := lookup(branch, name, defined); hit {
				found, ok = inner, true
			}
			continue
		}
		if d.Name == name {
			found, ok = d, true
		}
	}
	return found, ok
}

// Has reports whether name is defined with no external macros.
func (c *Configuration) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns the top-level definition names in order. Conditional
// blocks contribute their macro prefixed with "?".
func (c *Configuration) Names() []string {
	out := make([]string, 0, len(c.Definitions))
	for _, d := range c.Definitions {
		if d.Kind == KindConditional {
			out = append(out, "?"+d.Name)
			continue
		}
		out = append(out, d.Name)
	}
	return out
}

// WriteHeader renders the configuration as preprocessor definitions.
func (c *Configuration) WriteHeader(w io.Writer) error {
	_, err := io.WriteString(w, c.Header())
	return err
}

// Header returns the rendered header text.
func (c *Configuration) Header() string {
	var b strings.Builder
	renderDefinitions(&b, c.Definitions)
	return b.String()
}

func renderDefinitions(b *strings.Builder, defs []Definition) {
	for _, d := range defs {
		switch d.Kind {
		case KindConditional:
			fmt.Fprintf(b, "#ifdef %s\n", d.Name)
			renderDefinitions(b, d.Then)
			if len(d.Else) > 0 {
				b.WriteString("#else\n")
				renderDefinitions(b, d.Else)
			}
			b.WriteString("#endif\n")
		case KindMarker:
			fmt.Fprintf(b, "#define %s\n", d.Name)
		default:
			fmt.Fprintf(b, "#define %s %s\n", d.Name, d.Value())
		}
	}
}

// WriteJSON encodes the configuration as indented JSON.
func (c *Configuration) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
