// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders the apgconf terminal trace.
//
// A Printer owns one writer. When that writer is a terminal, messages are
// colorized and listings are drawn as lipgloss tables; otherwise the same
// messages are written without escape codes and listings become
// tab-separated lines that scripts can cut.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	// Rule and symmetry highlights use plain ANSI red and green so they
	// read the same on any 16-color terminal.
	ColorWarning = lipgloss.Color("9")
	ColorSuccess = lipgloss.Color("10")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Mode selects how a Printer renders.
type Mode int

const (
	// ModeAuto picks ModeRich for terminals and ModePlain otherwise.
	ModeAuto Mode = iota

	// ModeRich writes ANSI colors and bordered tables.
	ModeRich

	// ModePlain writes the same text with no escape codes.
	ModePlain
)

// String returns "auto", "rich", or "plain".
func (m Mode) String() string {
	switch m {
	case ModeRich:
		return "rich"
	case ModePlain:
		return "plain"
	default:
		return "auto"
	}
}

// ParseMode parses "auto", "rich"/"always", or "plain"/"never".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "rich", "always":
		return ModeRich, nil
	case "plain", "never":
		return ModePlain, nil
	default:
		return ModeAuto, fmt.Errorf("unknown color mode %q", s)
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// =============================================================================
// Printer
// =============================================================================

type styles struct {
	title   lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
}

// Printer writes the human-readable compile trace.
//
// # Thread Safety
//
// Printer is safe for concurrent use; each message is written with a single
// Write call.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	mode   Mode
	styles styles
}

// NewPrinter returns a Printer for w. ModeAuto is resolved immediately
// against w, so a Printer never changes mode after construction.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	if w == nil {
		w = io.Discard
	}
	if mode == ModeAuto {
		mode = ModePlain
		if IsTerminal(w) {
			mode = ModeRich
		}
	}

	r := lipgloss.NewRenderer(w)
	if mode == ModeRich {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:    w,
		mode: mode,
		styles: styles{
			title:   r.NewStyle().Bold(true).Foreground(ColorTealBright),
			warning: r.NewStyle().Bold(true).Foreground(ColorWarning),
			success: r.NewStyle().Bold(true).Foreground(ColorSuccess),
			err:     r.NewStyle().Bold(true).Foreground(ColorError),
			muted:   r.NewStyle().Foreground(ColorSlate),
			header:  r.NewStyle().Bold(true).Foreground(ColorTealPrimary).Padding(0, 1),
			cell:    r.NewStyle().Padding(0, 1),
			border:  r.NewStyle().Foreground(ColorTealDeep),
		},
	}
}

// Mode returns the resolved rendering mode.
func (p *Printer) Mode() Mode {
	return p.mode
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, s+"\n")
}

// RuleInterpreted reports that raw was rewritten to canonical:
//
//	Warning: B3/S23 interpreted as b3s23
func (p *Printer) RuleInterpreted(raw, canonical string) {
	p.println("Warning: " + p.styles.warning.Render(raw) +
		" interpreted as " + p.styles.success.Render(canonical))
}

// ValidSymmetry confirms the symmetry that passed validation.
func (p *Printer) ValidSymmetry(token string) {
	p.println("Valid symmetry: " + p.styles.success.Render(token))
}

// Genus reports the resolved genus. It is only printed in verbose runs.
func (p *Printer) Genus(name string, family, bitplanes int) {
	p.println(p.styles.muted.Render(fmt.Sprintf("Genus: %s (family %d, %d bitplanes)", name, family, bitplanes)))
}

// Wrote reports where the configuration landed.
func (p *Printer) Wrote(path string) {
	p.println(p.styles.muted.Render("Wrote " + path))
}

// TraceID names the exported trace of this run.
func (p *Printer) TraceID(id string) {
	p.println(p.styles.muted.Render("Trace: " + id))
}

// Success prints the final confirmation.
func (p *Printer) Success() {
	p.println("Success!")
}

// Error prints a failed compilation.
func (p *Printer) Error(err error) {
	p.println(p.styles.err.Render("Error:") + " " + err.Error())
}

// Usage prints the two-line invocation hint shown when too few arguments
// are given.
func (p *Printer) Usage(program string) {
	p.println("Usage:")
	p.println(program + " b3s23 C1")
}

// Table prints a titled listing. In plain mode rows are tab-separated with
// a header line and no title.
func (p *Printer) Table(title string, headers []string, rows [][]string) {
	if p.mode != ModeRich {
		var b strings.Builder
		b.WriteString(strings.Join(headers, "\t"))
		b.WriteByte('\n')
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		_, _ = io.WriteString(p.w, b.String())
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.header
			}
			return p.styles.cell
		})

	if title != "" {
		p.println(p.styles.title.Render(title))
	}
	p.println(t.String())
}
