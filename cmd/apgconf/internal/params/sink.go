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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultHeaderPath is where the engine's build expects its parameters.
const DefaultHeaderPath = "includes/params.h"

// ErrNilConfiguration is returned when a sink is handed nothing to write.
var ErrNilConfiguration = errors.New("nil configuration")

// Sink persists or displays a compiled Configuration.
type Sink interface {
	Write(ctx context.Context, cfg *Configuration) error
}

// HeaderSink writes the configuration as a header file.
//
// # Description
//
// The header is written to a temporary file in the target directory and
// renamed over Path, so readers see either the previous header or the new
// one in full. Missing parent directories are created.
//
// # Thread Safety
//
// Concurrent writers to the same Path are safe; the last rename wins.
type HeaderSink struct {
	Path string

	// Format selects the file contents; the zero value writes #define lines.
	Format Format
}

// NewHeaderSink returns a sink for path, or DefaultHeaderPath if empty.
func NewHeaderSink(path string) *HeaderSink {
	if path == "" {
		path = DefaultHeaderPath
	}
	return &HeaderSink{Path: path}
}

// Write implements Sink.
func (s *HeaderSink) Write(ctx context.Context, cfg *Configuration) (err error) {
	if cfg == nil {
		return ErrNilConfiguration
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating header directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp header: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = render(tmp, cfg, s.Format); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing header: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing header: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting header mode: %w", err)
	}

	// Check for cancellation before the swap
	select {
	case <-ctx.Done():
		err = fmt.Errorf("header write cancelled before rename: %w", ctx.Err())
		return err
	default:
	}

	if err = os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.Path, err)
	}
	return nil
}

// Format selects how a sink renders the configuration.
type Format int

const (
	// FormatHeader renders #define lines.
	FormatHeader Format = iota

	// FormatJSON renders the full Configuration as JSON.
	FormatJSON
)

// WriterSink renders the configuration to an io.Writer. The CLI uses it
// for --dry-run and --json.
type WriterSink struct {
	W      io.Writer
	Format Format
}

// Write implements Sink.
func (s *WriterSink) Write(_ context.Context, cfg *Configuration) error {
	if cfg == nil {
		return ErrNilConfiguration
	}
	return render(s.W, cfg, s.Format)
}

func render(w io.Writer, cfg *Configuration, f Format) error {
	if f == FormatJSON {
		return cfg.WriteJSON(w)
	}
	return cfg.WriteHeader(w)
}

var (
	_ Sink = (*HeaderSink)(nil)
	_ Sink = (*WriterSink)(nil)
)
