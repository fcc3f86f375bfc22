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
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AleutianAI/apgconf/cmd/apgconf/config"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/params"
	"github.com/AleutianAI/apgconf/pkg/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// ErrNothingToWatch is returned when neither a registry file nor a config
// file is in use.
var ErrNothingToWatch = errors.New("nothing to watch: pass --registry or --config")

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <rule> <symmetry> [gpu] [max_population max_generation]",
		Short: "Recompile whenever the genus registry or config file changes",
		Long: `watch compiles once, then recompiles every time the registry file
(--registry) or the config file changes. Failed recompiles are reported and
the previous header is kept. Stop with Ctrl-C.`,
		Args: cobra.ArbitraryArgs,
		RunE: a.runWatch,
	}
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	req, err := params.ParseArgs(args)
	if err != nil {
		return err
	}

	paths := a.watchPaths()
	if len(paths) == 0 {
		return &params.UsageError{Err: ErrNothingToWatch}
	}

	ctx := cmd.Context()
	if err := a.compileAndWrite(ctx, req); err != nil {
		if exitCodeFor(err) == ExitUsage {
			return err
		}
		a.errPrinter.Error(err)
	}

	w, err := newFileWatcher(paths, watchDebounce, a.logger)
	if err != nil {
		return NewCommandError("watch", ExitFailure, err)
	}
	defer w.Close()

	configPath := a.configSource
	if abs, err := filepath.Abs(configPath); err == nil && configPath != "" {
		configPath = abs
	}

	a.logger.Info("watching for changes", "paths", paths)
	return w.Run(ctx, func(path string) {
		a.logger.Info("change detected", "path", path)
		if path == configPath {
			if err := a.reloadConfig(cmd); err != nil {
				a.errPrinter.Error(err)
				return
			}
		}
		if err := a.compileAndWrite(ctx, req); err != nil {
			a.errPrinter.Error(err)
		}
	})
}

// watchPaths returns the absolute files whose changes trigger a recompile.
func (a *app) watchPaths() []string {
	var paths []string
	for _, p := range []string{a.cfg.Registry.Path, a.configSource} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		paths = append(paths, p)
	}
	return paths
}

// reloadConfig re-reads the config file and re-applies flags. Only output
// and registry settings take effect; the logger and telemetry are kept.
func (a *app) reloadConfig(cmd *cobra.Command) error {
	cfg, _, err := config.Load(a.configSource)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	a.cfg.Output = cfg.Output
	a.cfg.Registry = cfg.Registry
	return nil
}

// =============================================================================
// File Watcher
// =============================================================================

// fileWatcher reports debounced changes to a fixed set of files.
//
// # Description
//
// Parent directories are watched rather than the files themselves, so a
// save that replaces the file by rename is still seen.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	logger   *logging.Logger
}

func newFileWatcher(paths []string, debounce time.Duration, logger *logging.Logger) (*fileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &fileWatcher{
		watcher:  watcher,
		files:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		logger:   logger,
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		p = filepath.Clean(p)
		w.files[p] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers changes to onChange until ctx is done. Events for one file
// arriving within the debounce window produce a single call.
func (w *fileWatcher) Run(ctx context.Context, onChange func(path string)) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if _, watched := w.files[name]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops the underlying watcher.
func (w *fileWatcher) Close() error {
	return w.watcher.Close()
}
