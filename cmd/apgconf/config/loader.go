// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load, in addition to the file.
const (
	EnvConfigPath = "APGCONF_CONFIG"
	EnvOutput     = "APGCONF_OUTPUT"
	EnvRegistry   = "APGCONF_REGISTRY"
	EnvLogLevel   = "APGCONF_LOG_LEVEL"
)

var (
	// ErrConfigNotFound is returned when an explicitly named file is missing.
	// The default location may be absent.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrUnsupportedVersion is returned for a meta.version whose major
	// version differs from CurrentConfigVersion.
	ErrUnsupportedVersion = errors.New("unsupported config version")

	// ErrInvalidConfig wraps validator failures.
	ErrInvalidConfig = errors.New("invalid config")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
		return semver.IsValid(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("config: registering semver validation: %v", err))
	}
	return v
}

// DefaultPath returns ~/.apgconf/apgconf.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".apgconf", "apgconf.yaml")
}

// Load resolves the configuration.
//
// # Description
//
// Layers are applied in order: DefaultConfig, the YAML file, then the
// APGCONF_* environment variables. Command-line flags are applied by the
// caller on top of the result. The file is never created.
//
// # Inputs
//
//   - path: Explicit file (--config). Empty falls back to $APGCONF_CONFIG,
//     then DefaultPath(). Only the default location may be missing.
//
// # Outputs
//
//   - ApgconfConfig: The validated configuration.
//   - string: The file that was read, or "" if none.
//   - error: ErrConfigNotFound, a decode error, ErrUnsupportedVersion, or
//     ErrInvalidConfig.
func Load(path string) (ApgconfConfig, string, error) {
	cfg := DefaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}

	source := ""
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(data, &cfg); err != nil {
				return cfg, path, fmt.Errorf("parsing config %s: %w", path, err)
			}
			source = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		case errors.Is(err, os.ErrNotExist):
			return cfg, path, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		default:
			return cfg, path, fmt.Errorf("failed to read the config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, source, err
	}
	return cfg, source, nil
}

// decode strictly unmarshals data over cfg. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func decode(data []byte, cfg *ApgconfConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *ApgconfConfig) {
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv(EnvRegistry); v != "" {
		cfg.Registry.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the schema version and every field constraint.
func (c ApgconfConfig) Validate() error {
	if v := c.Meta.Version; semver.IsValid(v) && semver.Major(v) != semver.Major(CurrentConfigVersion) {
		return fmt.Errorf("%w: %s (this build reads %s)", ErrUnsupportedVersion, v, semver.Major(CurrentConfigVersion))
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
