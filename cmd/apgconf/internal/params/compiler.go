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
	"log/slog"
	"runtime"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/genus"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/representation"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of compiler spans.
const TracerName = "github.com/AleutianAI/apgconf/params"

// Observer receives progress notifications during Compile. The CLI uses it
// for the human-readable trace.
type Observer interface {
	// RuleCanonicalized fires when the raw rule differs from its
	// canonical form.
	RuleCanonicalized(raw string, canonical rule.Spec)

	// SymmetryValidated fires once the validator accepts the symmetry.
	SymmetryValidated(token symmetry.Token)

	// GenusResolved fires once the rule's genus is known.
	GenusResolved(spec rule.Spec, g genus.Genus)
}

type nopObserver struct{}

func (nopObserver) RuleCanonicalized(string, rule.Spec)  {}
func (nopObserver) SymmetryValidated(symmetry.Token)     {}
func (nopObserver) GenusResolved(rule.Spec, genus.Genus) {}

// Compiler turns a Request into a Configuration.
//
// # Description
//
// Compile runs the pipeline
//
//	canonicalize -> resolve symmetry -> validate -> resolve genus
//	  -> select representation -> emit definitions
//
// and aborts on the first failure. Nothing is written; pass the result to a
// Sink to persist it.
//
// # Thread Safety
//
// Safe for concurrent use if the registry, validator and observer are.
type Compiler struct {
	resolver  *genus.Resolver
	validator symmetry.Validator
	observer  Observer
	logger    *slog.Logger
	tracer    trace.Tracer
	version   string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the structured logger. Stages log at debug level, with
// trace_id and span_id attached when the compile span is recorded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidator replaces the default catalog validator.
func WithValidator(v symmetry.Validator) Option {
	return func(c *Compiler) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithObserver registers progress callbacks.
func WithObserver(o Observer) Option {
	return func(c *Compiler) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Compiler) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithVersion sets the generator version reported in the header.
func WithVersion(version string) Option {
	return func(c *Compiler) {
		if version != "" {
			c.version = version
		}
	}
}

// NewCompiler returns a Compiler classifying rules with registry.
//
// # Inputs
//
//   - registry: Genus lookup capability.
//   - opts: Optional settings. Without WithValidator the compiler uses a
//     symmetry.CatalogValidator whose isotropy checks use registry.
//
// # Outputs
//
//   - *Compiler: Ready for use.
func NewCompiler(registry genus.Registry, opts ...Option) *Compiler {
	resolver := genus.NewResolver(registry)
	c := &Compiler{
		resolver:  resolver,
		validator: symmetry.NewCatalogValidator(resolver),
		observer:  nopObserver{},
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer(TracerName),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GeneratorVersion is the informational value of the version define.
func (c *Compiler) GeneratorVersion() string {
	return fmt.Sprintf("apgconf %s (%s)", c.version, runtime.Version())
}

// Compile builds the configuration for req.
//
// # Outputs
//
//   - *Configuration: The complete configuration; nil on error.
//   - error: *UsageError for malformed requests, *ValidationError when the
//     symmetry or the isotropic precondition is rejected, and
//     *RegistryConsistencyError when the registry cannot classify the rule.
//
// # Example
//
//	cfg, err := compiler.Compile(ctx, params.Request{Rule: "B3/S23", Symmetry: "C1"})
//	if err != nil {
//	    return err
//	}
//	cfg.Has("STANDARD_LIFE") // true
func (c *Compiler) Compile(ctx context.Context, req Request) (*Configuration, error) {
	ctx, span := c.tracer.Start(ctx, "params.Compile")
	defer span.End()

	cfg, err := c.compile(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("apgconf.rule", string(cfg.Rule)),
		attribute.String("apgconf.symmetry", string(cfg.Symmetry)),
		attribute.String("apgconf.genus", cfg.Genus.Name),
		attribute.Int("apgconf.definitions", len(cfg.Definitions)),
	)
	return cfg, nil
}

func (c *Compiler) compile(ctx context.Context, req Request) (*Configuration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := telemetry.LoggerWithTrace(ctx, c.logger)

	token := symmetry.Resolve(req.Symmetry, req.Target)
	if string(token) != req.Symmetry {
		logger.Debug("symmetry renamed for target", "from", req.Symmetry, "to", token, "target", req.Target)
	}

	spec, changed := rule.Canonicalize(req.Rule)
	if changed {
		logger.Warn("rule canonicalized", "raw", req.Rule, "rule", spec)
		c.observer.RuleCanonicalized(req.Rule, spec)
	}

	if err := c.stage(ctx, "symmetry.Validate", func() error {
		return c.validator.Validate(spec, token)
	}); err != nil {
		return nil, classifyValidation(spec, token, err)
	}
	logger.Debug("symmetry validated", "symmetry", token)
	c.observer.SymmetryValidated(token)

	var g genus.Genus
	if err := c.stage(ctx, "genus.Resolve", func() error {
		var err error
		g, err = c.resolver.Resolve(spec, token.RequiresIsotropic())
		return err
	}); err != nil {
		return nil, classifyGenus(spec, token, err)
	}
	logger.Debug("genus resolved", "rule", spec, "genus", g.Name, "family", g.Family, "bitplanes", g.Bitplanes)
	c.observer.GenusResolved(spec, g)

	sel := representation.Select(spec, g)
	logger.Debug("representation selected",
		"pattern", sel.Pattern,
		"hashlife_only", sel.HashlifeOnly,
		"standard_life", sel.StandardLife,
	)

	version := c.GeneratorVersion()
	return &Configuration{
		Version:     version,
		Rule:        spec,
		RawRule:     req.Rule,
		Symmetry:    token,
		Target:      req.Target,
		Genus:       g,
		Limits:      req.Limits,
		Definitions: Emit(version, spec, token, req.Target, g, sel, req.Limits),
	}, nil
}

// stage runs fn inside a child span.
func (c *Compiler) stage(ctx context.Context, name string, fn func() error) error {
	_, span := c.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// classifyValidation maps validator failures. A validator that could not
// consult the registry reports a registry problem, not a bad symmetry.
func classifyValidation(spec rule.Spec, token symmetry.Token, err error) error {
	if isRegistryFault(err) {
		return &RegistryConsistencyError{Rule: spec, Err: err}
	}
	return &ValidationError{Rule: spec, Symmetry: token, Err: err}
}

// classifyGenus maps genus resolution failures.
func classifyGenus(spec rule.Spec, token symmetry.Token, err error) error {
	if errors.Is(err, genus.ErrNotIsotropic) {
		return &ValidationError{Rule: spec, Symmetry: token, Err: err}
	}
	consistency := &RegistryConsistencyError{Rule: spec, Err: err}
	var matchErr *genus.MatchError
	if errors.As(err, &matchErr) {
		consistency.Matches = matchErr.Matches
	}
	return consistency
}

func isRegistryFault(err error) bool {
	var patternErr *genus.PatternError
	return errors.Is(err, genus.ErrIsotropicGenusMissing) || errors.As(err, &patternErr)
}

// Emit produces the ordered definitions for a resolved compilation.
//
// # Description
//
// Emission order is fixed:
//
//  1. Identity: PYTHON_VERSION, BITPLANES, SYMMETRY, SYMMETRY2, RULESTRING,
//     CLASSIFIER.
//  2. C1_SYMMETRY for trivial symmetries, else STDIN_SYM for streaming ones.
//  3. LARGE_SYMMETRY.
//  4. GPU flags, reflection parities and C2 restrictions.
//  5. Representation: HASHLIFE_ONLY, STANDARD_LIFE with a LONG_TILES block,
//     or a plain UPATTERN with optional INCUBATOR.
//  6. PEDESTRIAN_LIFE.
//  7. GLIDERS_EXIST or DISABLE_GLIDERS.
//  8. MAXPOP and MAXGEN.
//
// PYTHON_VERSION is the name the engine's banner reads; the value is the
// generator version.
func Emit(
	version string,
	spec rule.Spec,
	token symmetry.Token,
	target symmetry.Target,
	g genus.Genus,
	sel representation.Selection,
	limits *Limits,
) []Definition {
	symmetry2 := string(token)
	if limits != nil && !token.IsStreaming() {
		symmetry2 += "_spaceinvaders"
	}

	defs := []Definition{
		String("PYTHON_VERSION", version),
		Int("BITPLANES", g.Bitplanes),
		String("SYMMETRY", string(token)),
		String("SYMMETRY2", symmetry2),
		String("RULESTRING", string(spec)),
		Expr("CLASSIFIER", "apg::base_classifier<BITPLANES>"),
	}

	switch {
	case token.IsTrivial():
		defs = append(defs, Int("C1_SYMMETRY", 1))
	case token.IsStreaming():
		defs = append(defs, Int("STDIN_SYM", 1))
	}

	if token.IsLarge() {
		defs = append(defs, Marker("LARGE_SYMMETRY"))
	}

	if target == symmetry.TargetGPU {
		defs = append(defs, gpuDefinitions(spec, token)...)
	}

	defs = append(defs, representationDefinitions(sel)...)

	if sel.Pedestrian {
		defs = append(defs, Int("PEDESTRIAN_LIFE", 1))
	}

	if sel.GlidersExist {
		defs = append(defs, Int("GLIDERS_EXIST", 1))
	} else {
		defs = append(defs, Int("DISABLE_GLIDERS", 1))
	}

	if limits != nil {
		defs = append(defs,
			Int("MAXPOP", limits.MaxPopulation),
			Int("MAXGEN", limits.MaxGeneration),
		)
	}
	return defs
}

// gpuDefinitions emits the GPU block. Parities come from the reflection
// table, so one axis never carries both kernels.
func gpuDefinitions(spec rule.Spec, token symmetry.Token) []Definition {
	defs := []Definition{Int("USING_GPU", 1)}
	if spec == rule.StandardLife || spec == rule.PedestrianLife {
		defs = append(defs, Int("NEW_GPU_ALGO", 1))
	}

	r := symmetry.ReflectionFor(token)
	if r.Vertical == symmetry.ParityOdd {
		defs = append(defs, Int("VREFLECT_ODD", 1))
	}
	if r.Vertical == symmetry.ParityEven {
		defs = append(defs, Int("VREFLECT_EVEN", 1))
	}
	if r.Horizontal == symmetry.ParityEven {
		defs = append(defs, Int("HREFLECT_EVEN", 1))
	}
	if r.Horizontal == symmetry.ParityOdd {
		defs = append(defs, Int("HREFLECT_ODD", 1))
	}
	if r.RestrictC2 != 0 {
		defs = append(defs, Int(fmt.Sprintf("RESTRICT_C2_%d", r.RestrictC2), 1))
	}
	return defs
}

func representationDefinitions(sel representation.Selection) []Definition {
	switch {
	case sel.HashlifeOnly:
		return []Definition{
			Int("HASHLIFE_ONLY", 1),
			Expr("UPATTERN", sel.Pattern),
		}
	case sel.StandardLife && sel.LongTiles != nil:
		return []Definition{
			Int("STANDARD_LIFE", 1),
			IfDef("LONG_TILES", choiceDefinitions(*sel.LongTiles), choiceDefinitions(sel.Choice)),
		}
	default:
		return choiceDefinitions(sel.Choice)
	}
}

func choiceDefinitions(c representation.Choice) []Definition {
	defs := []Definition{Expr("UPATTERN", c.Pattern)}
	if c.Incubator != "" {
		defs = append(defs, Expr("INCUBATOR", c.Incubator))
	}
	return defs
}
