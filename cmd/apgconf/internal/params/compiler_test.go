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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/genus"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/rule"
	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// stubRegistry returns fixed matches per rule.
type stubRegistry struct {
	genera []genus.Genus
	match  map[rule.Spec][]string
}

func (s *stubRegistry) Lookup(spec rule.Spec) ([]genus.Genus, error) {
	var out []genus.Genus
	for _, name := range s.match[spec] {
		out = append(out, s.Named(name)...)
	}
	return out, nil
}

func (s *stubRegistry) Named(name string) []genus.Genus {
	var out []genus.Genus
	for _, g := range s.genera {
		if g.Name == name {
			out = append(out, g)
		}
	}
	return out
}

// recordingObserver captures observer callbacks.
type recordingObserver struct {
	canonicalized []string
	validated     []symmetry.Token
	genera        []string
}

func (r *recordingObserver) RuleCanonicalized(raw string, canonical rule.Spec) {
	r.canonicalized = append(r.canonicalized, raw+"->"+string(canonical))
}

func (r *recordingObserver) SymmetryValidated(token symmetry.Token) {
	r.validated = append(r.validated, token)
}

func (r *recordingObserver) GenusResolved(_ rule.Spec, g genus.Genus) {
	r.genera = append(r.genera, g.Name)
}

func newTestCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	reg, err := genus.LoadDefault()
	require.NoError(t, err)
	return NewCompiler(reg, append([]Option{WithVersion("test")}, opts...)...)
}

func compile(t *testing.T, c *Compiler, req Request) *Configuration {
	t.Helper()
	cfg, err := c.Compile(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

func value(t *testing.T, cfg *Configuration, name string, external ...string) string {
	t.Helper()
	d, ok := cfg.Lookup(name, external...)
	require.True(t, ok, "%s not defined", name)
	return d.Value()
}

// =============================================================================
// Standard Life Tests
// =============================================================================

func TestCompile_StandardLifeCPU_Header(t *testing.T) {
	c := newTestCompiler(t)
	cfg := compile(t, c, Request{Rule: "b3s23", Symmetry: "C1"})

	want := strings.Join([]string{
		`#define PYTHON_VERSION "` + c.GeneratorVersion() + `"`,
		`#define BITPLANES 1`,
		`#define SYMMETRY "C1"`,
		`#define SYMMETRY2 "C1"`,
		`#define RULESTRING "b3s23"`,
		`#define CLASSIFIER apg::base_classifier<BITPLANES>`,
		`#define C1_SYMMETRY 1`,
		`#define STANDARD_LIFE 1`,
		`#ifdef LONG_TILES`,
		`#define UPATTERN apg::upattern<apg::VTile44, 28, 44>`,
		`#define INCUBATOR apg::incubator<56, 88>`,
		`#else`,
		`#define UPATTERN apg::upattern<apg::VTile28, 28, 28>`,
		`#define INCUBATOR apg::incubator<56, 56>`,
		`#endif`,
		`#define GLIDERS_EXIST 1`,
	}, "\n") + "\n"

	assert.Equal(t, want, cfg.Header())
	assert.False(t, cfg.Has("HASHLIFE_ONLY"))
	assert.False(t, cfg.Has("USING_GPU"))
	assert.False(t, cfg.Has("DISABLE_GLIDERS"))
}

func TestCompile_StandardLifeGPU(t *testing.T) {
	cfg := compile(t, newTestCompiler(t), Request{Rule: "b3s23", Symmetry: "C1", Target: symmetry.TargetGPU})

	assert.Equal(t, symmetry.Token("G1"), cfg.Symmetry)
	assert.Equal(t, `"G1"`, value(t, cfg, "SYMMETRY"))
	assert.Equal(t, "1", value(t, cfg, "C1_SYMMETRY"))
	assert.Equal(t, "1", value(t, cfg, "USING_GPU"))
	assert.Equal(t, "1", value(t, cfg, "NEW_GPU_ALGO"))
	assert.Equal(t, "1", value(t, cfg, "STANDARD_LIFE"))
}

func TestCompile_Canonicalization(t *testing.T) {
	obs := &recordingObserver{}
	cfg := compile(t, newTestCompiler(t, WithObserver(obs)), Request{Rule: "B3/S23", Symmetry: "C1"})

	assert.Equal(t, rule.StandardLife, cfg.Rule)
	assert.Equal(t, "B3/S23", cfg.RawRule)
	assert.True(t, cfg.Canonicalized())
	assert.Equal(t, `"b3s23"`, value(t, cfg, "RULESTRING"))
	assert.Equal(t, []string{"B3/S23->b3s23"}, obs.canonicalized)
	assert.Equal(t, []symmetry.Token{"C1"}, obs.validated)
	assert.Equal(t, []string{"lifelike"}, obs.genera)
}

func TestCompile_CanonicalRuleNotReported(t *testing.T) {
	obs := &recordingObserver{}
	cfg := compile(t, newTestCompiler(t, WithObserver(obs)), Request{Rule: "b3s23", Symmetry: "C1"})

	assert.False(t, cfg.Canonicalized())
	assert.Empty(t, obs.canonicalized)
}

// =============================================================================
// Representation Tests
// =============================================================================

func TestCompile_Representations(t *testing.T) {
	tests := []struct {
		name      string
		rule      string
		bitplanes string
		upattern  string
		incubator string
		hashlife  bool
		gliders   bool
	}{
		{"pedestrian life", "b38s23", "1", "apg::upattern<apg::VTile28, 28, 28>", "apg::incubator<56, 56>", false, true},
		{"seeds", "b2s", "1", "apg::upattern<apg::VTile28, 28, 28>", "apg::incubator<56, 56>", false, false},
		{"isotropic", "b3-jks23", "1", "apg::upattern<apg::UTile<BITPLANES + 1, BITPLANES>, 16>", "", false, false},
		{"generations", "g6b2s345", "3", "apg::upattern<apg::UTile<BITPLANES + 1, BITPLANES>, 16>", "", false, false},
		{"larger than life", "r2b5t6s4t7", "1", "apg::pattern", "", true, false},
	}

	c := newTestCompiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := compile(t, c, Request{Rule: tt.rule, Symmetry: "C1"})

			assert.Equal(t, tt.bitplanes, value(t, cfg, "BITPLANES"))
			assert.Equal(t, tt.upattern, value(t, cfg, "UPATTERN"))
			assert.Equal(t, tt.hashlife, cfg.Has("HASHLIFE_ONLY"))
			assert.False(t, cfg.Has("STANDARD_LIFE"))
			assert.False(t, cfg.Has("USING_GPU"))

			if tt.incubator == "" {
				assert.False(t, cfg.Has("INCUBATOR"))
			} else {
				assert.Equal(t, tt.incubator, value(t, cfg, "INCUBATOR"))
			}

			// Exactly one of the glider flags.
			assert.Equal(t, tt.gliders, cfg.Has("GLIDERS_EXIST"))
			assert.Equal(t, !tt.gliders, cfg.Has("DISABLE_GLIDERS"))
		})
	}
}

func TestCompile_Pedestrian(t *testing.T) {
	cfg := compile(t, newTestCompiler(t), Request{Rule: "b38s23", Symmetry: "C1", Target: symmetry.TargetGPU})

	assert.Equal(t, "1", value(t, cfg, "PEDESTRIAN_LIFE"))
	assert.Equal(t, "1", value(t, cfg, "NEW_GPU_ALGO"))
}

func TestCompile_LongTilesBranches(t *testing.T) {
	cfg := compile(t, newTestCompiler(t), Request{Rule: "b3s23", Symmetry: "C1"})

	assert.Equal(t, "apg::upattern<apg::VTile28, 28, 28>", value(t, cfg, "UPATTERN"))
	assert.Equal(t, "apg::incubator<56, 56>", value(t, cfg, "INCUBATOR"))
	assert.Equal(t, "apg::upattern<apg::VTile44, 28, 44>", value(t, cfg, "UPATTERN", "LONG_TILES"))
	assert.Equal(t, "apg::incubator<56, 88>", value(t, cfg, "INCUBATOR", "LONG_TILES"))
}

// =============================================================================
// Symmetry Flag Tests
// =============================================================================

func TestCompile_SymmetryFlags(t *testing.T) {
	tests := []struct {
		symmetry string
		trivial  bool
		stdin    bool
		large    bool
	}{
		{"C1", true, false, false},
		{"C2_4", false, false, false},
		{"C1_8k", false, false, true},
		{"D8_1_512x512", false, false, true},
		{"stdin", false, true, false},
		{"stdin_custom", false, true, false},
	}

	c := newTestCompiler(t)
	for _, tt := range tests {
		t.Run(tt.symmetry, func(t *testing.T) {
			cfg := compile(t, c, Request{Rule: "b3s23", Symmetry: tt.symmetry})

			assert.Equal(t, tt.trivial, cfg.Has("C1_SYMMETRY"))
			assert.Equal(t, tt.stdin, cfg.Has("STDIN_SYM"))
			assert.Equal(t, tt.large, cfg.Has("LARGE_SYMMETRY"))
			if tt.large {
				assert.Contains(t, cfg.Header(), "#define LARGE_SYMMETRY\n")
			}
		})
	}
}

func TestCompile_SpaceInvaders(t *testing.T) {
	c := newTestCompiler(t)
	limits := &Limits{MaxPopulation: 1000, MaxGeneration: 5000}

	cfg := compile(t, c, Request{Rule: "b3s23", Symmetry: "C1", Limits: limits})
	assert.Equal(t, `"C1"`, value(t, cfg, "SYMMETRY"))
	assert.Equal(t, `"C1_spaceinvaders"`, value(t, cfg, "SYMMETRY2"))
	assert.Equal(t, "1000", value(t, cfg, "MAXPOP"))
	assert.Equal(t, "5000", value(t, cfg, "MAXGEN"))

	names := cfg.Names()
	assert.Equal(t, []string{"MAXPOP", "MAXGEN"}, names[len(names)-2:])

	cfg = compile(t, c, Request{Rule: "b3s23", Symmetry: "stdin", Limits: limits})
	assert.Equal(t, `"stdin"`, value(t, cfg, "SYMMETRY2"))
	assert.Equal(t, "1000", value(t, cfg, "MAXPOP"))

	cfg = compile(t, c, Request{Rule: "b3s23", Symmetry: "C1"})
	assert.Equal(t, `"C1"`, value(t, cfg, "SYMMETRY2"))
	assert.False(t, cfg.Has("MAXPOP"))
	assert.False(t, cfg.Has("MAXGEN"))
}

// =============================================================================
// GPU Reflection Tests
// =============================================================================

func TestCompile_GPUReflections(t *testing.T) {
	tests := []struct {
		symmetry string
		resolved string
		flags    []string
	}{
		{"C1", "G1", nil},
		{"C2_1", "G2_1", []string{"VREFLECT_ODD", "HREFLECT_ODD", "RESTRICT_C2_1"}},
		{"C2_2", "G2_2", []string{"VREFLECT_EVEN", "HREFLECT_ODD", "RESTRICT_C2_2"}},
		{"C2_4", "G2_4", []string{"VREFLECT_EVEN", "HREFLECT_EVEN", "RESTRICT_C2_4"}},
		{"D2_+1", "H2_+1", []string{"VREFLECT_ODD"}},
		{"D2_+2", "H2_+2", []string{"VREFLECT_EVEN"}},
		{"D4_+1", "H4_+1", []string{"VREFLECT_ODD", "HREFLECT_ODD"}},
		{"D4_+2", "H4_+2", []string{"VREFLECT_ODD", "HREFLECT_EVEN"}},
		{"D4_+4", "H4_+4", []string{"VREFLECT_EVEN", "HREFLECT_EVEN"}},
	}

	all := []string{"VREFLECT_ODD", "VREFLECT_EVEN", "HREFLECT_EVEN", "HREFLECT_ODD", "RESTRICT_C2_1", "RESTRICT_C2_2", "RESTRICT_C2_4"}

	c := newTestCompiler(t)
	for _, tt := range tests {
		t.Run(tt.symmetry, func(t *testing.T) {
			cfg := compile(t, c, Request{Rule: "b36s23", Symmetry: tt.symmetry, Target: symmetry.TargetGPU})

			assert.Equal(t, symmetry.Token(tt.resolved), cfg.Symmetry)
			assert.True(t, cfg.Has("USING_GPU"))
			assert.False(t, cfg.Has("NEW_GPU_ALGO"))

			var got []string
			for _, name := range all {
				if cfg.Has(name) {
					got = append(got, name)
				}
			}
			assert.Equal(t, tt.flags, got)
			assert.False(t, cfg.Has("VREFLECT_ODD") && cfg.Has("VREFLECT_EVEN"))
			assert.False(t, cfg.Has("HREFLECT_ODD") && cfg.Has("HREFLECT_EVEN"))
		})
	}
}

func TestCompile_CPUNeverEmitsGPUFlags(t *testing.T) {
	cfg := compile(t, newTestCompiler(t), Request{Rule: "b3s23", Symmetry: "D2_+1"})

	assert.Equal(t, symmetry.Token("D2_+1"), cfg.Symmetry)
	for _, name := range []string{"USING_GPU", "NEW_GPU_ALGO", "VREFLECT_ODD", "VREFLECT_EVEN"} {
		assert.False(t, cfg.Has(name), name)
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestCompile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{"unknown symmetry", Request{Rule: "b3s23", Symmetry: "Q7"}, symmetry.ErrUnknownSymmetry},
		{"gpu needs life-like", Request{Rule: "g4b2s345", Symmetry: "C1", Target: symmetry.TargetGPU}, symmetry.ErrGPUNeedsLifeLike},
		{"reflection needs isotropic", Request{Rule: "g4b2s345", Symmetry: "D2_+1"}, symmetry.ErrReflectionNeedsIsotropic},
		{"ikpx2 needs isotropic", Request{Rule: "g4b2s345", Symmetry: "ikpx2"}, genus.ErrNotIsotropic},
	}

	c := newTestCompiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := c.Compile(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.target)

			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, symmetry.Resolve(tt.req.Symmetry, tt.req.Target), valErr.Symmetry)
		})
	}
}

func TestCompile_IsotropicMessage(t *testing.T) {
	_, err := newTestCompiler(t).Compile(context.Background(), Request{Rule: "g4b2s345", Symmetry: "ikpx2_stdin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule is not an isotropic 2-state Moore-neighbourhood rule: g4b2s345")
}

func TestCompile_IkpxIsotropicAccepted(t *testing.T) {
	cfg := compile(t, newTestCompiler(t), Request{Rule: "b3-jks23", Symmetry: "ikpx2"})
	assert.Equal(t, "isotropic_nontotalistic", cfg.Genus.Name)
}

func TestCompile_CustomValidator(t *testing.T) {
	rejected := errors.New("engine says no")
	c := newTestCompiler(t, WithValidator(symmetry.ValidatorFunc(func(rule.Spec, symmetry.Token) error {
		return rejected
	})))

	_, err := c.Compile(context.Background(), Request{Rule: "b3s23", Symmetry: "C1"})
	assert.ErrorIs(t, err, rejected)

	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestCompile_RegistryErrors(t *testing.T) {
	reg := &stubRegistry{
		genera: []genus.Genus{
			{Name: "lifelike", Bitplanes: 1},
			{Name: "shadow", Family: 3, Bitplanes: 1},
			{Name: genus.IsotropicGenus, Family: 1, Bitplanes: 1, CompatibilityOnly: true},
		},
		match: map[rule.Spec][]string{
			"b3s23":  {"lifelike", "shadow", genus.IsotropicGenus},
			"b36s23": {genus.IsotropicGenus},
		},
	}
	c := NewCompiler(reg)

	_, err := c.Compile(context.Background(), Request{Rule: "b3s23", Symmetry: "C1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, genus.ErrAmbiguousGenus)
	var regErr *RegistryConsistencyError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, []string{"lifelike", "shadow"}, regErr.Matches)

	_, err = c.Compile(context.Background(), Request{Rule: "b36s23", Symmetry: "C1"})
	assert.ErrorIs(t, err, genus.ErrNoGenus)
	assert.True(t, errors.As(err, &regErr))
}

func TestCompile_MissingIsotropicGenus(t *testing.T) {
	reg := &stubRegistry{
		genera: []genus.Genus{{Name: "lifelike", Bitplanes: 1}},
		match:  map[rule.Spec][]string{"b3s23": {"lifelike"}},
	}
	c := NewCompiler(reg)

	for _, sym := range []string{"D2_+1", "ikpx2"} {
		t.Run(sym, func(t *testing.T) {
			_, err := c.Compile(context.Background(), Request{Rule: "b3s23", Symmetry: sym})
			assert.ErrorIs(t, err, genus.ErrIsotropicGenusMissing)

			var regErr *RegistryConsistencyError
			assert.True(t, errors.As(err, &regErr))
		})
	}
}

func TestCompile_InvalidRequest(t *testing.T) {
	c := newTestCompiler(t)

	_, err := c.Compile(context.Background(), Request{Symmetry: "C1"})
	assert.ErrorIs(t, err, ErrMissingRule)

	_, err = c.Compile(context.Background(), Request{Rule: " \t ", Symmetry: "C1"})
	assert.ErrorIs(t, err, ErrMissingRule)
	var registryErr *RegistryConsistencyError
	assert.False(t, errors.As(err, &registryErr))

	_, err = c.Compile(context.Background(), Request{Rule: "b3s23", Symmetry: "C1", Limits: &Limits{MaxPopulation: 0, MaxGeneration: 10}})
	assert.ErrorIs(t, err, ErrInvalidLimit)

	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))
}

// =============================================================================
// Determinism / Tracing Tests
// =============================================================================

func TestCompile_Deterministic(t *testing.T) {
	c := newTestCompiler(t)
	req := Request{Rule: "B36/S23", Symmetry: "D2_+1", Target: symmetry.TargetGPU, Limits: &Limits{MaxPopulation: 10, MaxGeneration: 20}}

	first := compile(t, c, req)
	second := compile(t, c, req)
	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, first, second)
}

func TestCompile_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c := newTestCompiler(t, WithTracer(tp.Tracer("test")))
	compile(t, c, Request{Rule: "b3s23", Symmetry: "C1"})

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"symmetry.Validate", "genus.Resolve", "params.Compile"}, names)
}

func TestCompile_StageLogsCarryTraceID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestCompiler(t, WithTracer(tp.Tracer("test")), WithLogger(logger))
	compile(t, c, Request{Rule: "b3s23", Symmetry: "C1"})

	var root string
	for _, s := range recorder.Ended() {
		if s.Name() == "params.Compile" {
			root = s.SpanContext().TraceID().String()
		}
	}
	require.NotEmpty(t, root)

	var staged int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, "genus resolved") || strings.Contains(line, "representation selected") {
			staged++
			assert.Contains(t, line, "trace_id="+root)
			assert.Contains(t, line, "span_id=")
		}
	}
	assert.Equal(t, 2, staged)
}

func TestCompile_StageLogsWithoutTracing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestCompiler(t, WithLogger(logger))
	compile(t, c, Request{Rule: "b3s23", Symmetry: "C1"})

	assert.Contains(t, buf.String(), "genus resolved")
	assert.NotContains(t, buf.String(), "trace_id")
}
