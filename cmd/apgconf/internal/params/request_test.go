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
	"errors"
	"testing"

	"github.com/AleutianAI/apgconf/cmd/apgconf/internal/symmetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Request
	}{
		{
			name: "rule and symmetry",
			args: []string{"b3s23", "C1"},
			want: Request{Rule: "b3s23", Symmetry: "C1", Target: symmetry.TargetCPU},
		},
		{
			name: "gpu",
			args: []string{"B3/S23", "C1", "true"},
			want: Request{Rule: "B3/S23", Symmetry: "C1", Target: symmetry.TargetGPU},
		},
		{
			name: "explicit cpu",
			args: []string{"b3s23", "D2_+1", "false"},
			want: Request{Rule: "b3s23", Symmetry: "D2_+1", Target: symmetry.TargetCPU},
		},
		{
			name: "limits",
			args: []string{"b3s23", "C1", "false", "1000", "5000"},
			want: Request{
				Rule:     "b3s23",
				Symmetry: "C1",
				Target:   symmetry.TargetCPU,
				Limits:   &Limits{MaxPopulation: 1000, MaxGeneration: 5000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"no args", nil, ErrMissingRule},
		{"rule only", []string{"b3s23"}, ErrMissingRule},
		{"bad gpu", []string{"b3s23", "C1", "yes"}, ErrInvalidGPU},
		{"single limit", []string{"b3s23", "C1", "false", "1000"}, ErrMissingLimit},
		{"non-integer population", []string{"b3s23", "C1", "false", "many", "10"}, ErrInvalidLimit},
		{"non-integer generation", []string{"b3s23", "C1", "false", "10", "1e3"}, ErrInvalidLimit},
		{"zero population", []string{"b3s23", "C1", "false", "0", "10"}, ErrInvalidLimit},
		{"negative generation", []string{"b3s23", "C1", "false", "10", "-5"}, ErrInvalidLimit},
		{"empty symmetry", []string{"b3s23", ""}, ErrMissingSym},
		{"blank rule", []string{"  ", "C1"}, ErrMissingRule},
		{"blank symmetry", []string{"b3s23", " \t"}, ErrMissingSym},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var usageErr *UsageError
			assert.True(t, errors.As(err, &usageErr))
		})
	}
}

func TestParseArgs_TooMany(t *testing.T) {
	_, err := ParseArgs([]string{"b3s23", "C1", "false", "1", "2", "3"})
	require.Error(t, err)

	var usageErr *UsageError
	require.True(t, errors.As(err, &usageErr))
	assert.Contains(t, usageErr.Error(), "at most 5")
}

func TestUsageError_Message(t *testing.T) {
	assert.Equal(t, "boom", (&UsageError{Message: "boom"}).Error())
	assert.Equal(t, ErrMissingLimit.Error(), (&UsageError{Err: ErrMissingLimit}).Error())
	assert.Equal(t, "gpu argument: "+ErrInvalidGPU.Error(), (&UsageError{Message: "gpu argument", Err: ErrInvalidGPU}).Error())
}
