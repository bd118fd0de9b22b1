// Copyright 2026 SEQSENSE, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gpmf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func TestNormalize(t *testing.T) {
	raw := mat.NewDense(2, 3, []float64{
		10, -20, 30,
		40, 50, -60,
	})
	testCases := map[string]struct {
		scale    []float64
		expected [][]float64
		err      error
	}{
		"Scalar": {
			scale:    []float64{10},
			expected: [][]float64{{1, 4}, {-2, 5}, {3, -6}},
		},
		"PerColumn": {
			scale:    []float64{10, 20, 30},
			expected: [][]float64{{1, 4}, {-1, 2.5}, {1, -2}},
		},
		"Arity": {
			scale: []float64{1, 2},
			err:   &ScaleArityError{Scales: 2, Columns: 3},
		},
		"Zero": {
			scale: []float64{10, 0, 30},
			err:   ErrZeroScale,
		},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			m, err := Normalize(raw, c.scale)
			if c.err != nil {
				if err == nil || err.Error() != c.err.Error() {
					t.Errorf("Expected error: '%v', got: '%v'", c.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.expected, Columns(m)); diff != "" {
				t.Errorf("Unexpected columns (-want +got):\n%s", diff)
			}
		})
	}

	if v := raw.At(0, 0); v != 10 {
		t.Errorf("Normalize modified its input: %v", v)
	}
}

func TestNormalize_Empty(t *testing.T) {
	m, err := Normalize(&mat.Dense{}, []float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsEmpty() {
		t.Error("Expected an empty matrix")
	}
	if _, err := Normalize(&mat.Dense{}, []float64{0}); !errors.Is(err, ErrZeroScale) {
		t.Errorf("Expected ErrZeroScale, got: %v", err)
	}
	if cols := Columns(m); len(cols) != 0 {
		t.Errorf("Expected no columns, got: %v", cols)
	}
}
