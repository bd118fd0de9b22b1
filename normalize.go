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
	"gonum.org/v1/gonum/mat"
)

// Normalize divides raw by scale and returns a new matrix.
// A single scale applies to every column, otherwise there must be one
// scale per column. Column order and signs are left untouched.
func Normalize(raw *mat.Dense, scale []float64) (*mat.Dense, error) {
	for _, s := range scale {
		if s == 0 {
			return nil, ErrZeroScale
		}
	}
	rows, cols := dims(raw)
	if rows == 0 {
		return &mat.Dense{}, nil
	}
	if len(scale) != 1 && len(scale) != cols {
		return nil, &ScaleArityError{Scales: len(scale), Columns: cols}
	}
	ret := mat.NewDense(rows, cols, nil)
	ret.Apply(func(_, j int, v float64) float64 {
		if len(scale) == 1 {
			return v / scale[0]
		}
		return v / scale[j]
	}, raw)
	return ret, nil
}

// Columns unpacks a sample matrix into one slice per axis.
func Columns(m *mat.Dense) [][]float64 {
	_, cols := dims(m)
	ret := make([][]float64, cols)
	for j := range ret {
		ret[j] = mat.Col(nil, j, m)
	}
	return ret
}

func dims(m *mat.Dense) (int, int) {
	if m == nil || m.IsEmpty() {
		return 0, 0
	}
	return m.Dims()
}
