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


package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/seqsense/gpmf"
)

type encoder func(io.Writer, []*gpmf.Series) error

func newEncoder(format string) (encoder, error) {
	switch format {
	case "csv":
		return writeCSV, nil
	case "cbor":
		return writeCBOR, nil
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

// writeCSV writes one row per sample. Columns are the union of the
// channels of all series, empty where a kind has no such channel.
func writeCSV(w io.Writer, series []*gpmf.Series) error {
	header := []string{"kind", "time"}
	for _, s := range series {
		for _, c := range s.Channels() {
			if !slices.Contains(header[2:], c) {
				header = append(header, c)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range series {
		pos := make([]int, 0, len(s.Channels()))
		for _, c := range s.Channels() {
			pos = append(pos, slices.Index(header, c))
		}
		row := make([]string, len(header))
		for _, smp := range s.All() {
			clear(row)
			row[0] = s.Kind().String()
			row[1] = formatTime(smp.Time)
			for j, v := range smp.Values {
				row[pos[j]] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatTime formats seconds to the microsecond, enough for 400 Hz and
// faster sensors.
func formatTime(t float64) string {
	return strconv.FormatFloat(math.Round(t*1e6)/1e6, 'f', -1, 64)
}

type cborSeries struct {
	Kind     string      `cbor:"kind"`
	Channels []string    `cbor:"channels"`
	Units    []string    `cbor:"units"`
	Times    []float64   `cbor:"times"`
	Columns  [][]float64 `cbor:"columns"`
}

// writeCBOR writes an array of column oriented series.
func writeCBOR(w io.Writer, series []*gpmf.Series) error {
	out := make([]cborSeries, 0, len(series))
	for _, s := range series {
		cs := cborSeries{
			Kind:     s.Kind().String(),
			Channels: s.Channels(),
			Units:    s.Units(),
			Times:    s.Times(),
		}
		for _, c := range cs.Channels {
			cs.Columns = append(cs.Columns, s.Column(c))
		}
		out = append(out, cs)
	}
	return cbor.NewEncoder(w).Encode(out)
}

type output struct {
	io.Writer
	closers []io.Closer
}

func (o *output) Close() error {
	var ret error
	for _, c := range o.closers {
		if err := c.Close(); err != nil && ret == nil {
			ret = err
		}
	}
	return ret
}

// createOutput opens path, or returns stdout for "-".
func createOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return &output{Writer: stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return &output{Writer: f, closers: []io.Closer{f}}, nil
	}
	gz := gzip.NewWriter(f)
	return &output{Writer: gz, closers: []io.Closer{gz, f}}, nil
}
