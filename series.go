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
	"iter"
	"slices"
	"time"
)

// Sample is one decoded sample in physical units.
type Sample struct {
	// Time in seconds, absolute or relative depending on the series.
	Time   float64
	Values []float64
}

// GPSSample is the typed view of a GPS5 sample.
type GPSSample struct {
	Time      float64
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed2D   float64
	Speed3D   float64
}

// IMUSample is the typed view of an ACCL or GYRO sample. Axes keep the
// order of the payload.
type IMUSample struct {
	Time float64
	Z    float64
	X    float64
	Y    float64
}

// GPS returns the typed view of a GPS5 sample, or false when s does not
// hold the five GPS channels.
func (s Sample) GPS() (GPSSample, bool) {
	if len(s.Values) != KindGPS.Width() {
		return GPSSample{}, false
	}
	return GPSSample{
		Time:      s.Time,
		Latitude:  s.Values[0],
		Longitude: s.Values[1],
		Altitude:  s.Values[2],
		Speed2D:   s.Values[3],
		Speed3D:   s.Values[4],
	}, true
}

// IMU returns the typed view of an ACCL or GYRO sample, or false when s
// does not hold three axes.
func (s Sample) IMU() (IMUSample, bool) {
	if len(s.Values) != KindAccl.Width() {
		return IMUSample{}, false
	}
	return IMUSample{Time: s.Time, Z: s.Values[0], X: s.Values[1], Y: s.Values[2]}, true
}

// Series is the read-only time series of one sensor kind.
type Series struct {
	kind     Kind
	channels []string
	units    []string
	times    []float64
	columns  [][]float64
}

// NewSeries concatenates the normalized columns of blocks, in order, and
// pairs them with times.
func NewSeries(kind Kind, blocks []*Block, times []float64) (*Series, error) {
	s := &Series{
		kind:     kind,
		channels: kind.Channels(),
		units:    kind.DefaultUnits(),
		columns:  make([][]float64, kind.Width()),
	}
	for _, b := range blocks {
		if b.NumSamples() == 0 {
			continue
		}
		if len(s.times) == 0 && len(b.Units) == kind.Width() {
			s.units = slices.Clone(b.Units)
		}
		for j, c := range Columns(b.Values) {
			s.columns[j] = append(s.columns[j], c...)
		}
		s.times = append(s.times, make([]float64, b.NumSamples())...)
	}
	if len(times) != len(s.times) {
		return nil, &ShapeMismatchError{Key: kind.Key(), Count: len(times), Width: len(s.times)}
	}
	copy(s.times, times)
	return s, nil
}

// EmptySeries returns a series of the kind without samples.
func EmptySeries(kind Kind) *Series {
	return &Series{
		kind:     kind,
		channels: kind.Channels(),
		units:    kind.DefaultUnits(),
		columns:  make([][]float64, kind.Width()),
	}
}

func (s *Series) Kind() Kind { return s.kind }

func (s *Series) Len() int { return len(s.times) }

func (s *Series) Empty() bool { return len(s.times) == 0 }

// Channels returns the column names.
func (s *Series) Channels() []string { return slices.Clone(s.channels) }

// Units returns the unit of each column.
func (s *Series) Units() []string { return slices.Clone(s.units) }

// Times returns a copy of the timestamps.
func (s *Series) Times() []float64 { return slices.Clone(s.times) }

// Time returns the timestamp of sample i as a time.Time.
// It is only meaningful for absolute series.
func (s *Series) Time(i int) time.Time { return Time(s.times[i]) }

// Column returns a copy of the named column, or nil.
func (s *Series) Column(name string) []float64 {
	i := slices.Index(s.channels, name)
	if i < 0 {
		return nil
	}
	return slices.Clone(s.columns[i])
}

// At returns sample i.
func (s *Series) At(i int) Sample {
	v := make([]float64, len(s.columns))
	for j := range s.columns {
		v[j] = s.columns[j][i]
	}
	return Sample{Time: s.times[i], Values: v}
}

// All iterates over the samples in order. It can be ranged over any
// number of times.
func (s *Series) All() iter.Seq2[int, Sample] {
	return func(yield func(int, Sample) bool) {
		for i := range s.times {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}

// Relative returns a copy of the series with the first timestamp
// subtracted from every timestamp.
func (s *Series) Relative() *Series {
	ret := &Series{
		kind:     s.kind,
		channels: s.channels,
		units:    s.units,
		columns:  s.columns,
		times:    make([]float64, len(s.times)),
	}
	if len(s.times) == 0 {
		return ret
	}
	t0 := s.times[0]
	for i, t := range s.times {
		ret.times[i] = t - t0
	}
	return ret
}
