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
	"time"

	"gonum.org/v1/gonum/mat"
)

// Block is a decoded stream block.
type Block struct {
	Kind   Kind
	Device int
	Stream int

	Name  string
	Units []string
	Scale []float64

	// Raw holds the samples as stored, one row per sample.
	Raw *mat.Dense
	// Values holds Raw divided by Scale.
	Values *mat.Dense

	// Time is the GPSU block start time. Only GPS blocks carry it.
	Time    time.Time
	HasTime bool

	// TotalSamples is the TSMP counter of samples since recording start.
	TotalSamples    uint64
	HasTotalSamples bool

	// Fix is the GPSF fix type (0: none, 2: 2D, 3: 3D).
	Fix uint64
	// Precision is GPSP divided by 100.
	Precision    float64
	HasPrecision bool
}

// NumSamples is the number of rows shared by every per-sample array.
func (b *Block) NumSamples() int {
	r, _ := dims(b.Raw)
	return r
}

// ParseBlock decodes a classified stream in a single pass over its items.
//
// itemErrs reports items that failed to decode without preventing the
// block from being decoded, e.g. a GPSP with an unknown type. err reports
// why the block as a whole could not be decoded.
func ParseBlock(s Stream) (b *Block, itemErrs []error, err error) {
	if s.Kind == KindUnclassified {
		keys := make([]Key, 0, len(s.Items))
		for _, it := range s.Items {
			keys = append(keys, it.Key)
		}
		return nil, nil, &MissingClassifyingKeyError{Keys: keys}
	}

	b = &Block{
		Kind:   s.Kind,
		Device: s.Device,
		Stream: s.Index,
	}
	var (
		data    *Item
		siun    []string
		scalErr error
	)
	for i := range s.Items {
		it := s.Items[i]
		var err error
		switch it.Key {
		case s.Kind.Key():
			if data == nil {
				data = &s.Items[i]
			}
		case KeySTNM:
			b.Name, err = DecodeString(it)
		case KeyUNIT:
			b.Units, err = DecodeStrings(it)
		case KeySIUN:
			siun, err = DecodeStrings(it)
		case KeySCAL:
			b.Scale, scalErr = DecodeArray(it)
		case KeyTSMP:
			b.TotalSamples, err = DecodeUint(it)
			b.HasTotalSamples = err == nil
		case KeyGPSU:
			b.Time, err = DecodeTime(it)
			b.HasTime = err == nil
		case KeyGPSF:
			b.Fix, err = DecodeUint(it)
		case KeyGPSP:
			var p uint64
			p, err = DecodeUint(it)
			b.Precision = float64(p) / 100
			b.HasPrecision = err == nil
		}
		if err != nil {
			itemErrs = append(itemErrs, err)
		}
	}

	if data == nil {
		return nil, itemErrs, &MissingClassifyingKeyError{Keys: []Key{s.Kind.Key()}}
	}
	if scalErr != nil {
		return nil, itemErrs, scalErr
	}
	if len(b.Units) == 0 {
		b.Units = siun
	}
	if len(b.Units) == 0 {
		b.Units = s.Kind.DefaultUnits()
	}
	if len(b.Scale) == 0 {
		// SCAL is optional and defaults to 1.
		b.Scale = []float64{1}
	}

	if b.Raw, err = DecodeMatrix(*data, s.Kind.Width()); err != nil {
		return nil, itemErrs, err
	}
	if b.Values, err = Normalize(b.Raw, b.Scale); err != nil {
		return nil, itemErrs, err
	}
	return b, itemErrs, nil
}
