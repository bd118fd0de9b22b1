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
	"fmt"
	"math"
	"slices"
	"time"
)

// DefaultPayloadDuration is the nominal time covered by one telemetry
// payload. It is used when a single block gives no measurable interval.
const DefaultPayloadDuration = time.Second

// Anchor pins the first sample of a block to a timestamp in seconds.
type Anchor struct {
	Index int
	Time  float64
}

// Median returns the median of v, averaging the two middle values when
// len(v) is even. It returns NaN for an empty slice.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	s := slices.Clone(v)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Steps infers the sampling interval of each anchored span.
//
// The step of span i is the time between anchors i and i+1 divided by the
// number of samples between them. The last span has no following anchor
// and gets the median of the measured steps. With a single anchor, the
// span is assumed to last fallback seconds.
//
// total is the number of samples of all spans. A negative step is reported
// as a *NonMonotonicTimestampWarning in warnings.
func Steps(anchors []Anchor, total int, fallback float64) (steps []float64, warnings []error, err error) {
	n := len(anchors)
	if n == 0 {
		return nil, nil, nil
	}
	for i := 1; i < n; i++ {
		if anchors[i].Index <= anchors[i-1].Index {
			return nil, nil, fmt.Errorf("%w: anchor %d at %d follows %d",
				ErrIndexOrder, i, anchors[i].Index, anchors[i-1].Index)
		}
	}
	if total <= anchors[n-1].Index {
		return nil, nil, fmt.Errorf("%w: last anchor at %d of %d samples",
			ErrIndexOrder, anchors[n-1].Index, total)
	}

	steps = make([]float64, n)
	for i := 0; i < n-1; i++ {
		steps[i] = (anchors[i+1].Time - anchors[i].Time) / float64(anchors[i+1].Index-anchors[i].Index)
		if steps[i] < 0 {
			warnings = append(warnings, &NonMonotonicTimestampWarning{Anchor: i, Step: steps[i]})
		}
	}
	if n == 1 {
		steps[0] = fallback / float64(total-anchors[0].Index)
	} else {
		steps[n-1] = Median(steps[:n-1])
	}
	return steps, warnings, nil
}

// SampleTimes generates one timestamp per sample.
//
// The clock starts at start for the first anchored sample and advances by
// the active step after every sample. It switches to the next anchor's
// step, and is realigned to that anchor's offset from the first one, when
// the sample index reaches the anchor. Samples before the first anchor are
// extrapolated backwards with the first step.
//
// start fixes the offset convention: anchors[0].Time for absolute times,
// 0 for times relative to the first anchor.
func SampleTimes(anchors []Anchor, steps []float64, start float64, total int) []float64 {
	if len(anchors) == 0 || len(steps) != len(anchors) {
		return nil
	}
	ret := make([]float64, total)
	first := anchors[0].Index
	for i := 0; i < first && i < total; i++ {
		ret[i] = start - float64(first-i)*steps[0]
	}

	b := 0
	clock := start
	for i := first; i < total; i++ {
		if b+1 < len(anchors) && i == anchors[b+1].Index {
			b++
			clock = start + (anchors[b].Time - anchors[0].Time)
		}
		ret[i] = clock
		clock += steps[b]
	}
	return ret
}
