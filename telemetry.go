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
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// Telemetry holds the decoded series of one buffer.
type Telemetry struct {
	GPS  *Series
	Gyro *Series
	Accl *Series

	Diagnostics Diagnostics
}

// Series returns the series of kind, or nil for KindUnclassified.
func (t *Telemetry) Series(kind Kind) *Series {
	switch kind {
	case KindGPS:
		return t.GPS
	case KindGyro:
		return t.Gyro
	case KindAccl:
		return t.Accl
	default:
		return nil
	}
}

type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	logger          LoggerIF
	concurrency     int
	required        []Kind
	payloadDuration time.Duration
}

// WithConcurrency decodes blocks on up to n goroutines.
// Timestamps are always synthesized after every block is decoded.
func WithConcurrency(n int) DecodeOption {
	return func(o *decodeOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRequired makes the decode fail with *NoTelemetryError when one of
// kinds has no samples.
func WithRequired(kinds ...Kind) DecodeOption {
	return func(o *decodeOptions) {
		o.required = append(o.required, kinds...)
	}
}

// WithPayloadDuration sets the time covered by one payload.
// Defaults to DefaultPayloadDuration.
func WithPayloadDuration(d time.Duration) DecodeOption {
	return func(o *decodeOptions) {
		if d > 0 {
			o.payloadDuration = d
		}
	}
}

// Decode tokenizes buf and extracts every telemetry series from it.
// Truncation aborts the decode; errors scoped to a block are collected in
// the returned Diagnostics.
func Decode(buf []byte, opts ...DecodeOption) (*Telemetry, error) {
	items, err := Tokenize(buf)
	if err != nil {
		return nil, err
	}
	return Extract(items, opts...)
}

type blockResult struct {
	block    *Block
	itemErrs []error
	err      error
}

// Extract is Decode on already tokenized items.
func Extract(items []Item, opts ...DecodeOption) (*Telemetry, error) {
	o := &decodeOptions{
		logger:          Logger(),
		concurrency:     1,
		payloadDuration: DefaultPayloadDuration,
	}
	for _, opt := range opts {
		opt(o)
	}

	diag := Diagnostics{Blocks: make(map[Kind]int)}
	var streams []Stream
	for _, s := range AllStreams(items) {
		if s.Kind == KindUnclassified {
			diag.Unclassified++
			continue
		}
		streams = append(streams, s)
	}
	if diag.Unclassified > 0 {
		o.logger.Debugf("skipped %d unclassified streams", diag.Unclassified)
	}

	results := decodeBlocks(streams, o.concurrency)

	blocks := make(map[Kind][]*Block)
	for i, r := range results {
		s := streams[i]
		for _, err := range r.itemErrs {
			diag.Errors.Add(&BlockError{Kind: s.Kind, Device: s.Device, Stream: s.Index, Err: err})
		}
		if r.err != nil {
			err := &BlockError{Kind: s.Kind, Device: s.Device, Stream: s.Index, Err: r.err}
			o.logger.Warnf("dropped block: %v", err)
			diag.Errors.Add(err)
			continue
		}
		blocks[s.Kind] = append(blocks[s.Kind], r.block)
		diag.Blocks[s.Kind]++
	}

	clock := newAnchorClock(blocks[KindGPS], o.payloadDuration)
	t := &Telemetry{}
	for _, kind := range Kinds {
		s, err := synthesize(kind, blocks[kind], clock, &diag, kindLogger{LoggerIF: o.logger, kind: kind})
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindGPS:
			t.GPS = s
		case KindGyro:
			t.Gyro = s
		case KindAccl:
			t.Accl = s
		}
	}
	t.Diagnostics = diag

	for _, kind := range o.required {
		if s := t.Series(kind); s == nil || s.Empty() {
			return nil, &NoTelemetryError{Kind: kind}
		}
	}
	return t, nil
}

// decodeBlocks parses streams on up to n goroutines and returns the
// results in stream order.
func decodeBlocks(streams []Stream, n int) []blockResult {
	results := make([]blockResult, len(streams))
	var g errgroup.Group
	g.SetLimit(n)
	for i := range streams {
		g.Go(func() error {
			var r blockResult
			r.block, r.itemErrs, r.err = ParseBlock(streams[i])
			results[i] = r
			return nil
		})
	}
	// Block errors are carried in results.
	g.Wait()
	return results
}

// anchorClock resolves the start time of a block.
type anchorClock struct {
	// device ordinal to the GPSU of its first timed GPS block
	gps     map[int]float64
	devices []int
	payload float64
}

func newAnchorClock(gps []*Block, payload time.Duration) *anchorClock {
	c := &anchorClock{
		gps:     make(map[int]float64),
		payload: payload.Seconds(),
	}
	for _, b := range gps {
		if !b.HasTime {
			continue
		}
		if _, ok := c.gps[b.Device]; !ok {
			c.gps[b.Device] = Seconds(b.Time)
			c.devices = append(c.devices, b.Device)
		}
	}
	slices.Sort(c.devices)
	return c
}

// at returns the start time of b. GPS blocks use their own GPSU, ACCL and
// GYRO blocks the GPSU of the GPS block sharing their device.
// Without any GPS time, the device ordinal counts payloads from zero.
func (c *anchorClock) at(b *Block) (float64, bool) {
	if b.Kind == KindGPS && len(c.gps) > 0 {
		return Seconds(b.Time), b.HasTime
	}
	return c.device(b.Device), true
}

// device returns the start time of a device ordinal. A device without
// timed GPS is placed whole payloads away from the nearest timed device,
// the preceding one on a tie.
func (c *anchorClock) device(d int) float64 {
	if t, ok := c.gps[d]; ok {
		return t
	}
	if len(c.devices) == 0 {
		return float64(d) * c.payload
	}
	i, _ := slices.BinarySearch(c.devices, d)
	near := c.devices[min(i, len(c.devices)-1)]
	if i > 0 && (i == len(c.devices) || d-c.devices[i-1] <= c.devices[i]-d) {
		near = c.devices[i-1]
	}
	return c.gps[near] + float64(d-near)*c.payload
}

func synthesize(kind Kind, blocks []*Block, clock *anchorClock, diag *Diagnostics, log LoggerIF) (*Series, error) {
	var (
		anchors []Anchor
		total   int
		untimed int
		// blocks of the span of the last anchor
		tail int
	)
	for _, b := range blocks {
		n := b.NumSamples()
		if n == 0 {
			continue
		}
		if t, ok := clock.at(b); ok {
			anchors = append(anchors, Anchor{Index: total, Time: t})
			tail = 0
		} else {
			untimed++
		}
		tail++
		total += n
	}
	if total == 0 {
		return EmptySeries(kind), nil
	}
	if untimed > 0 {
		log.Debugf("%d blocks without time merged into the preceding span", untimed)
		diag.Untimed += untimed
	}
	if len(anchors) == 0 {
		// Every timed GPS block of this kind is empty.
		for _, b := range blocks {
			if b.NumSamples() > 0 {
				anchors = []Anchor{{Index: 0, Time: clock.device(b.Device)}}
				break
			}
		}
	}

	steps, warnings, err := Steps(anchors, total, clock.payload*float64(tail))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warnf("%v", w)
	}
	diag.Warnings = append(diag.Warnings, warnings...)

	times := SampleTimes(anchors, steps, anchors[0].Time, total)
	log.Debugf("%d samples in %d blocks, steps %v", total, len(anchors), steps)
	return NewSeries(kind, blocks, times)
}
