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

package matroska

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/at-wat/ebml-go"
)

// ErrNotFound is returned when no track matches.
var ErrNotFound = errors.New("no telemetry track")

// TrackMatcher selects the tracks to extract.
type TrackMatcher func(TrackEntry) bool

// MatchGPMD matches tracks carrying GoPro metadata, identified by a
// "gpmd" codec ID or the "GoPro MET" track name given by the cameras.
func MatchGPMD(t TrackEntry) bool {
	return strings.Contains(strings.ToLower(t.CodecID), "gpmd") ||
		strings.HasPrefix(t.Name, "GoPro MET")
}

func ByTrackNumber(n uint64) TrackMatcher {
	return func(t TrackEntry) bool {
		return t.TrackNumber == n
	}
}

func ByCodecID(id string) TrackMatcher {
	return func(t TrackEntry) bool {
		return t.CodecID == id
	}
}

// Payload is the data of one block of a matched track.
type Payload struct {
	TrackNumber uint64
	// Timecode is the absolute block timecode in units of the segment
	// TimecodeScale.
	Timecode int64
	// Time is the absolute block time.
	Time time.Duration
	Data []byte
}

// Read unmarshals every document of r.
// A reader ending in the middle of an element still returns what was read
// before, along with io.ErrUnexpectedEOF.
func Read(r io.Reader) (*Document, error) {
	doc := &Document{}
	if err := ebml.Unmarshal(r, doc); err != nil {
		return doc, fmt.Errorf("failed to read matroska: %w", err)
	}
	return doc, nil
}

// Payloads returns the blocks of the tracks matching match, in cluster
// order and by timecode within a cluster. Laced frames of a block are
// joined.
func (d *Document) Payloads(match TrackMatcher) ([]Payload, error) {
	var (
		ret     []Payload
		matched bool
	)
	for i := range d.Segment {
		seg := &d.Segment[i]
		tracks := make(map[uint64]bool)
		for _, t := range seg.Tracks.TrackEntry {
			if match(t) {
				tracks[t.TrackNumber] = true
				matched = true
			}
		}
		if len(tracks) == 0 {
			continue
		}
		scale := time.Duration(seg.TimecodeScale())
		for _, c := range seg.Cluster {
			var payloads []Payload
			add := func(b ebml.Block) {
				if !tracks[b.TrackNumber] {
					return
				}
				tc := int64(c.Timecode) + int64(b.Timecode)
				payloads = append(payloads, Payload{
					TrackNumber: b.TrackNumber,
					Timecode:    tc,
					Time:        time.Duration(tc) * scale,
					Data:        joinLaces(b.Data),
				})
			}
			for _, b := range c.SimpleBlock {
				add(b)
			}
			for _, g := range c.BlockGroup {
				add(g.Block)
			}
			// SimpleBlock and BlockGroup are decoded into separate slices.
			slices.SortStableFunc(payloads, func(a, b Payload) int {
				return cmp.Compare(a.Timecode, b.Timecode)
			})
			ret = append(ret, payloads...)
		}
	}
	if !matched {
		return nil, ErrNotFound
	}
	return ret, nil
}

func joinLaces(data [][]byte) []byte {
	if len(data) == 1 {
		return data[0]
	}
	var ret []byte
	for _, d := range data {
		ret = append(ret, d...)
	}
	return ret
}

// Extract reads r and returns the payloads of the matched tracks.
func Extract(r io.Reader, match TrackMatcher) ([]Payload, error) {
	doc, err := Read(r)
	if err != nil {
		return nil, err
	}
	return doc.Payloads(match)
}

// Concat joins payloads into a single telemetry buffer.
func Concat(payloads []Payload) []byte {
	var n int
	for _, p := range payloads {
		n += len(p.Data)
	}
	ret := make([]byte, 0, n)
	for _, p := range payloads {
		ret = append(ret, p.Data...)
	}
	return ret
}

// Marshal writes seg as a single document with the default header.
func Marshal(w io.Writer, seg Segment) error {
	data := struct {
		Header  EBMLHeader `ebml:"EBML"`
		Segment Segment
	}{
		Header:  DefaultHeader,
		Segment: seg,
	}
	if err := ebml.Marshal(&data, w); err != nil {
		return fmt.Errorf("ebml marshalling: %w", err)
	}
	return nil
}
