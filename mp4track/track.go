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

// Package mp4track locates the GoPro metadata track of MP4 and MOV files
// and reads its samples.
package mp4track

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abema/go-mp4"
)

// ErrNotFound is returned when the file has no gpmd track.
var ErrNotFound = errors.New("no gpmd track")

var boxTypeGPMD = mp4.StrToBoxType("gpmd")

// Track is a gpmd track with the location of its samples.
type Track struct {
	TrackID   uint32
	Timescale uint32
	Samples   []Sample
}

type Sample struct {
	Offset   int64
	Size     uint32
	Time     time.Duration
	Duration time.Duration
}

// Payload is the data of a sample.
type Payload struct {
	Time     time.Duration
	Duration time.Duration
	Data     []byte
}

// Find returns the first track whose sample description is gpmd.
func Find(r io.ReadSeeker) (*Track, error) {
	ids, err := gpmdTrackIDs(r)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	info, err := mp4.Probe(r)
	if err != nil {
		return nil, fmt.Errorf("failed to probe mp4: %w", err)
	}
	for _, t := range info.Tracks {
		if t.TrackID == ids[0] {
			return newTrack(t), nil
		}
	}
	return nil, ErrNotFound
}

func gpmdTrackIDs(r io.ReadSeeker) ([]uint32, error) {
	var (
		current uint32
		ids     []uint32
	)
	_, err := mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (any, error) {
		switch h.BoxInfo.Type {
		case mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(),
			mp4.BoxTypeMinf(), mp4.BoxTypeStbl(), mp4.BoxTypeStsd():
			return h.Expand()
		case mp4.BoxTypeTkhd():
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, err
			}
			current = box.(*mp4.Tkhd).TrackID
		case boxTypeGPMD:
			ids = append(ids, current)
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read mp4 boxes: %w", err)
	}
	return ids, nil
}

func newTrack(t *mp4.Track) *Track {
	ret := &Track{
		TrackID:   t.TrackID,
		Timescale: t.Timescale,
	}
	scale := func(v uint64) time.Duration {
		if t.Timescale == 0 {
			return 0
		}
		return time.Duration(v) * time.Second / time.Duration(t.Timescale)
	}

	var (
		i       int
		elapsed uint64
	)
	for _, c := range t.Chunks {
		offset := int64(c.DataOffset)
		for j := uint32(0); j < c.SamplesPerChunk && i < len(t.Samples); j++ {
			s := t.Samples[i]
			ret.Samples = append(ret.Samples, Sample{
				Offset:   offset,
				Size:     s.Size,
				Time:     scale(elapsed),
				Duration: scale(uint64(s.TimeDelta)),
			})
			offset += int64(s.Size)
			elapsed += uint64(s.TimeDelta)
			i++
		}
	}
	return ret
}

// Payloads reads every sample of the track from r.
func (t *Track) Payloads(r io.ReadSeeker) ([]Payload, error) {
	ret := make([]Payload, 0, len(t.Samples))
	for i, s := range t.Samples {
		if _, err := r.Seek(s.Offset, io.SeekStart); err != nil {
			return nil, err
		}
		data := make([]byte, s.Size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("failed to read sample %d: %w", i, err)
		}
		ret = append(ret, Payload{
			Time:     s.Time,
			Duration: s.Duration,
			Data:     data,
		})
	}
	return ret, nil
}

// Extract returns the concatenated samples of the gpmd track.
func Extract(r io.ReadSeeker) ([]byte, error) {
	t, err := Find(r)
	if err != nil {
		return nil, err
	}
	payloads, err := t.Payloads(r)
	if err != nil {
		return nil, err
	}
	var ret []byte
	for _, p := range payloads {
		ret = append(ret, p.Data...)
	}
	return ret, nil
}

// ReadFile is Extract on the named file.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Extract(f)
}
