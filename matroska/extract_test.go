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
	"bytes"
	"testing"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSegment() Segment {
	return Segment{
		Info: Info{
			TimecodeScale: DefaultTimecodeScale,
			MuxingApp:     "gpmf",
			WritingApp:    "gpmf",
		},
		Tracks: Tracks{
			TrackEntry: []TrackEntry{
				{Name: "video", TrackNumber: 1, TrackUID: 1, CodecID: "V_MPEG4/ISO/AVC", TrackType: 1},
				{Name: "GoPro MET", TrackNumber: 2, TrackUID: 2, CodecID: "S_GPMD", TrackType: 0x21},
			},
		},
		Cluster: []Cluster{
			{
				Timecode: 1000,
				SimpleBlock: []ebml.Block{
					{TrackNumber: 1, Timecode: 0, Keyframe: true, Data: [][]byte{{0xFF}}},
					{TrackNumber: 2, Timecode: 0, Keyframe: true, Data: [][]byte{{1, 2, 3, 4}}},
					{TrackNumber: 1, Timecode: 33, Data: [][]byte{{0xFE}}},
				},
			},
			{
				Timecode: 2000,
				SimpleBlock: []ebml.Block{
					{TrackNumber: 2, Timecode: 10, Keyframe: true, Data: [][]byte{{5, 6, 7, 8}}},
				},
				BlockGroup: []BlockGroup{
					{Block: ebml.Block{TrackNumber: 2, Timecode: 500, Data: [][]byte{{9, 10, 11, 12}}}},
				},
			},
		},
	}
}

func TestExtract(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Marshal(buf, testSegment()))

	payloads, err := Extract(bytes.NewReader(buf.Bytes()), MatchGPMD)
	require.NoError(t, err)
	require.Len(t, payloads, 3)

	expected := []Payload{
		{TrackNumber: 2, Timecode: 1000, Time: time.Second, Data: []byte{1, 2, 3, 4}},
		{TrackNumber: 2, Timecode: 2010, Time: 2010 * time.Millisecond, Data: []byte{5, 6, 7, 8}},
		{TrackNumber: 2, Timecode: 2500, Time: 2500 * time.Millisecond, Data: []byte{9, 10, 11, 12}},
	}
	assert.Equal(t, expected, payloads)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, Concat(payloads))
}

func TestExtract_MixedBlocks(t *testing.T) {
	seg := testSegment()
	seg.Cluster = []Cluster{{
		Timecode: 0,
		SimpleBlock: []ebml.Block{
			{TrackNumber: 2, Timecode: 1000, Keyframe: true, Data: [][]byte{{2}}},
			{TrackNumber: 2, Timecode: 3000, Keyframe: true, Data: [][]byte{{4}}},
		},
		BlockGroup: []BlockGroup{
			{Block: ebml.Block{TrackNumber: 2, Timecode: 0, Data: [][]byte{{1}}}},
			{Block: ebml.Block{TrackNumber: 2, Timecode: 2000, Data: [][]byte{{3}}}},
		},
	}}
	buf := &bytes.Buffer{}
	require.NoError(t, Marshal(buf, seg))

	payloads, err := Extract(buf, MatchGPMD)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, Concat(payloads))
	for i, p := range payloads {
		assert.Equal(t, time.Duration(i)*time.Second, p.Time)
	}
}

func TestExtract_Matchers(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Marshal(buf, testSegment()))

	testCases := map[string]struct {
		match    TrackMatcher
		expected int
		err      error
	}{
		"TrackNumber": {ByTrackNumber(1), 2, nil},
		"CodecID":     {ByCodecID("S_GPMD"), 3, nil},
		"NotFound":    {ByCodecID("A_OPUS"), 0, ErrNotFound},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			payloads, err := Extract(bytes.NewReader(buf.Bytes()), c.match)
			if c.err != nil {
				assert.ErrorIs(t, err, c.err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, payloads, c.expected)
		})
	}
}

func TestMatchGPMD(t *testing.T) {
	testCases := map[string]struct {
		track    TrackEntry
		expected bool
	}{
		"CodecID":  {TrackEntry{CodecID: "gpmd"}, true},
		"Upper":    {TrackEntry{CodecID: "S_GPMD"}, true},
		"Name":     {TrackEntry{Name: "GoPro MET  "}, true},
		"Video":    {TrackEntry{Name: "GoPro AVC", CodecID: "V_MPEG4/ISO/AVC"}, false},
		"Untagged": {TrackEntry{}, false},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			assert.Equal(t, c.expected, MatchGPMD(c.track))
		})
	}
}

func TestSegment_TimecodeScale(t *testing.T) {
	seg := testSegment()
	seg.Info.TimecodeScale = 0
	assert.Equal(t, uint64(DefaultTimecodeScale), seg.TimecodeScale())

	seg.Info.TimecodeScale = 1000
	buf := &bytes.Buffer{}
	require.NoError(t, Marshal(buf, seg))
	payloads, err := Extract(buf, MatchGPMD)
	require.NoError(t, err)
	assert.Equal(t, 1000*time.Microsecond, payloads[0].Time)
}

func TestRead_Truncated(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Marshal(buf, testSegment()))

	_, err := Read(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	assert.Error(t, err)
}
