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

package ffprobe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeOutput = `{
    "streams": [
        {
            "index": 0,
            "codec_name": "h264",
            "codec_type": "video",
            "codec_tag_string": "avc1",
            "time_base": "1/90000"
        },
        {
            "index": 1,
            "codec_name": "aac",
            "codec_type": "audio",
            "codec_tag_string": "mp4a"
        },
        {
            "index": 2,
            "codec_type": "data",
            "codec_tag_string": "tmcd",
            "tags": {"handler_name": "GoPro TCD"}
        },
        {
            "index": 3,
            "codec_type": "data",
            "codec_tag_string": "gpmd",
            "duration": "12.012000",
            "tags": {"handler_name": "GoPro MET"}
        }
    ],
    "format": {
        "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
        "duration": "12.012000"
    }
}`

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string][]byte
	err     error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if r.err != nil {
		return nil, r.err
	}
	return r.outputs[name], nil
}

func TestClient_ReadFile(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]byte{
		"ffprobe": []byte(probeOutput),
		"ffmpeg":  {'D', 'E', 'V', 'C', 0, 4, 0, 0},
	}}
	c := New(WithRunner(r))

	data, err := c.ReadFile(context.Background(), "GH010001.MP4")
	require.NoError(t, err)
	assert.Equal(t, []byte{'D', 'E', 'V', 'C', 0, 4, 0, 0}, data)

	require.Len(t, r.calls, 2)
	assert.Equal(t, "ffprobe", r.calls[0].name)
	assert.Contains(t, r.calls[0].args, "-show_streams")
	assert.Equal(t, "ffmpeg", r.calls[1].name)
	assert.Equal(t,
		"-v error -i GH010001.MP4 -map 0:3 -codec copy -f rawvideo pipe:",
		strings.Join(r.calls[1].args, " "),
	)
}

func TestInfo_Find(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]byte{"ffprobe": []byte(probeOutput)}}
	info, err := New(WithRunner(r)).Probe(context.Background(), "GH010001.MP4")
	require.NoError(t, err)
	require.Len(t, info.Streams, 4)

	testCases := map[string]struct {
		tag   string
		index int
		ok    bool
	}{
		"Telemetry": {CodecTagGPMD, 3, true},
		"Timecode":  {"tmcd", 2, true},
		"Missing":   {"gpmf", 0, false},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			s, ok := info.Find(c.tag)
			require.Equal(t, c.ok, ok)
			if ok {
				assert.Equal(t, c.index, s.Index)
			}
		})
	}
	assert.Equal(t, "GoPro MET", info.Streams[3].Tags["handler_name"])
}

func TestClient_Errors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		r := &fakeRunner{outputs: map[string][]byte{"ffprobe": []byte(`{"streams": [{"index": 0, "codec_tag_string": "avc1"}]}`)}}
		_, err := New(WithRunner(r)).ReadFile(context.Background(), "a.mp4")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Len(t, r.calls, 1)
	})
	t.Run("Command", func(t *testing.T) {
		errFailed := errors.New("exit status 1")
		r := &fakeRunner{err: errFailed}
		_, err := New(WithRunner(r), WithCommands("/opt/ffprobe", "/opt/ffmpeg")).ReadFile(context.Background(), "a.mp4")
		assert.ErrorIs(t, err, errFailed)
		assert.Equal(t, "/opt/ffprobe", r.calls[0].name)
	})
	t.Run("InvalidJSON", func(t *testing.T) {
		r := &fakeRunner{outputs: map[string][]byte{"ffprobe": []byte("not json")}}
		_, err := New(WithRunner(r)).Probe(context.Background(), "a.mp4")
		assert.Error(t, err)
	})
}
