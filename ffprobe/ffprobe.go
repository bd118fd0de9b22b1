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

// Package ffprobe locates and extracts the gpmd stream of any container
// readable by the ffprobe and ffmpeg commands.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// CodecTagGPMD is the codec tag of GoPro metadata streams.
const CodecTagGPMD = "gpmd"

// ErrNotFound is returned when no stream has the requested codec tag.
var ErrNotFound = errors.New("no gpmd stream")

// Runner runs a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w\n%s", name, err, stderr.String())
	}
	return out, nil
}

type Client struct {
	runner  Runner
	ffprobe string
	ffmpeg  string
}

type Option func(*Client)

func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// WithCommands sets the ffprobe and ffmpeg executables.
func WithCommands(ffprobe, ffmpeg string) Option {
	return func(c *Client) {
		c.ffprobe = ffprobe
		c.ffmpeg = ffmpeg
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		runner:  ExecRunner{},
		ffprobe: "ffprobe",
		ffmpeg:  "ffmpeg",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type Info struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	CodecTagString string            `json:"codec_tag_string"`
	TimeBase       string            `json:"time_base"`
	Duration       string            `json:"duration"`
	Tags           map[string]string `json:"tags"`
}

type Format struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// Find returns the first stream with the codec tag.
func (i *Info) Find(tag string) (*Stream, bool) {
	for k := range i.Streams {
		if i.Streams[k].CodecTagString == tag {
			return &i.Streams[k], true
		}
	}
	return nil, false
}

// Probe lists the streams of path.
func (c *Client) Probe(ctx context.Context, path string) (*Info, error) {
	raw, err := c.runner.Run(ctx, c.ffprobe,
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path,
	)
	if err != nil {
		return nil, err
	}
	info := &Info{}
	if err := json.Unmarshal(raw, info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return info, nil
}

// Extract copies the stream at index out of path without transcoding.
func (c *Client) Extract(ctx context.Context, path string, index int) ([]byte, error) {
	return c.runner.Run(ctx, c.ffmpeg,
		"-v", "error", "-i", path,
		"-map", "0:"+strconv.Itoa(index), "-codec", "copy", "-f", "rawvideo", "pipe:",
	)
}

// ReadFile returns the gpmd stream of path.
func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	info, err := c.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	s, ok := info.Find(CodecTagGPMD)
	if !ok {
		return nil, ErrNotFound
	}
	return c.Extract(ctx, path, s.Index)
}
