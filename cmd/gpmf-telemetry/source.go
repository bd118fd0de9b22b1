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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/seqsense/gpmf"
	"github.com/seqsense/gpmf/ffprobe"
	"github.com/seqsense/gpmf/matroska"
	"github.com/seqsense/gpmf/mediafragment"
	"github.com/seqsense/gpmf/mp4track"
)

// maxFragmentsPerRequest is the limit of GetMediaForFragmentList.
const maxFragmentsPerRequest = 1000

func load(ctx context.Context, cmd, input string, o *options, l gpmf.LoggerIF) ([]byte, error) {
	switch cmd {
	case "mp4":
		return mp4track.ReadFile(input)
	case "mkv":
		return loadMatroska(input, o.track)
	case "ffmpeg":
		return ffprobe.New(ffprobe.WithCommands(o.ffprobe, o.ffmpeg)).ReadFile(ctx, input)
	case "kvs":
		return loadKinesisVideo(ctx, input, o, l)
	case "raw":
		return os.ReadFile(input)
	}
	return nil, fmt.Errorf("unknown command: %s", cmd)
}

func loadMatroska(path string, track uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	match := matroska.MatchGPMD
	if track != 0 {
		match = matroska.ByTrackNumber(track)
	}
	payloads, err := matroska.Extract(f, match)
	if err != nil {
		return nil, err
	}
	return matroska.Concat(payloads), nil
}

func timeRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	e := now
	if end != "" {
		var err error
		if e, err = time.Parse(time.RFC3339, end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
		}
	}
	s := e.Add(-time.Hour)
	if start != "" {
		var err error
		if s, err = time.Parse(time.RFC3339, start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
		}
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time %v is not before end time %v", s, e)
	}
	return s, e, nil
}

func loadKinesisVideo(ctx context.Context, stream string, o *options, l gpmf.LoggerIF) ([]byte, error) {
	start, end, err := timeRange(o.start, o.end, time.Now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	cli, err := mediafragment.New(ctx, mediafragment.StreamName(stream), cfg)
	if err != nil {
		return nil, err
	}

	selector := mediafragment.WithServerTimestampRange(start, end)
	if o.producer {
		selector = mediafragment.WithProducerTimestampRange(start, end)
	}
	list, err := cli.ListAllFragments(ctx, selector)
	if err != nil {
		return nil, err
	}
	list.SortByProducerTimestamp()
	list.Uniq()
	l.Infof("%d fragments between %v and %v", list.Len(), start, end)

	ids := list.FragmentIDs()
	var payloads []matroska.Payload
	for len(ids) > 0 {
		n := min(len(ids), maxFragmentsPerRequest)
		p, err := cli.Telemetry(ctx, ids[:n], matroska.MatchGPMD, func(err error) {
			l.Warnf("%v", err)
		})
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, p...)
		ids = ids[n:]
	}
	return matroska.Concat(payloads), nil
}
