// Copyright 2020 SEQSENSE, Inc.
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

// Package kvsmockserver is a fake of the archived media API of Kinesis
// Video Streams for tests.
package kvsmockserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/at-wat/ebml-go"

	"github.com/seqsense/gpmf"
	"github.com/seqsense/gpmf/matroska"
)

// ErrorCodeMissingFragment is reported in the exception tags of unknown
// fragments.
const ErrorCodeMissingFragment = "MISSING_FRAGMENT"

type KinesisVideoServer struct {
	*httptest.Server
	fragments map[uint64]FragmentTest
	tracks    []matroska.TrackEntry
	mu        sync.Mutex

	producerTimestampOrigin float64
	serverTimestampOrigin   float64
}

type KinesisVideoServerOption func(*KinesisVideoServer)

// WithTimestampOrigin sets the producer and server timestamps in seconds
// of the cluster timecode zero.
func WithTimestampOrigin(producer, server float64) KinesisVideoServerOption {
	return func(s *KinesisVideoServer) {
		s.producerTimestampOrigin = producer
		s.serverTimestampOrigin = server
	}
}

// WithTracks sets the tracks written to each fragment.
func WithTracks(tracks ...matroska.TrackEntry) KinesisVideoServerOption {
	return func(s *KinesisVideoServer) {
		s.tracks = tracks
	}
}

func NewKinesisVideoServer(opts ...KinesisVideoServerOption) *KinesisVideoServer {
	s := &KinesisVideoServer{
		fragments: make(map[uint64]FragmentTest),
		tracks: []matroska.TrackEntry{
			{Name: "test_track", TrackNumber: 1, TrackUID: 123, CodecID: "V_MPEG4/ISO/AVC", TrackType: 1},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/getDataEndpoint", s.getDataEndpoint)
	mux.HandleFunc("/listFragments", s.listFragments)
	mux.HandleFunc("/getMediaForFragmentList", s.getMediaForFragmentList)
	s.Server = httptest.NewServer(mux)
	return s
}

// FragmentNumberFromTimecode returns the fragment number given to the
// fragment registered with the cluster timecode.
func FragmentNumberFromTimecode(timecode uint64) string {
	return fmt.Sprintf("%020d", timecode)
}

func (s *KinesisVideoServer) GetFragment(timecode uint64) (FragmentTest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fragment, ok := s.fragments[timecode]
	return fragment, ok
}

func (s *KinesisVideoServer) RegisterFragment(fragment FragmentTest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments[fragment.Cluster.Timecode] = fragment
}

// timestamps returns the producer and server timestamps in milliseconds.
func (s *KinesisVideoServer) timestamps(timecode uint64) (int64, int64) {
	return int64(math.Round(s.producerTimestampOrigin*1000)) + int64(timecode),
		int64(math.Round(s.serverTimestampOrigin*1000)) + int64(timecode)
}

func (s *KinesisVideoServer) sortedFragments() []FragmentTest {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]FragmentTest, 0, len(s.fragments))
	for _, f := range s.fragments {
		ret = append(ret, f)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Cluster.Timecode < ret[j].Cluster.Timecode
	})
	return ret
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)
	fmt.Fprintf(w, "%v", err)
}

func (s *KinesisVideoServer) getDataEndpoint(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `{"DataEndpoint": "%s"}`, s.URL)
}

func millis(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}

func (s *KinesisVideoServer) listFragments(w http.ResponseWriter, r *http.Request) {
	input := &listFragmentsInput{}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var fragments []fragment
	for _, f := range s.sortedFragments() {
		producer, server := s.timestamps(f.Cluster.Timecode)
		if sel := input.FragmentSelector; sel != nil && sel.TimestampRange != nil {
			ts := server
			if sel.FragmentSelectorType == "PRODUCER_TIMESTAMP" {
				ts = producer
			}
			if start := sel.TimestampRange.StartTimestamp; start != nil && ts < millis(*start) {
				continue
			}
			if end := sel.TimestampRange.EndTimestamp; end != nil && ts > millis(*end) {
				continue
			}
		}
		producerSec, serverSec := float64(producer)/1000, float64(server)/1000
		fragments = append(fragments, fragment{
			FragmentLengthInMilliseconds: f.length(),
			FragmentNumber:               strPtr(FragmentNumberFromTimecode(f.Cluster.Timecode)),
			FragmentSizeInBytes:          f.size(),
			ProducerTimestamp:            &producerSec,
			ServerTimestamp:              &serverSec,
		})
	}

	var offset int
	if input.NextToken != nil {
		var err error
		if offset, err = strconv.Atoi(*input.NextToken); err != nil || offset > len(fragments) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid token: %s", *input.NextToken))
			return
		}
	}
	out := listFragmentsOutput{Fragments: fragments[offset:]}
	if input.MaxResults != nil && int(*input.MaxResults) < len(out.Fragments) {
		out.Fragments = out.Fragments[:*input.MaxResults]
		out.NextToken = strPtr(strconv.Itoa(offset + int(*input.MaxResults)))
	}
	if out.Fragments == nil {
		out.Fragments = []fragment{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *KinesisVideoServer) getMediaForFragmentList(w http.ResponseWriter, r *http.Request) {
	input := &getMediaForFragmentListInput{}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	byNumber := make(map[string]FragmentTest)
	for _, f := range s.sortedFragments() {
		byNumber[FragmentNumberFromTimecode(f.Cluster.Timecode)] = f
	}

	buf := bytes.NewBuffer(nil)
	for _, id := range input.Fragments {
		data := &struct {
			Header  matroska.EBMLHeader `ebml:"EBML"`
			Segment segment
		}{Header: matroska.DefaultHeader}
		data.Segment.Info = matroska.Info{
			TimecodeScale: matroska.DefaultTimecodeScale,
			MuxingApp:     "kvsmockserver",
			WritingApp:    "kvsmockserver",
		}
		data.Segment.Tracks.TrackEntry = s.tracks

		f, ok := byNumber[id]
		if !ok {
			data.Segment.Tags.Tag = []matroska.Tag{{SimpleTag: []matroska.SimpleTag{
				{TagName: matroska.TagNameFragmentNumber, TagString: id},
				{TagName: matroska.TagNameExceptionErrorCode, TagString: ErrorCodeMissingFragment},
				{TagName: matroska.TagNameExceptionMessage, TagString: "fragment not found"},
			}}}
		} else {
			producer, server := s.timestamps(f.Cluster.Timecode)
			data.Segment.Tags.Tag = append([]matroska.Tag{{SimpleTag: []matroska.SimpleTag{
				{TagName: matroska.TagNameFragmentNumber, TagString: id},
				{TagName: matroska.TagNameServerTimestamp, TagString: gpmf.FormatTimestamp(float64(server) / 1000)},
				{TagName: matroska.TagNameProducerTimestamp, TagString: gpmf.FormatTimestamp(float64(producer) / 1000)},
			}}}, f.Tags.Tag...)
			data.Segment.Cluster = []ClusterTest{f.Cluster}
		}
		if err := ebml.Marshal(data, buf); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	w.Header().Set("Content-Type", "video/webm")
	w.Write(buf.Bytes())
}

type segment struct {
	Info    matroska.Info
	Tracks  matroska.Tracks
	Tags    TagsTest
	Cluster []ClusterTest
}

type FragmentTest struct {
	Cluster ClusterTest
	Tags    TagsTest
}

func (f FragmentTest) length() int64 {
	var l int64
	for _, b := range f.Cluster.SimpleBlock {
		l = max(l, int64(b.Timecode))
	}
	return l
}

func (f FragmentTest) size() int64 {
	var n int64
	for _, b := range f.Cluster.SimpleBlock {
		for _, d := range b.Data {
			n += int64(len(d))
		}
	}
	return n
}

type ClusterTest struct {
	Timecode    uint64
	Position    uint64 `ebml:",omitempty"`
	SimpleBlock []ebml.Block
}

type TagsTest struct {
	Tag []matroska.Tag `ebml:",omitempty"`
}

func strPtr(s string) *string {
	return &s
}
