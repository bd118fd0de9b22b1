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

// Package matroska reads telemetry tracks out of Matroska and WebM
// documents, including the concatenated fragments returned by Kinesis
// Video Streams.
package matroska

import (
	"github.com/at-wat/ebml-go"
)

// DefaultTimecodeScale is the Matroska default of one millisecond.
const DefaultTimecodeScale = 1000000

// Document is a sequence of EBML documents read at once.
type Document struct {
	Header  []EBMLHeader `ebml:"EBML"`
	Segment []Segment
}

type EBMLHeader struct {
	EBMLVersion            uint64
	EBMLReadVersion        uint64
	EBMLMaxIDLength        uint64
	EBMLMaxSizeLength      uint64
	EBMLDocType            string
	EBMLDocTypeVersion     uint64
	EBMLDocTypeReadVersion uint64
}

// DefaultHeader is the header written by Marshal.
var DefaultHeader = EBMLHeader{
	EBMLVersion:            1,
	EBMLReadVersion:        1,
	EBMLMaxIDLength:        4,
	EBMLMaxSizeLength:      8,
	EBMLDocType:            "matroska",
	EBMLDocTypeVersion:     2,
	EBMLDocTypeReadVersion: 2,
}

type Info struct {
	TimecodeScale   uint64
	SegmentUID      []byte `ebml:",omitempty"`
	SegmentFilename string `ebml:",omitempty"`
	Title           string `ebml:",omitempty"`
	MuxingApp       string
	WritingApp      string
}

type TrackEntry struct {
	Name        string `ebml:",omitempty"`
	TrackNumber uint64
	TrackUID    uint64
	CodecID     string
	CodecName   string `ebml:",omitempty"`
	TrackType   uint64
}

type Tracks struct {
	TrackEntry []TrackEntry
}

type BlockGroup struct {
	Block ebml.Block
}

type Cluster struct {
	Timecode    uint64
	Position    uint64 `ebml:",omitempty"`
	SimpleBlock []ebml.Block
	BlockGroup  []BlockGroup `ebml:",omitempty"`
}

type SimpleTag struct {
	TagName   string
	TagString string `ebml:",omitempty"`
	TagBinary string `ebml:",omitempty"`
}

type Tag struct {
	SimpleTag []SimpleTag
}

type Tags struct {
	Tag []Tag `ebml:",omitempty"`
}

type Segment struct {
	Info    Info
	Tracks  Tracks
	Cluster []Cluster
	Tags    Tags
}

// TimecodeScale returns the segment's nanoseconds per timecode unit.
func (s *Segment) TimecodeScale() uint64 {
	if s.Info.TimecodeScale == 0 {
		return DefaultTimecodeScale
	}
	return s.Info.TimecodeScale
}
