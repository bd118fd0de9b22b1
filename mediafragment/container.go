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

package mediafragment

import (
	"github.com/at-wat/ebml-go"

	"github.com/seqsense/gpmf/matroska"
)

// container receives the elements of consecutive fragments through
// channels while the response is being read.
type container struct {
	Header  matroska.EBMLHeader `ebml:"EBML"`
	Segment segment             `ebml:",size=unknown"`
}

type segment struct {
	Info    matroska.Info
	Tracks  matroska.Tracks
	Tags    tags
	Cluster cluster `ebml:",size=unknown"`
}

type cluster struct {
	Timecode    chan uint64
	Position    uint64 `ebml:",omitempty"`
	SimpleBlock chan ebml.Block
}

type tags struct {
	Tag chan *matroska.Tag `ebml:",omitempty"`
}
