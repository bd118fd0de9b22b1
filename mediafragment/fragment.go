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
	"fmt"
	"time"

	"github.com/at-wat/ebml-go"

	"github.com/seqsense/gpmf"
	"github.com/seqsense/gpmf/matroska"
)

// Fragment is the blocks of one archived fragment.
type Fragment []*BlockWithMetadata

type BlockWithMetadata struct {
	*BlockWithBaseTimecode
	*FragmentMetadata
}

type FragmentMetadata struct {
	FragmentNumber    string
	ProducerTimestamp time.Time
	ServerTimestamp   time.Time
	Tags              map[string]matroska.SimpleTag
}

type BlockWithBaseTimecode struct {
	Timecode uint64
	Block    ebml.Block
}

// AbsTimecode returns the cluster timecode plus the block's relative one.
func (bt *BlockWithBaseTimecode) AbsTimecode() int64 {
	return int64(bt.Timecode) + int64(bt.Block.Timecode)
}

type FragmentError struct {
	FragmentNumber string
	Code           string
	Message        string
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragmentNumber:%s code:%s message:%s", e.FragmentNumber, e.Code, e.Message)
}

// parseTimestamp parses the "<sec>.<millis>" text of the timestamp tags.
func parseTimestamp(s string) (time.Time, error) {
	sec, err := gpmf.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	return gpmf.Time(sec), nil
}

// fragmentError returns the exception reported in tags, if any.
func fragmentError(tags []matroska.SimpleTag) *FragmentError {
	var err *FragmentError
	var number string
	for _, t := range tags {
		switch t.TagName {
		case matroska.TagNameFragmentNumber:
			number = t.TagString
		case matroska.TagNameExceptionErrorCode:
			if err == nil {
				err = &FragmentError{}
			}
			err.Code = t.TagString
		case matroska.TagNameExceptionMessage:
			if err == nil {
				err = &FragmentError{}
			}
			err.Message = t.TagString
		}
	}
	if err != nil {
		err.FragmentNumber = number
	}
	return err
}
