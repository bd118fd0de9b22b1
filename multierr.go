// Copyright 2021 SEQSENSE, Inc.
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

package gpmf

import (
	"errors"
)

// MultiError collects block scoped errors of a single decode.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 1 {
		return me[0].Error()
	}
	str := "multiple errors:"
	for _, e := range me {
		str += " '" + e.Error() + "'"
	}
	return str
}

func (me MultiError) Is(err error) bool {
	for _, e := range me {
		if errors.Is(e, err) {
			return true
		}
	}
	return false
}

func (me MultiError) As(target interface{}) bool {
	for _, e := range me {
		if errors.As(e, target) {
			return true
		}
	}
	return false
}

func (me *MultiError) Add(err error) {
	if err == nil {
		return
	}
	*me = append(*me, err)
}

// Err returns nil when nothing was collected.
func (me MultiError) Err() error {
	if len(me) == 0 {
		return nil
	}
	return me
}

// Diagnostics is the non-fatal outcome of a decode.
type Diagnostics struct {
	// Errors holds *BlockError values of dropped blocks and failed items.
	Errors MultiError
	// Warnings holds *NonMonotonicTimestampWarning values.
	Warnings []error
	// Unclassified counts STRM containers with none of GPS5, ACCL, GYRO.
	Unclassified int
	// Untimed counts blocks merged into the preceding span for lack of a
	// timestamp.
	Untimed int
	// Blocks counts decoded blocks per kind.
	Blocks map[Kind]int
}
