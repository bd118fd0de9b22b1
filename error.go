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

package gpmf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTruncated is matched by both truncation errors.
	ErrTruncated = errors.New("truncated buffer")
	// ErrZeroScale is returned when a SCAL entry is zero.
	ErrZeroScale = errors.New("zero scale factor")
	// ErrIndexOrder is returned when block start indices do not increase.
	ErrIndexOrder = errors.New("block start indices are not increasing")
)

// TruncatedHeaderError is returned when fewer than HeaderSize bytes are
// left where an item header is expected.
type TruncatedHeaderError struct {
	Offset    int
	Remaining int
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("truncated header at offset %d: %d bytes remaining", e.Offset, e.Remaining)
}

func (e *TruncatedHeaderError) Is(err error) bool {
	return err == ErrTruncated
}

// TruncatedPayloadError is returned when the payload declared by a header
// runs past the end of the buffer.
type TruncatedPayloadError struct {
	Offset    int
	Key       Key
	Required  int
	Remaining int
}

func (e *TruncatedPayloadError) Error() string {
	return fmt.Sprintf("truncated payload of %q at offset %d: %d bytes required, %d remaining",
		e.Key.String(), e.Offset, e.Required, e.Remaining)
}

func (e *TruncatedPayloadError) Is(err error) bool {
	return err == ErrTruncated
}

// UnsupportedTypeError is returned by the typed decoder for a type code
// outside of its table.
type UnsupportedTypeError struct {
	Key  Key
	Type byte
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %q (0x%02x) of %q", rune(e.Type), e.Type, e.Key.String())
}

// ShapeMismatchError is returned when a payload cannot be reshaped into
// rows of the expected width.
type ShapeMismatchError struct {
	Key   Key
	Count int
	Width int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%q: %d values do not fit rows of width %d", e.Key.String(), e.Count, e.Width)
}

// ScaleArityError is returned when a SCAL vector does not match the number
// of columns.
type ScaleArityError struct {
	Scales  int
	Columns int
}

func (e *ScaleArityError) Error() string {
	return fmt.Sprintf("%d scale factors for %d columns", e.Scales, e.Columns)
}

// MissingClassifyingKeyError is returned when a stream carries none of
// GPS5, ACCL or GYRO.
type MissingClassifyingKeyError struct {
	Keys []Key
}

func (e *MissingClassifyingKeyError) Error() string {
	keys := make([]string, 0, len(e.Keys))
	for _, k := range e.Keys {
		keys = append(keys, k.String())
	}
	return fmt.Sprintf("no classifying key in stream [%s]", strings.Join(keys, " "))
}

// NonMonotonicTimestampWarning reports a negative synthesized step, i.e.
// out of order block timestamps. It is never fatal.
type NonMonotonicTimestampWarning struct {
	Anchor int
	Step   float64
}

func (e *NonMonotonicTimestampWarning) Error() string {
	return fmt.Sprintf("timestamps go backwards after anchor %d (step %g s)", e.Anchor, e.Step)
}

// BlockError wraps an error scoped to a single stream block.
type BlockError struct {
	Kind   Kind
	Device int
	Stream int
	Err    error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%s block (device %d, stream %d): %v", e.Kind, e.Device, e.Stream, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// NoTelemetryError is returned when a required kind has no samples.
type NoTelemetryError struct {
	Kind Kind
}

func (e *NoTelemetryError) Error() string {
	return fmt.Sprintf("no %s telemetry found", e.Kind)
}
