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
	"encoding/binary"
	"io"
)

// HeaderSize is the length of an item header: key, type, size and repeat.
const HeaderSize = 8

// Key is a four byte tag code. It is usually printable ASCII but
// nothing in the container guarantees that.
type Key [4]byte

func (k Key) String() string {
	return string(k[:])
}

// KeyOf converts a four character string literal into a Key.
func KeyOf(s string) Key {
	var k Key
	copy(k[:], s)
	return k
}

// Well known keys.
var (
	KeyDEVC = KeyOf("DEVC")
	KeySTRM = KeyOf("STRM")
	KeySTNM = KeyOf("STNM")
	KeySCAL = KeyOf("SCAL")
	KeyUNIT = KeyOf("UNIT")
	KeySIUN = KeyOf("SIUN")
	KeyTSMP = KeyOf("TSMP")
	KeyGPS5 = KeyOf("GPS5")
	KeyGPSU = KeyOf("GPSU")
	KeyGPSF = KeyOf("GPSF")
	KeyGPSP = KeyOf("GPSP")
	KeyACCL = KeyOf("ACCL")
	KeyGYRO = KeyOf("GYRO")
)

// Item is one KLV unit of the telemetry container.
// Payload keeps the zero padding up to the next 4 byte boundary.
type Item struct {
	Key      Key
	Type     byte
	Size     uint8
	Repeat   uint16
	Payload  []byte
	Children []Item
}

// Nested reports whether the item is a container of other items.
func (it *Item) Nested() bool {
	return it.Type == TypeNested
}

// DataSize is the unpadded payload length.
func (it *Item) DataSize() int {
	return int(it.Size) * int(it.Repeat)
}

// Data returns the payload without padding.
func (it *Item) Data() []byte {
	n := it.DataSize()
	if n > len(it.Payload) {
		n = len(it.Payload)
	}
	return it.Payload[:n]
}

// Find returns the first child with the given key.
func (it *Item) Find(key Key) (*Item, bool) {
	for i := range it.Children {
		if it.Children[i].Key == key {
			return &it.Children[i], true
		}
	}
	return nil, false
}

// Ceil4 rounds n up to the next multiple of 4.
func Ceil4(n int) int {
	return (n + 3) &^ 3
}

// Reader walks a buffer item by item.
// Each call to Next consumes one top level item; the sequence cannot be
// rewound.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the cursor position in the buffer.
func (r *Reader) Offset() int {
	return r.off
}

// Next returns the next item, or io.EOF when the buffer is consumed.
// Nested items are returned with their children already read.
// Once an error is returned, every following call returns it again.
func (r *Reader) Next() (Item, error) {
	if r.err != nil {
		return Item{}, r.err
	}
	if r.off == len(r.buf) {
		return Item{}, io.EOF
	}
	it, n, err := readItem(r.buf[r.off:], r.off)
	if err != nil {
		r.err = err
		return Item{}, err
	}
	r.off += n
	return it, nil
}

func readItem(b []byte, base int) (Item, int, error) {
	if len(b) < HeaderSize {
		return Item{}, 0, &TruncatedHeaderError{Offset: base, Remaining: len(b)}
	}
	var it Item
	copy(it.Key[:], b[0:4])
	it.Type = b[4]
	it.Size = b[5]
	it.Repeat = binary.BigEndian.Uint16(b[6:8])

	n := Ceil4(it.DataSize())
	if len(b)-HeaderSize < n {
		return Item{}, 0, &TruncatedPayloadError{
			Offset:    base,
			Key:       it.Key,
			Required:  n,
			Remaining: len(b) - HeaderSize,
		}
	}
	it.Payload = b[HeaderSize : HeaderSize+n]

	if it.Nested() {
		children, err := readItems(it.Data(), base+HeaderSize)
		if err != nil {
			return Item{}, 0, err
		}
		it.Children = children
	}
	return it, HeaderSize + n, nil
}

func readItems(b []byte, base int) ([]Item, error) {
	var items []Item
	for off := 0; off < len(b); {
		it, n, err := readItem(b[off:], base+off)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		off += n
	}
	return items, nil
}

// Tokenize reads the whole buffer. On a structural error no item is
// returned.
func Tokenize(buf []byte) ([]Item, error) {
	r := NewReader(buf)
	var items []Item
	for {
		it, err := r.Next()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
}
