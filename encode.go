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
	"fmt"
	"math"
	"time"
)

// Encode serializes items, padding every payload to 4 bytes.
func Encode(items ...Item) []byte {
	var b []byte
	for _, it := range items {
		b = appendItem(b, it)
	}
	return b
}

func appendItem(b []byte, it Item) []byte {
	b = append(b, it.Key[:]...)
	b = append(b, it.Type, it.Size)
	b = binary.BigEndian.AppendUint16(b, it.Repeat)
	data := it.Data()
	b = append(b, data...)
	for i := len(data); i < Ceil4(it.DataSize()); i++ {
		b = append(b, 0)
	}
	return b
}

// NewNested builds a container item around children. The struct size is
// raised above 4 bytes when the payload has more than math.MaxUint16 words.
func NewNested(key Key, children ...Item) (Item, error) {
	payload := Encode(children...)
	for size := 4; size <= math.MaxUint8; size += 4 {
		if len(payload)%size != 0 || len(payload)/size > math.MaxUint16 {
			continue
		}
		return Item{
			Key:      key,
			Type:     TypeNested,
			Size:     uint8(size),
			Repeat:   uint16(len(payload) / size),
			Payload:  payload,
			Children: children,
		}, nil
	}
	return Item{}, fmt.Errorf("nested %q too large: %d bytes", key.String(), len(payload))
}

// NewItem builds a numeric item with width values per repeat.
func NewItem(key Key, typ byte, width int, values ...float64) (Item, error) {
	w := TypeWidth(typ)
	if w == 0 {
		return Item{}, &UnsupportedTypeError{Key: key, Type: typ}
	}
	if width <= 0 || len(values)%width != 0 {
		return Item{}, &ShapeMismatchError{Key: key, Count: len(values), Width: width}
	}
	if w*width > math.MaxUint8 || len(values)/width > math.MaxUint16 {
		return Item{}, fmt.Errorf("item %q too large: %d values of width %d", key.String(), len(values), width)
	}
	var data []byte
	for _, v := range values {
		data = appendScalar(data, typ, v)
	}
	return Item{
		Key:     key,
		Type:    typ,
		Size:    uint8(w * width),
		Repeat:  uint16(len(values) / width),
		Payload: pad(data),
	}, nil
}

func appendScalar(b []byte, typ byte, v float64) []byte {
	switch typ {
	case TypeInt8:
		return append(b, byte(int8(v)))
	case TypeUint8:
		return append(b, byte(v))
	case TypeInt16:
		return binary.BigEndian.AppendUint16(b, uint16(int16(v)))
	case TypeUint16:
		return binary.BigEndian.AppendUint16(b, uint16(v))
	case TypeInt32:
		return binary.BigEndian.AppendUint32(b, uint32(int32(v)))
	case TypeUint32:
		return binary.BigEndian.AppendUint32(b, uint32(v))
	case TypeInt64:
		return binary.BigEndian.AppendUint64(b, uint64(int64(v)))
	case TypeUint64:
		return binary.BigEndian.AppendUint64(b, uint64(v))
	case TypeFloat32:
		return binary.BigEndian.AppendUint32(b, math.Float32bits(float32(v)))
	case TypeFloat64:
		return binary.BigEndian.AppendUint64(b, math.Float64bits(v))
	}
	panic("gpmf: not a numeric type")
}

// NewString builds a character item.
func NewString(key Key, s string) (Item, error) {
	if len(s) > math.MaxUint16 {
		return Item{}, fmt.Errorf("string %q too large: %d bytes", key.String(), len(s))
	}
	return Item{
		Key:     key,
		Type:    TypeString,
		Size:    1,
		Repeat:  uint16(len(s)),
		Payload: pad([]byte(s)),
	}, nil
}

// NewStrings builds a character item of fixed width strings, one per
// repeat, NUL padded to the longest one.
func NewStrings(key Key, ss ...string) (Item, error) {
	var size int
	for _, s := range ss {
		size = max(size, len(s))
	}
	if size > math.MaxUint8 || len(ss) > math.MaxUint16 {
		return Item{}, fmt.Errorf("strings %q too large: %d of width %d", key.String(), len(ss), size)
	}
	var data []byte
	for _, s := range ss {
		data = append(data, s...)
		for i := len(s); i < size; i++ {
			data = append(data, 0)
		}
	}
	return Item{
		Key:     key,
		Type:    TypeString,
		Size:    uint8(size),
		Repeat:  uint16(len(ss)),
		Payload: pad(data),
	}, nil
}

// NewTime builds a UTC date item as GPSU stores it.
func NewTime(key Key, t time.Time) Item {
	s := t.UTC().Format(GPSTimeLayout + ".000")
	return Item{
		Key:     key,
		Type:    TypeUTCDate,
		Size:    uint8(len(s)),
		Repeat:  1,
		Payload: pad([]byte(s)),
	}
}

func pad(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}
