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
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Type codes.
const (
	TypeNested  byte = 0
	TypeInt8    byte = 'b'
	TypeUint8   byte = 'B'
	TypeInt16   byte = 's'
	TypeUint16  byte = 'S'
	TypeInt32   byte = 'l'
	TypeUint32  byte = 'L'
	TypeInt64   byte = 'j'
	TypeUint64  byte = 'J'
	TypeFloat32 byte = 'f'
	TypeFloat64 byte = 'd'
	TypeString  byte = 'c'
	TypeUTCDate byte = 'U'
)

// TypeWidth returns the byte width of a numeric type code, or 0 when the
// code is not numeric.
func TypeWidth(t byte) int {
	switch t {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

func scalar(t byte, b []byte) float64 {
	switch t {
	case TypeInt8:
		return float64(int8(b[0]))
	case TypeUint8:
		return float64(b[0])
	case TypeInt16:
		return float64(int16(binary.BigEndian.Uint16(b)))
	case TypeUint16:
		return float64(binary.BigEndian.Uint16(b))
	case TypeInt32:
		return float64(int32(binary.BigEndian.Uint32(b)))
	case TypeUint32:
		return float64(binary.BigEndian.Uint32(b))
	case TypeInt64:
		return float64(int64(binary.BigEndian.Uint64(b)))
	case TypeUint64:
		return float64(binary.BigEndian.Uint64(b))
	case TypeFloat32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
	case TypeFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(b))
	}
	panic("gpmf: not a numeric type")
}

// DecodeArray reinterprets the payload of a numeric item as a flat array.
func DecodeArray(it Item) ([]float64, error) {
	w := TypeWidth(it.Type)
	if w == 0 {
		return nil, &UnsupportedTypeError{Key: it.Key, Type: it.Type}
	}
	if int(it.Size)%w != 0 {
		return nil, &ShapeMismatchError{Key: it.Key, Count: int(it.Size), Width: w}
	}
	data := it.Data()
	ret := make([]float64, len(data)/w)
	for i := range ret {
		ret[i] = scalar(it.Type, data[i*w:(i+1)*w])
	}
	return ret, nil
}

// DecodeMatrix decodes a numeric item into rows of width values each,
// row major. A payload without values gives an empty matrix.
func DecodeMatrix(it Item, width int) (*mat.Dense, error) {
	v, err := DecodeArray(it)
	if err != nil {
		return nil, err
	}
	if width <= 0 || len(v)%width != 0 {
		return nil, &ShapeMismatchError{Key: it.Key, Count: len(v), Width: width}
	}
	if len(v) == 0 {
		return &mat.Dense{}, nil
	}
	return mat.NewDense(len(v)/width, width, v), nil
}

// DecodeUint decodes a single unsigned counter such as TSMP or GPSF.
func DecodeUint(it Item) (uint64, error) {
	v, err := DecodeArray(it)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, &ShapeMismatchError{Key: it.Key, Count: 0, Width: 1}
	}
	return uint64(v[0]), nil
}

func trimNUL(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// DecodeString decodes a character item. Text encoding is not checked.
func DecodeString(it Item) (string, error) {
	if it.Type != TypeString {
		return "", &UnsupportedTypeError{Key: it.Key, Type: it.Type}
	}
	return trimNUL(it.Data()), nil
}

// DecodeStrings decodes a character item holding one fixed width string
// per repeat, as UNIT and SIUN do.
func DecodeStrings(it Item) ([]string, error) {
	if it.Type != TypeString {
		return nil, &UnsupportedTypeError{Key: it.Key, Type: it.Type}
	}
	if it.Size <= 1 || it.Repeat <= 1 {
		return []string{trimNUL(it.Data())}, nil
	}
	data := it.Data()
	ret := make([]string, 0, it.Repeat)
	for i := 0; i < int(it.Repeat); i++ {
		ret = append(ret, trimNUL(data[i*int(it.Size):(i+1)*int(it.Size)]))
	}
	return ret, nil
}

// DecodeTime decodes a UTC date item such as GPSU.
func DecodeTime(it Item) (time.Time, error) {
	if it.Type != TypeUTCDate {
		return time.Time{}, &UnsupportedTypeError{Key: it.Key, Type: it.Type}
	}
	return ParseGPSTime(trimNUL(it.Data()))
}
