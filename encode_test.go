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
	"errors"
	"strings"
	"testing"
	"time"
)

func mustItem(t *testing.T, key Key, typ byte, width int, values ...float64) Item {
	t.Helper()
	it, err := NewItem(key, typ, width, values...)
	if err != nil {
		t.Fatalf("Failed to build %s: %v", key, err)
	}
	return it
}

func mustNested(t *testing.T, key Key, children ...Item) Item {
	t.Helper()
	it, err := NewNested(key, children...)
	if err != nil {
		t.Fatalf("Failed to build %s: %v", key, err)
	}
	return it
}

func mustString(t *testing.T, key Key, s string) Item {
	t.Helper()
	it, err := NewString(key, s)
	if err != nil {
		t.Fatalf("Failed to build %s: %v", key, err)
	}
	return it
}

func mustStrings(t *testing.T, key Key, ss ...string) Item {
	t.Helper()
	it, err := NewStrings(key, ss...)
	if err != nil {
		t.Fatalf("Failed to build %s: %v", key, err)
	}
	return it
}

func TestEncode(t *testing.T) {
	it := mustItem(t, KeySCAL, TypeInt16, 1, 1000)
	expected := []byte{
		'S', 'C', 'A', 'L', 's', 2, 0, 1,
		0x03, 0xe8, 0, 0,
	}
	if b := Encode(it); !bytes.Equal(b, expected) {
		t.Errorf("Expected: %v, got: %v", expected, b)
	}

	dev := mustNested(t, KeyDEVC, it)
	if dev.Size != 4 || dev.Repeat != 3 {
		t.Errorf("Expected size 4 repeat 3, got: size %d repeat %d", dev.Size, dev.Repeat)
	}
	if b := Encode(dev); len(b) != HeaderSize+len(expected) {
		t.Errorf("Expected %d bytes, got: %d", HeaderSize+len(expected), len(b))
	}
}

func TestNewItem(t *testing.T) {
	testCases := map[string]struct {
		typ    byte
		width  int
		values []float64
		err    error
	}{
		"Unsupported":   {'c', 1, []float64{1}, &UnsupportedTypeError{}},
		"ShapeMismatch": {TypeInt16, 3, []float64{1, 2}, &ShapeMismatchError{}},
		"ZeroWidth":     {TypeInt16, 0, nil, &ShapeMismatchError{}},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			_, err := NewItem(KeyACCL, c.typ, c.width, c.values...)
			switch c.err.(type) {
			case *UnsupportedTypeError:
				var target *UnsupportedTypeError
				if !errors.As(err, &target) {
					t.Errorf("Expected UnsupportedTypeError, got: %v", err)
				}
			case *ShapeMismatchError:
				var target *ShapeMismatchError
				if !errors.As(err, &target) {
					t.Errorf("Expected ShapeMismatchError, got: %v", err)
				}
			}
		})
	}
}

func TestNewTime(t *testing.T) {
	ts := time.Date(2016, 9, 7, 17, 36, 22, 500*int(time.Millisecond), time.UTC)
	it := NewTime(KeyGPSU, ts)
	if s := string(it.Data()); s != "160907173622.500" {
		t.Errorf("Expected '160907173622.500', got: '%s'", s)
	}
	got, err := DecodeTime(it)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(ts) {
		t.Errorf("Expected time: '%v', got: '%v'", ts, got)
	}
}

func TestNewNested_Large(t *testing.T) {
	tsmp := mustItem(t, KeyTSMP, TypeUint32, 1, 1)
	testCases := map[string]struct {
		children int
		size     uint8
	}{
		// 3 words per child
		"Words":       {1000, 4},
		"RaisedSize":  {70000, 16},
		"MaximumWord": {21845, 4},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			children := make([]Item, c.children)
			for i := range children {
				children[i] = tsmp
			}
			dev := mustNested(t, KeyDEVC, children...)
			if dev.Size != c.size {
				t.Errorf("Expected size %d, got: %d", c.size, dev.Size)
			}
			items, err := Tokenize(Encode(dev))
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != 1 || len(items[0].Children) != c.children {
				t.Errorf("Expected %d children, got: %d", c.children, len(items[0].Children))
			}
		})
	}
}

func TestNew_TooLarge(t *testing.T) {
	long := strings.Repeat("x", 70000)
	if _, err := NewString(KeySTNM, long); err == nil {
		t.Error("Expected error on a string longer than the repeat field")
	}
	if _, err := NewStrings(KeyUNIT, "m", strings.Repeat("x", 256)); err == nil {
		t.Error("Expected error on a string wider than the size field")
	}

	// 65537 words, a prime count, cannot be split into structs
	children := make([]Item, 21845, 21846)
	for i := range children {
		children[i] = mustItem(t, KeyTSMP, TypeUint32, 1, 1)
	}
	children = append(children, mustItem(t, KeyTSMP, TypeUint32, 1))
	if _, err := NewNested(KeyDEVC, children...); err == nil {
		t.Error("Expected error on a payload no struct size can describe")
	}
}
