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
	"fmt"
	"strings"
)

// Kind is the sensor class of a stream block.
type Kind int

const (
	KindUnclassified Kind = iota
	KindGPS
	KindAccl
	KindGyro
)

// Kinds lists the recognized kinds in output order.
var Kinds = []Kind{KindGPS, KindGyro, KindAccl}

func (k Kind) String() string {
	switch k {
	case KindGPS:
		return "gps"
	case KindAccl:
		return "accl"
	case KindGyro:
		return "gyro"
	default:
		return "unclassified"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return KindUnclassified, fmt.Errorf("unknown kind %q", s)
}

// Key returns the classifying key of the kind.
func (k Kind) Key() Key {
	switch k {
	case KindGPS:
		return KeyGPS5
	case KindAccl:
		return KeyACCL
	case KindGyro:
		return KeyGYRO
	default:
		return Key{}
	}
}

// Width is the number of axes per sample.
func (k Kind) Width() int {
	switch k {
	case KindGPS:
		return 5
	case KindAccl, KindGyro:
		return 3
	default:
		return 0
	}
}

// Channels names the columns of the kind, in payload order.
func (k Kind) Channels() []string {
	switch k {
	case KindGPS:
		return []string{"latitude", "longitude", "altitude", "speed_2d", "speed_3d"}
	case KindAccl, KindGyro:
		return []string{"z", "x", "y"}
	default:
		return nil
	}
}

// DefaultUnits is used when a block declares neither UNIT nor SIUN.
func (k Kind) DefaultUnits() []string {
	switch k {
	case KindGPS:
		return []string{"deg", "deg", "m", "m/s", "m/s"}
	case KindAccl:
		return []string{"m/s²", "m/s²", "m/s²"}
	case KindGyro:
		return []string{"rad/s", "rad/s", "rad/s"}
	default:
		return nil
	}
}

func kindOf(key Key) Kind {
	switch key {
	case KeyGPS5:
		return KindGPS
	case KeyACCL:
		return KindAccl
	case KeyGYRO:
		return KindGyro
	default:
		return KindUnclassified
	}
}

// Stream is the content of one STRM container.
type Stream struct {
	Kind Kind
	// Device is the ordinal of the DEVC container in the buffer.
	Device int
	// Index is the ordinal of the stream within its device.
	Index int
	Items []Item
}

// Classify returns the kind of the first classifying key among items.
func Classify(items []Item) Kind {
	for i := range items {
		if k := kindOf(items[i].Key); k != KindUnclassified {
			return k
		}
	}
	return KindUnclassified
}

// Devices returns the DEVC containers among items.
func Devices(items []Item) []Item {
	var ret []Item
	for _, it := range items {
		if it.Key == KeyDEVC && it.Nested() {
			ret = append(ret, it)
		}
	}
	return ret
}

// Streams returns the classified STRM containers of a device.
// Unclassified streams are included with KindUnclassified; filtering them
// is up to the caller.
func Streams(device Item) []Stream {
	var ret []Stream
	for _, it := range device.Children {
		if it.Key != KeySTRM || !it.Nested() {
			continue
		}
		ret = append(ret, Stream{
			Kind:  Classify(it.Children),
			Index: len(ret),
			Items: it.Children,
		})
	}
	return ret
}

// AllStreams flattens the streams of every device, numbering devices in
// buffer order.
func AllStreams(items []Item) []Stream {
	var ret []Stream
	for d, dev := range Devices(items) {
		for _, s := range Streams(dev) {
			s.Device = d
			ret = append(ret, s)
		}
	}
	return ret
}
