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

package gpmf

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// GPSTimeLayout is the layout of GPSU payloads, e.g. "160907173622.500".
// Fractional seconds are accepted after the seconds field.
const GPSTimeLayout = "060102150405"

// ParseGPSTime parses a GPSU payload as UTC.
func ParseGPSTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(GPSTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse gps time %q: %w", s, err)
	}
	return t, nil
}

// Seconds converts t to fractional Unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// Time converts fractional Unix seconds to a time rounded to the
// microsecond.
func Time(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
}

// FormatTimestamp renders seconds as "<sec>" when there is no millisecond
// part and "<sec>.<millis>" otherwise.
func FormatTimestamp(sec float64) string {
	millis := int64(math.Round(sec * 1000))
	sign := ""
	if millis < 0 {
		sign = "-"
		millis = -millis
	}
	if millis%1000 == 0 {
		return fmt.Sprintf("%s%d", sign, millis/1000)
	}
	return fmt.Sprintf("%s%d.%03d", sign, millis/1000, millis%1000)
}

// ParseTimestamp is the inverse of FormatTimestamp. Any number of
// fractional digits is accepted.
func ParseTimestamp(timestamp string) (float64, error) {
	s := timestamp
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	secNano := strings.Split(s, ".")
	if len(secNano) != 1 && len(secNano) != 2 {
		return 0, fmt.Errorf("failed to parse timestamp: %s", timestamp)
	}
	seconds, err := strconv.ParseInt(secNano[0], 10, 64)
	if err != nil {
		return 0, err
	}
	var nanoSec int64
	if len(secNano) == 2 {
		nanoSec, err = strconv.ParseInt((secNano[1] + "000000000")[:9], 10, 64)
		if err != nil {
			return 0, err
		}
	}
	ret := float64(seconds) + float64(nanoSec)/1e9
	if neg {
		ret = -ret
	}
	return ret, nil
}
