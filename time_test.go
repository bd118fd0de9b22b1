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
	"math"
	"testing"
	"time"
)

func Test_FormatTimestamp(t *testing.T) {
	testCases := map[string]struct {
		input    float64
		expected string
	}{
		"MillisIsZero": {
			1,
			"1",
		},
		"MillisIsOneDigit": {
			0.001,
			"0.001",
		},
		"MillisIsTwoDigits": {
			0.012,
			"0.012",
		},
		"MillisIsThreeDigits": {
			0.123,
			"0.123",
		},
		"Negative": {
			-1.5,
			"-1.500",
		},
		"Rounded": {
			2.0 / 3,
			"0.667",
		},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			ts := FormatTimestamp(c.input)
			if ts != c.expected {
				t.Errorf("Expected timestamp: '%v', got: '%v'", c.expected, ts)
			}
		})
	}
}

func Test_ParseTimestamp(t *testing.T) {
	testCases := map[string]struct {
		input    string
		expected float64
	}{
		"MillisIsZero": {
			"1",
			1,
		},
		"MillisIsOneDigit": {
			"0.001",
			0.001,
		},
		"MillisIsThreeDigits": {
			"0.123",
			0.123,
		},
		"ConsiderFloatingPointError": {
			"1000000000.607",
			1000000000.607,
		},
		"Negative": {
			"-2.250",
			-2.25,
		},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			ts, err := ParseTimestamp(c.input)
			if err != nil {
				t.Fatalf("Failed to parse timestamp: %v", err)
			}
			if math.Abs(ts-c.expected) > 1e-6 {
				t.Errorf("Expected timestamp: '%v', got: '%v'", c.expected, ts)
			}
		})
	}

	for _, in := range []string{"", "1.2.3", "a.5"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("Expected error for %q", in)
		}
	}
}

func Test_ParseGPSTime(t *testing.T) {
	testCases := map[string]struct {
		input    string
		expected time.Time
	}{
		"Seconds": {
			"160907173622",
			time.Date(2016, 9, 7, 17, 36, 22, 0, time.UTC),
		},
		"Millis": {
			"160907173622.500",
			time.Date(2016, 9, 7, 17, 36, 22, 500*int(time.Millisecond), time.UTC),
		},
	}
	for n, c := range testCases {
		t.Run(n, func(t *testing.T) {
			ts, err := ParseGPSTime(c.input)
			if err != nil {
				t.Fatalf("Failed to parse gps time: %v", err)
			}
			if !ts.Equal(c.expected) {
				t.Errorf("Expected time: '%v', got: '%v'", c.expected, ts)
			}
		})
	}

	if _, err := ParseGPSTime("not a time"); err == nil {
		t.Error("Expected error")
	}
}

func Test_SecondsTime(t *testing.T) {
	in := time.Date(2021, 3, 4, 5, 6, 7, 250*int(time.Millisecond), time.UTC)
	sec := Seconds(in)
	if out := Time(sec); !out.Equal(in) {
		t.Errorf("Expected time: '%v', got: '%v'", in, out)
	}
}
