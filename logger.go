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
)

type LoggerIF interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

var logger LoggerIF = &noopLogger{}

// SetLogger sets the logger used by decodes without WithLogger.
func SetLogger(l LoggerIF) {
	if l == nil {
		l = &noopLogger{}
	}
	logger = l
}

func Logger() LoggerIF {
	return logger
}

// WithLogger overrides the package logger for one decode.
func WithLogger(l LoggerIF) DecodeOption {
	return func(o *decodeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// kindLogger prefixes every message with the sensor kind.
type kindLogger struct {
	LoggerIF
	kind Kind
}

func (l kindLogger) Debugf(format string, args ...any) {
	l.LoggerIF.Debugf("[%s] %s", l.kind, fmt.Sprintf(format, args...))
}

func (l kindLogger) Warnf(format string, args ...any) {
	l.LoggerIF.Warnf("[%s] %s", l.kind, fmt.Sprintf(format, args...))
}

type noopLogger struct{}

func (*noopLogger) Debug(args ...any)                 {}
func (*noopLogger) Debugf(format string, args ...any) {}
func (*noopLogger) Info(args ...any)                  {}
func (*noopLogger) Infof(format string, args ...any)  {}
func (*noopLogger) Warn(args ...any)                  {}
func (*noopLogger) Warnf(format string, args ...any)  {}
func (*noopLogger) Error(args ...any)                 {}
func (*noopLogger) Errorf(format string, args ...any) {}
