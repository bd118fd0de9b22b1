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


package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/seqsense/gpmf"
)

// metrics of a single run, written in the text format read by the
// node_exporter textfile collector.
type metrics struct {
	reg *prometheus.Registry

	InputBytes   prometheus.Counter
	Blocks       *prometheus.CounterVec
	Samples      *prometheus.CounterVec
	BlockErrors  prometheus.Counter
	Warnings     prometheus.Counter
	Unclassified prometheus.Counter
	Duration     prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &metrics{
		reg: reg,
		InputBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "gpmf_input_bytes_total",
			Help: "Bytes of GPMF payload decoded",
		}),
		Blocks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gpmf_blocks_total",
			Help: "Decoded blocks per sensor",
		}, []string{"kind"}),
		Samples: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gpmf_samples_total",
			Help: "Decoded samples per sensor",
		}, []string{"kind"}),
		BlockErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "gpmf_block_errors_total",
			Help: "Dropped blocks and undecodable items",
		}),
		Warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "gpmf_timestamp_warnings_total",
			Help: "Non monotonic timestamp spans",
		}),
		Unclassified: f.NewCounter(prometheus.CounterOpts{
			Name: "gpmf_unclassified_streams_total",
			Help: "Streams of unsupported sensors",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gpmf_run_duration_seconds",
			Help:    "Time to load and decode the telemetry",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *metrics) observe(tel *gpmf.Telemetry, size int, elapsed time.Duration) {
	m.InputBytes.Add(float64(size))
	for _, k := range gpmf.Kinds {
		m.Blocks.WithLabelValues(k.String()).Add(float64(tel.Diagnostics.Blocks[k]))
		m.Samples.WithLabelValues(k.String()).Add(float64(tel.Series(k).Len()))
	}
	m.BlockErrors.Add(float64(len(tel.Diagnostics.Errors)))
	m.Warnings.Add(float64(len(tel.Diagnostics.Warnings)))
	m.Unclassified.Add(float64(tel.Diagnostics.Unclassified))
	m.Duration.Observe(elapsed.Seconds())
}

func (m *metrics) write(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
