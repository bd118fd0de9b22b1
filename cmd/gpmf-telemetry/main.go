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

// Command gpmf-telemetry decodes the GPS, gyroscope and accelerometer
// telemetry of GoPro recordings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/seqsense/gpmf"
)

var commands = []string{"mp4", "mkv", "ffmpeg", "kvs", "raw"}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "h", "--help", "-h":
		usage(os.Stdout)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, isTerminal(os.Stderr))
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: gpmf-telemetry <command> [flags] <input>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  mp4     read the gpmd track of an MP4 or MOV file")
	fmt.Fprintln(w, "  mkv     read the telemetry track of a Matroska or WebM file")
	fmt.Fprintln(w, "  ffmpeg  extract the gpmd stream with ffprobe and ffmpeg")
	fmt.Fprintln(w, "  kvs     read archived fragments of a Kinesis Video Stream")
	fmt.Fprintln(w, "  raw     read a raw GPMF payload dump")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'gpmf-telemetry <command> -h' for the flags of a command.")
}

type options struct {
	kind        string
	relative    bool
	concurrency int
	verbose     bool
	format      string
	output      string
	metrics     string

	// mkv
	track uint64
	// ffmpeg
	ffprobe, ffmpeg string
	// kvs
	stream   string
	start    string
	end      string
	producer bool
	timeout  time.Duration
}

func newFlagSet(cmd string, stderr io.Writer) (*flag.FlagSet, *options) {
	o := &options{}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.kind, "kind", "all", "Sensor to output: gps|gyro|accl|all")
	fs.BoolVar(&o.relative, "relative", false, "Output times relative to the first sample")
	fs.IntVar(&o.concurrency, "concurrency", 1, "Number of blocks decoded in parallel")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	fs.StringVar(&o.format, "format", "csv", "Output format: csv|cbor")
	fs.StringVar(&o.output, "o", "-", "Output file, gzip compressed if it ends with .gz")
	fs.StringVar(&o.metrics, "metrics", "", "Write decode metrics in Prometheus text format to the file")

	switch cmd {
	case "mkv":
		fs.Uint64Var(&o.track, "track", 0, "Track number (default: the gpmd track)")
	case "ffmpeg":
		fs.StringVar(&o.ffprobe, "ffprobe", "ffprobe", "ffprobe executable")
		fs.StringVar(&o.ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg executable")
	case "kvs":
		fs.StringVar(&o.start, "start", "", "Start time (RFC3339, default: one hour before -end)")
		fs.StringVar(&o.end, "end", "", "End time (RFC3339, default: now)")
		fs.BoolVar(&o.producer, "producer", false, "Select fragments by producer timestamp instead of server timestamp")
		fs.DurationVar(&o.timeout, "timeout", 5*time.Minute, "Timeout of the whole download")
	}
	fs.Usage = func() {
		input := "<input>"
		if cmd == "kvs" {
			input = "<stream name>"
		}
		fmt.Fprintf(fs.Output(), "Usage: gpmf-telemetry %s [flags] %s\n", cmd, input)
		fs.PrintDefaults()
	}
	return fs, o
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, terminal bool) error {
	cmd := args[0]
	known := false
	for _, c := range commands {
		known = known || c == cmd
	}
	if !known {
		return fmt.Errorf("unknown command: %s (available: %s)", cmd, strings.Join(commands, ", "))
	}

	fs, o := newFlagSet(cmd, stderr)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	input := fs.Arg(0)

	kinds, err := parseKinds(o.kind)
	if err != nil {
		return err
	}
	enc, err := newEncoder(o.format)
	if err != nil {
		return err
	}

	log := newLogger(stderr, o.verbose, terminal).With("run", uuid.NewString(), "command", cmd)
	l := &slogLogger{log}

	start := time.Now()
	buf, err := load(ctx, cmd, input, o, l)
	if err != nil {
		return err
	}
	l.Infof("loaded %s of telemetry from %s", humanize.Bytes(uint64(len(buf))), input)

	decodeOpts := []gpmf.DecodeOption{
		gpmf.WithLogger(l),
		gpmf.WithConcurrency(o.concurrency),
	}
	if o.kind != "all" {
		decodeOpts = append(decodeOpts, gpmf.WithRequired(kinds...))
	}
	tel, err := gpmf.Decode(buf, decodeOpts...)
	if err != nil {
		return err
	}
	logDiagnostics(l, &tel.Diagnostics)

	if o.metrics != "" {
		m := newMetrics()
		m.observe(tel, len(buf), time.Since(start))
		if err := m.write(o.metrics); err != nil {
			return err
		}
	}

	var series []*gpmf.Series
	for _, k := range kinds {
		s := tel.Series(k)
		if o.relative {
			s = s.Relative()
		}
		l.Debugf("%s: %d samples", k, s.Len())
		series = append(series, s)
	}

	w, err := createOutput(o.output, stdout)
	if err != nil {
		return err
	}
	if err := enc(w, series); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func parseKinds(s string) ([]gpmf.Kind, error) {
	if s == "all" {
		return gpmf.Kinds, nil
	}
	var ret []gpmf.Kind
	for _, name := range strings.Split(s, ",") {
		k, err := gpmf.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		ret = append(ret, k)
	}
	return ret, nil
}

func logDiagnostics(l gpmf.LoggerIF, d *gpmf.Diagnostics) {
	for _, err := range d.Errors {
		l.Warnf("%v", err)
	}
	for _, w := range d.Warnings {
		l.Warnf("%v", w)
	}
	if d.Unclassified > 0 {
		l.Infof("%d streams without GPS5, ACCL or GYRO were ignored", d.Unclassified)
	}
	if d.Untimed > 0 {
		l.Infof("%d blocks without time were merged into the preceding ones", d.Untimed)
	}
}
