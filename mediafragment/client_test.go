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

package mediafragment

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/google/go-cmp/cmp"

	kvsm "github.com/seqsense/gpmf/kvsmockserver"
)

func newTestClient(t *testing.T, server *kvsm.KinesisVideoServer) *Client {
	t.Helper()
	cfg := aws.Config{
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", "token"),
		Region:       "ap-northeast-1",
		BaseEndpoint: aws.String(server.URL),
	}
	cli, err := New(context.Background(), StreamName("test-stream"), cfg)
	if err != nil {
		t.Fatalf("Failed to create new client: %v", err)
	}
	return cli
}

func registerTimecodes(server *kvsm.KinesisVideoServer, timecodes ...uint64) {
	for _, tc := range timecodes {
		server.RegisterFragment(kvsm.FragmentTest{Cluster: kvsm.ClusterTest{Timecode: tc}})
	}
}

func TestListFragments(t *testing.T) {
	var serverTimestampOrigin float64 = 100
	server := kvsm.NewKinesisVideoServer(kvsm.WithTimestampOrigin(0, serverTimestampOrigin))
	defer server.Close()

	cli := newTestClient(t, server)
	ctx := context.Background()

	assertNumFragments := func(t *testing.T, num int, opt ListFragmentsOption) {
		t.Helper()
		list, err := cli.ListFragments(ctx, opt)
		if err != nil {
			t.Fatal(err)
		}
		if n := len(list.Fragments); n != num {
			t.Fatalf("Expected %d fragments, got %d fragments", num, n)
		}
	}

	assertNumFragments(t, 0, WithServerTimestampRange(time.Unix(102, 0), time.Unix(103, 0)))
	assertNumFragments(t, 0, WithProducerTimestampRange(time.Unix(2, 0), time.Unix(3, 0)))

	registerTimecodes(server, 4000, 1000, 3000, 2000)

	assertNumFragments(t, 2, WithServerTimestampRange(time.Unix(102, 0), time.Unix(103, 0)))
	assertNumFragments(t, 2, WithProducerTimestampRange(time.Unix(2, 0), time.Unix(3, 0)))

	list, err := cli.ListFragments(ctx, WithServerTimestampRange(time.Unix(100, 0), time.Unix(110, 0)))
	if err != nil {
		t.Fatal(err)
	}
	expected := NewFragmentIDs(
		kvsm.FragmentNumberFromTimecode(1000),
		kvsm.FragmentNumberFromTimecode(2000),
		kvsm.FragmentNumberFromTimecode(3000),
		kvsm.FragmentNumberFromTimecode(4000),
	)
	if diff := cmp.Diff(expected, list.FragmentIDs()); diff != "" {
		t.Errorf("Unexpected fragment IDs (-want +got):\n%s", diff)
	}
	if ts := *list.Fragments[1].ServerTimestamp; !ts.Equal(time.Unix(102, 0)) {
		t.Errorf("Expected server timestamp 102, got: %v", ts)
	}
}

func TestListFragments_Pages(t *testing.T) {
	server := kvsm.NewKinesisVideoServer()
	defer server.Close()
	registerTimecodes(server, 1000, 2000, 3000, 4000, 5000)

	cli := newTestClient(t, server)
	ctx := context.Background()

	first, err := cli.ListFragments(ctx, WithMaxResults(2))
	if err != nil {
		t.Fatal(err)
	}
	if first.Len() != 2 || first.NextToken == nil {
		t.Fatalf("Expected 2 fragments and a next token, got: %d %v", first.Len(), first.NextToken)
	}
	second, err := cli.ListFragments(ctx, WithMaxResults(2), WithNextToken(first.NextToken))
	if err != nil {
		t.Fatal(err)
	}
	if n := *second.Fragments[0].FragmentNumber; n != kvsm.FragmentNumberFromTimecode(3000) {
		t.Errorf("Expected the second page to start from 3000, got: %s", n)
	}

	all, err := cli.ListAllFragments(ctx, WithMaxResults(2))
	if err != nil {
		t.Fatal(err)
	}
	if all.Len() != 5 {
		t.Errorf("Expected 5 fragments, got: %d", all.Len())
	}
	if all.NextToken != nil {
		t.Errorf("Expected no next token, got: %s", *all.NextToken)
	}
}

func TestGetMediaForFragmentList(t *testing.T) {
	var serverTimestampOrigin float64 = 100
	server := kvsm.NewKinesisVideoServer(kvsm.WithTimestampOrigin(0, serverTimestampOrigin))
	defer server.Close()

	cli := newTestClient(t, server)

	newBlock := func(timecode int16) ebml.Block {
		return ebml.Block{
			TrackNumber: 1,
			Timecode:    timecode,
			Data:        [][]byte{{0xaa, 0xbb, 0xcc}},
		}
	}
	testData := []kvsm.FragmentTest{
		{Cluster: kvsm.ClusterTest{
			Timecode:    1000,
			SimpleBlock: []ebml.Block{newBlock(0), newBlock(100)},
		}},
		{Cluster: kvsm.ClusterTest{
			Timecode:    2000,
			SimpleBlock: []ebml.Block{newBlock(10), newBlock(110)},
		}},
		{Cluster: kvsm.ClusterTest{
			Timecode:    3000,
			SimpleBlock: []ebml.Block{newBlock(20), newBlock(120)},
		}},
		{Cluster: kvsm.ClusterTest{
			Timecode:    4000,
			SimpleBlock: []ebml.Block{newBlock(30), newBlock(130)},
		}},
	}
	for _, f := range testData {
		server.RegisterFragment(f)
	}

	var blocks []BlockWithBaseTimecode
	var metadata []FragmentMetadata
	if err := cli.GetMediaForFragmentList(
		context.Background(),
		NewFragmentIDs(kvsm.FragmentNumberFromTimecode(2000), kvsm.FragmentNumberFromTimecode(3000)),
		func(f Fragment) {
			metadata = append(metadata, *f[0].FragmentMetadata)
			for _, b := range f {
				blocks = append(blocks, *b.BlockWithBaseTimecode)
			}
		}, func(err error) {
			t.Error(err)
		}); err != nil {
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			// HTTP response reader returns EOF to the successful read with data
			// and ebml-go return unexpected EOF. Temporary ignore unexpected EOF error.
			// https://github.com/at-wat/ebml-go/issues/193
			t.Error(err)
		}
	}

	expectedBlocks := []BlockWithBaseTimecode{
		{Timecode: 2000, Block: newBlock(10)},
		{Timecode: 2000, Block: newBlock(110)},
		{Timecode: 3000, Block: newBlock(20)},
		{Timecode: 3000, Block: newBlock(120)},
	}
	if diff := cmp.Diff(expectedBlocks, blocks); diff != "" {
		t.Errorf("Unexpected blocks: %s", diff)
	}

	if len(metadata) != 2 {
		t.Fatalf("Expected 2 fragments, got: %d", len(metadata))
	}
	if n := metadata[1].FragmentNumber; n != kvsm.FragmentNumberFromTimecode(3000) {
		t.Errorf("Expected fragment number of 3000, got: %s", n)
	}
	if ts := metadata[0].ServerTimestamp; !ts.Equal(time.Unix(102, 0)) {
		t.Errorf("Expected server timestamp 102, got: %v", ts)
	}
	if ts := metadata[0].ProducerTimestamp; !ts.Equal(time.Unix(2, 0)) {
		t.Errorf("Expected producer timestamp 2, got: %v", ts)
	}
}

func TestGetMediaForFragmentList_MissingFragment(t *testing.T) {
	server := kvsm.NewKinesisVideoServer()
	defer server.Close()

	cli := newTestClient(t, server)

	var errs []error
	if err := cli.GetMediaForFragmentList(
		context.Background(),
		NewFragmentIDs("00000000000000000042"),
		func(f Fragment) {
			t.Errorf("Unexpected fragment: %v", f)
		}, func(err error) {
			errs = append(errs, err)
		}); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error(err)
	}

	expected := []error{
		&FragmentError{FragmentNumber: "00000000000000000042", Code: kvsm.ErrorCodeMissingFragment, Message: "fragment not found"},
	}
	if diff := cmp.Diff(expected, errs, cmp.Comparer(func(a, b error) bool {
		return a.Error() == b.Error()
	})); diff != "" {
		t.Errorf("Unexpected errors (-want +got):\n%s", diff)
	}
}
