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

// Package mediafragment reads archived fragments of Kinesis Video Streams
// and collects the telemetry track carried by them.
package mediafragment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesisvideo"
	kv_types "github.com/aws/aws-sdk-go-v2/service/kinesisvideo/types"
	kvam "github.com/aws/aws-sdk-go-v2/service/kinesisvideoarchivedmedia"
	kvam_types "github.com/aws/aws-sdk-go-v2/service/kinesisvideoarchivedmedia/types"

	"github.com/seqsense/gpmf/matroska"
)

type Client struct {
	streamID                      StreamID
	clientListFragments           *kvam.Client
	clientGetMediaForFragmentList *kvam.Client
}

func New(ctx context.Context, streamID StreamID, cfg aws.Config) (*Client, error) {
	kv := kinesisvideo.NewFromConfig(cfg)

	dataClient := func(api kv_types.APIName) (*kvam.Client, error) {
		ep, err := kv.GetDataEndpoint(ctx,
			&kinesisvideo.GetDataEndpointInput{
				APIName:    api,
				StreamARN:  streamID.StreamARN(),
				StreamName: streamID.StreamName(),
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s endpoint: %w", api, err)
		}
		return kvam.NewFromConfig(cfg, func(o *kvam.Options) {
			o.BaseEndpoint = ep.DataEndpoint
		}), nil
	}

	clientListFragments, err := dataClient(kv_types.APINameListFragments)
	if err != nil {
		return nil, err
	}
	clientGetMediaForFragmentList, err := dataClient(kv_types.APINameGetMediaForFragmentList)
	if err != nil {
		return nil, err
	}

	return &Client{
		streamID:                      streamID,
		clientListFragments:           clientListFragments,
		clientGetMediaForFragmentList: clientGetMediaForFragmentList,
	}, nil
}

func (c *Client) listFragmentsInput(opts []ListFragmentsOption) *kvam.ListFragmentsInput {
	input := &kvam.ListFragmentsInput{
		StreamARN:  c.streamID.StreamARN(),
		StreamName: c.streamID.StreamName(),
	}
	for _, o := range opts {
		o(input)
	}
	return input
}

// ListFragments returns one page of fragments sorted by fragment number.
func (c *Client) ListFragments(ctx context.Context, opts ...ListFragmentsOption) (*ListFragmentsOutput, error) {
	out, err := c.clientListFragments.ListFragments(ctx, c.listFragmentsInput(opts))
	if err != nil {
		return nil, err
	}

	/*
	 * Sort fragments because they are not sorted.
	 * see: https://docs.aws.amazon.com/kinesisvideostreams/latest/dg/API_reader_ListFragments.html#API_reader_ListFragments_ResponseElements
	 *  > Results are in no specific order, even across pages.
	 */
	ret := ListFragmentsOutput{ListFragmentsOutput: out}
	ret.SortByFragmentNumber()
	return &ret, nil
}

// ListAllFragments follows NextToken until every page is read.
// WithMaxResults sets the page size.
func (c *Client) ListAllFragments(ctx context.Context, opts ...ListFragmentsOption) (*ListFragmentsOutput, error) {
	p := kvam.NewListFragmentsPaginator(c.clientListFragments, c.listFragmentsInput(opts))
	ret := ListFragmentsOutput{ListFragmentsOutput: &kvam.ListFragmentsOutput{}}
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		ret.Fragments = append(ret.Fragments, out.Fragments...)
	}
	ret.SortByFragmentNumber()
	return &ret, nil
}

// GetMediaForFragmentList streams the blocks of the given fragments to
// handler, one call per fragment. Exceptions reported by the service for a
// fragment are passed to errHandler as *FragmentError.
func (c *Client) GetMediaForFragmentList(ctx context.Context, fragments FragmentIDs, handler func(Fragment), errHandler func(error)) error {
	out, err := c.clientGetMediaForFragmentList.GetMediaForFragmentList(ctx, &kvam.GetMediaForFragmentListInput{
		Fragments:  fragments,
		StreamARN:  c.streamID.StreamARN(),
		StreamName: c.streamID.StreamName(),
	})
	if err != nil {
		return err
	}
	defer out.Payload.Close()

	chBlock := make(chan ebml.Block)
	chTimecode := make(chan uint64)
	chTag := make(chan *matroska.Tag)
	var fragment Fragment
	done := sync.WaitGroup{}
	done.Add(1)
	go func() {
		defer func() {
			if len(fragment) > 0 {
				handler(fragment)
			}
			done.Done()
		}()

		var metadata *FragmentMetadata
		var baseTimecode uint64
		for {
			select {
			case tag := <-chTag:
				if len(tag.SimpleTag) == 0 {
					continue
				}
				switch tag.SimpleTag[0].TagName {
				case matroska.TagNameFragmentNumber:
					// start new fragment
					if metadata != nil && len(fragment) > 0 {
						handler(fragment)
						fragment = nil
					}

					metadata = &FragmentMetadata{}
					for _, t := range tag.SimpleTag {
						switch t.TagName {
						case matroska.TagNameFragmentNumber:
							metadata.FragmentNumber = t.TagString
						case matroska.TagNameServerTimestamp:
							ts, err := parseTimestamp(t.TagString)
							if err != nil {
								errHandler(fmt.Errorf("failed to parse server timestamp (%s): %w", t.TagString, err))
							}
							metadata.ServerTimestamp = ts
						case matroska.TagNameProducerTimestamp:
							ts, err := parseTimestamp(t.TagString)
							if err != nil {
								errHandler(fmt.Errorf("failed to parse producer timestamp (%s): %w", t.TagString, err))
							}
							metadata.ProducerTimestamp = ts
						}
					}
					if err := fragmentError(tag.SimpleTag); err != nil {
						errHandler(err)
					}
				default:
					if metadata == nil {
						metadata = &FragmentMetadata{}
					}
					// Set custom tags
					metadata.Tags = make(map[string]matroska.SimpleTag)
					for _, t := range tag.SimpleTag {
						metadata.Tags[t.TagName] = t
					}
				}
			case baseTimecode = <-chTimecode:
			case block, ok := <-chBlock:
				if !ok {
					return
				}
				b := &BlockWithMetadata{
					FragmentMetadata: metadata,
					BlockWithBaseTimecode: &BlockWithBaseTimecode{
						Timecode: baseTimecode,
						Block:    block,
					},
				}
				fragment = append(fragment, b)
			}
		}
	}()

	data := &container{}
	data.Segment.Cluster.Timecode = chTimecode
	data.Segment.Cluster.SimpleBlock = chBlock
	data.Segment.Tags.Tag = chTag
	err = ebml.Unmarshal(out.Payload, data)
	close(chBlock)
	done.Wait()
	return err
}

// Telemetry downloads the given fragments and returns the blocks of the
// tracks matching match. Block times are the absolute fragment timecodes.
// Exceptions reported for single fragments are passed to errHandler.
func (c *Client) Telemetry(ctx context.Context, fragments FragmentIDs, match matroska.TrackMatcher, errHandler func(error)) ([]matroska.Payload, error) {
	out, err := c.clientGetMediaForFragmentList.GetMediaForFragmentList(ctx, &kvam.GetMediaForFragmentListInput{
		Fragments:  fragments,
		StreamARN:  c.streamID.StreamARN(),
		StreamName: c.streamID.StreamName(),
	})
	if err != nil {
		return nil, err
	}
	defer out.Payload.Close()

	// The whole body is buffered: ebml-go reports io.ErrUnexpectedEOF on
	// readers returning data together with io.EOF.
	body, err := io.ReadAll(out.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragments: %w", err)
	}
	doc, err := matroska.Read(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for _, seg := range doc.Segment {
		for _, tag := range seg.Tags.Tag {
			if err := fragmentError(tag.SimpleTag); err != nil {
				errHandler(err)
			}
		}
	}
	return doc.Payloads(match)
}

type ListFragmentsOption func(input *kvam.ListFragmentsInput)

func WithNextToken(nextToken *string) ListFragmentsOption {
	return func(input *kvam.ListFragmentsInput) {
		input.NextToken = nextToken
	}
}

func WithServerTimestampRange(startTime, endTime time.Time) ListFragmentsOption {
	return withTimestampRange(kvam_types.FragmentSelectorTypeServerTimestamp, startTime, endTime)
}

func WithProducerTimestampRange(startTime, endTime time.Time) ListFragmentsOption {
	return withTimestampRange(kvam_types.FragmentSelectorTypeProducerTimestamp, startTime, endTime)
}

func withTimestampRange(typ kvam_types.FragmentSelectorType, startTime, endTime time.Time) ListFragmentsOption {
	return func(input *kvam.ListFragmentsInput) {
		input.FragmentSelector = &kvam_types.FragmentSelector{
			FragmentSelectorType: typ,
			TimestampRange: &kvam_types.TimestampRange{
				StartTimestamp: aws.Time(startTime),
				EndTimestamp:   aws.Time(endTime),
			},
		}
	}
}

func WithMaxResults(maxResults int64) ListFragmentsOption {
	return func(input *kvam.ListFragmentsInput) {
		input.MaxResults = aws.Int64(maxResults)
	}
}
