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

package matroska

// Tags added by Kinesis Video Streams to each archived fragment.
const (
	TagNameFragmentNumber     = "AWS_KINESISVIDEO_FRAGMENT_NUMBER"
	TagNameServerTimestamp    = "AWS_KINESISVIDEO_SERVER_TIMESTAMP"
	TagNameProducerTimestamp  = "AWS_KINESISVIDEO_PRODUCER_TIMESTAMP"
	TagNameExceptionErrorCode = "AWS_KINESISVIDEO_EXCEPTION_ERROR_CODE"
	TagNameExceptionMessage   = "AWS_KINESISVIDEO_EXCEPTION_MESSAGE"
)

// SimpleTag returns the first simple tag named name.
func (t *Tags) SimpleTag(name string) (SimpleTag, bool) {
	for _, tag := range t.Tag {
		for _, st := range tag.SimpleTag {
			if st.TagName == name {
				return st, true
			}
		}
	}
	return SimpleTag{}, false
}
