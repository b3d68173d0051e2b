/*
Copyright 2024 The kvs Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package kvs

import (
	"encoding/json"
	"io"

	"github.com/kvsd/kvs/pkg/pools"
)

// recordKind discriminates the two command record variants on disk.
type recordKind string

const (
	kindSet    recordKind = "set"
	kindRemove recordKind = "rm"
)

// record is the on-disk representation of a single command. It is encoded
// as one JSON document per record; a log generation is therefore a stream
// of concatenated JSON values, which json.Decoder can read incrementally
// without any extra length framing. This satisfies the "self-delimiting"
// requirement in spec.md §3/§4.2 without inventing a binary format the
// teacher's stack doesn't already use (the teacher decodes config and blob
// metadata the same way, with encoding/json).
type record struct {
	Kind  recordKind `json:"kind"`
	Key   string     `json:"key"`
	Value string     `json:"value,omitempty"`
}

// encode marshals rec through a pooled *bytes.Buffer rather than
// json.Marshal's own fresh allocation, since every Set/Remove call on a hot
// writer path otherwise allocates one throwaway buffer per record.
func encode(rec record) ([]byte, error) {
	buf := pools.BytesBuffer()
	defer pools.PutBuffer(buf)
	if err := json.NewEncoder(buf).Encode(rec); err != nil {
		return nil, wrapErr(KindCodec, err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func encodeSet(key, value string) ([]byte, error) {
	return encode(record{Kind: kindSet, Key: key, Value: value})
}

func encodeRemove(key string) ([]byte, error) {
	return encode(record{Kind: kindRemove, Key: key})
}

// decodeRecordBytes decodes exactly the bytes at a previously recorded
// (pos, len) pair, as read at random access by the reader pool (§4.5).
func decodeRecordBytes(buf []byte) (record, error) {
	var rec record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return record{}, wrapErr(KindCodec, err)
	}
	return rec, nil
}

// recordStream decodes a generation file front-to-back during replay,
// reporting each record's offset and length so the caller can
// build index entries. A single json.Decoder is reused across the whole
// file: creating a fresh decoder per record would silently drop any bytes
// the decoder had already buffered ahead of the record it returned.
type recordStream struct {
	dec      *json.Decoder
	consumed int64
}

func newRecordStream(r io.Reader) *recordStream {
	return &recordStream{dec: json.NewDecoder(r)}
}

// next returns the next record along with its (pos, len) within the
// stream. It returns io.EOF, undecorated, once the stream ends cleanly on
// a record boundary; any other error is malformed input.
func (s *recordStream) next() (rec record, pos int64, length int64, err error) {
	pos = s.consumed
	if err = s.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return record{}, pos, 0, io.EOF
		}
		return record{}, pos, 0, wrapErr(KindCodec, err)
	}
	newOffset := s.dec.InputOffset()
	length = newOffset - s.consumed
	s.consumed = newOffset
	return rec, pos, length, nil
}
