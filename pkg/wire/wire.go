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

// Package wire implements the length-prefixed JSON request/response
// protocol described in spec.md §4.9/§6: a u64 big-endian byte count
// followed by that many bytes of a JSON document.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Op discriminates the request/response variants. Go's JSON encoding has
// no native tagged union, so — matching the discriminant-field convention
// the teacher's own wire-ish protocol types use — each message carries an
// explicit Op field alongside whichever payload fields apply to it.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// Request is {Get{key} | Set{key,value} | Remove{key}}.
type Request struct {
	Op    Op     `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Response is {Get(Option<String>) | Set | Remove | Err(String)}. Found
// distinguishes "key present with an empty value" from "key absent" for
// OpGet responses; it is meaningless for the other ops.
type Response struct {
	Op    Op     `json:"op"`
	Value string `json:"value,omitempty"`
	Found bool   `json:"found,omitempty"`
	Err   string `json:"err,omitempty"`
}

// maxFrameSize bounds a single message so a malformed or hostile length
// prefix can't make the reader try to allocate an unreasonable buffer.
const maxFrameSize = 64 << 20 // 64 MiB

// WriteFrame writes the u64 big-endian length prefix for payload followed
// by payload itself.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed message from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("wire: frame of %d bytes exceeds %d byte limit", n, maxFrameSize)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteRequest frames and writes req.
func WriteRequest(w io.Writer, req Request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return WriteFrame(w, b)
}

// ReadRequest reads and decodes one framed Request.
func ReadRequest(r io.Reader) (Request, error) {
	b, err := ReadFrame(r)
	if err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(b, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// WriteResponse frames and writes resp.
func WriteResponse(w io.Writer, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return WriteFrame(w, b)
}

// ReadResponse reads and decodes one framed Response.
func ReadResponse(r io.Reader) (Response, error) {
	b, err := ReadFrame(r)
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
