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

package wire

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{Op: OpGet, Key: "k1"},
		{Op: OpSet, Key: "k1", Value: "v1"},
		{Op: OpRemove, Key: "k1"},
	}
	for _, req := range cases {
		var buf bytes.Buffer
		if err := WriteRequest(&buf, req); err != nil {
			t.Fatalf("WriteRequest(%+v): %v", req, err)
		}
		got, err := ReadRequest(&buf)
		if err != nil {
			t.Fatalf("ReadRequest: %v", err)
		}
		if got != req {
			t.Fatalf("round trip = %+v, want %+v", got, req)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []Response{
		{Op: OpGet, Value: "v1", Found: true},
		{Op: OpGet, Found: false},
		{Op: OpSet},
		{Op: OpRemove, Err: "Key not found"},
	}
	for _, resp := range cases {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, resp); err != nil {
			t.Fatalf("WriteResponse(%+v): %v", resp, err)
		}
		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatalf("ReadResponse: %v", err)
		}
		if got != resp {
			t.Fatalf("round trip = %+v, want %+v", got, resp)
		}
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	want := []Request{
		{Op: OpSet, Key: "a", Value: "1"},
		{Op: OpGet, Key: "a"},
		{Op: OpRemove, Key: "a"},
	}
	for _, req := range want {
		if err := WriteRequest(&buf, req); err != nil {
			t.Fatalf("WriteRequest: %v", err)
		}
	}
	for i, wantReq := range want {
		got, err := ReadRequest(&buf)
		if err != nil {
			t.Fatalf("ReadRequest #%d: %v", i, err)
		}
		if got != wantReq {
			t.Fatalf("frame #%d = %+v, want %+v", i, got, wantReq)
		}
	}
}

func TestReadFrameRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, 0)); err != nil {
		t.Fatal(err)
	}
	// Overwrite the length prefix with something past maxFrameSize.
	b := buf.Bytes()
	b[0] = 0xff
	if _, err := ReadFrame(bytes.NewReader(b)); err == nil {
		t.Fatalf("expected an error for an oversized frame length")
	}
}
