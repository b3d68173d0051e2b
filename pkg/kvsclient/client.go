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

// Package kvsclient is the TCP front-end's client half (spec.md §4.9/§6):
// dial, write one framed request, read one framed response, close. Opening
// a new connection per call is acceptable per the spec, so Client carries
// no persistent socket state between operations.
package kvsclient

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kvsd/kvs/pkg/kvs"
	"github.com/kvsd/kvs/pkg/wire"
)

// DefaultAddr matches kvsserver.DefaultListenAddress.
const DefaultAddr = "127.0.0.1:4000"

// Client talks to a kvsserver.Server at Addr, opening a fresh connection
// for every call.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// New returns a Client dialing addr, with no per-call deadline.
func New(addr string) *Client {
	return &Client{Addr: addr}
}

func (c *Client) call(req wire.Request) (wire.Response, error) {
	conn, err := net.Dial("tcp", c.Addr)
	if err != nil {
		return wire.Response{}, fmt.Errorf("kvsclient: dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	if c.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return wire.Response{}, err
		}
	}

	if err := wire.WriteRequest(conn, req); err != nil {
		return wire.Response{}, fmt.Errorf("kvsclient: writing request: %w", err)
	}
	resp, err := wire.ReadResponse(conn)
	if err != nil {
		return wire.Response{}, fmt.Errorf("kvsclient: reading response: %w", err)
	}
	return resp, nil
}

// Get looks up key. found is false when the server has no value for key.
func (c *Client) Get(key string) (value string, found bool, err error) {
	resp, err := c.call(wire.Request{Op: wire.OpGet, Key: key})
	if err != nil {
		return "", false, err
	}
	if resp.Err != "" {
		return "", false, errors.New(resp.Err)
	}
	return resp.Value, resp.Found, nil
}

// Set stores value under key.
func (c *Client) Set(key, value string) error {
	resp, err := c.call(wire.Request{Op: wire.OpSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	if resp.Err != "" {
		return errors.New(resp.Err)
	}
	return nil
}

// Remove deletes key. It returns kvs.ErrKeyNotFound (by message match) if
// the server reports the key was absent.
func (c *Client) Remove(key string) error {
	resp, err := c.call(wire.Request{Op: wire.OpRemove, Key: key})
	if err != nil {
		return err
	}
	if resp.Err != "" {
		if resp.Err == kvs.ErrKeyNotFound.Error() {
			return kvs.ErrKeyNotFound
		}
		return errors.New(resp.Err)
	}
	return nil
}
