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

package kvsserver_test

import (
	"testing"

	"github.com/kvsd/kvs/pkg/kvs"
	"github.com/kvsd/kvs/pkg/kvsclient"
	"github.com/kvsd/kvs/pkg/kvsserver"
	"github.com/kvsd/kvs/pkg/threadpool"
)

func startServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	store, err := kvs.Open(dir)
	if err != nil {
		t.Fatalf("kvs.Open: %v", err)
	}
	pool, err := threadpool.NewSharedQueueThreadPool(4)
	if err != nil {
		t.Fatalf("NewSharedQueueThreadPool: %v", err)
	}
	facade := kvs.NewFacade(store, pool)

	// Connection handling needs its own unbounded pool: handle() blocks on
	// facade.*(...).Wait(), and sharing the bounded disk pool above would
	// let enough concurrent connections starve the engine work they're
	// each waiting on.
	conns, err := threadpool.NewNaiveThreadPool(0)
	if err != nil {
		t.Fatalf("NewNaiveThreadPool: %v", err)
	}

	srv, err := kvsserver.Listen("127.0.0.1:0", facade, conns)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() {
		srv.Close()
		facade.Close()
		conns.Close()
		pool.Close()
	})
	return srv.Addr().String()
}

// Scenario 6: a client sets a key over the wire, then a later client reads
// it back with the value that was set.
func TestSetThenGetOverTheWire(t *testing.T) {
	addr := startServer(t)
	cl := kvsclient.New(addr)

	if err := cl.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, found, err := cl.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || value != "v1" {
		t.Fatalf("Get(k1) = %q, %v; want v1, true", value, found)
	}
}

func TestGetMissingKeyOverTheWire(t *testing.T) {
	addr := startServer(t)
	cl := kvsclient.New(addr)

	_, found, err := cl.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("Get(nope) unexpectedly found a value")
	}
}

func TestRemoveOverTheWire(t *testing.T) {
	addr := startServer(t)
	cl := kvsclient.New(addr)

	if err := cl.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cl.Remove("k1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, found, err := cl.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("k1 still found after Remove")
	}
}

func TestRemoveMissingKeyOverTheWire(t *testing.T) {
	addr := startServer(t)
	cl := kvsclient.New(addr)

	err := cl.Remove("nope")
	if err == nil {
		t.Fatalf("expected an error removing a missing key")
	}
	if err.Error() != kvs.ErrKeyNotFound.Error() {
		t.Fatalf("Remove(nope) error = %v, want %v", err, kvs.ErrKeyNotFound)
	}
}
