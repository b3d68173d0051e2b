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

package enginesuite

import (
	"errors"
	"testing"

	"github.com/kvsd/kvs/pkg/kvs"
)

func TestLevelDBEngineSetGet(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("OpenLevelDB: %v", err)
	}
	defer e.Close()

	if err := e.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := e.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || v != "v1" {
		t.Fatalf("Get(k1) = %q, %v; want v1, true", v, ok)
	}
}

func TestLevelDBEngineGetMissing(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("OpenLevelDB: %v", err)
	}
	defer e.Close()

	_, ok, err := e.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("Get(nope) unexpectedly found a value")
	}
}

func TestLevelDBEngineRemoveMissing(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("OpenLevelDB: %v", err)
	}
	defer e.Close()

	err = e.Remove("nope")
	if !errors.Is(err, kvs.ErrKeyNotFound) {
		t.Fatalf("Remove(nope) = %v, want ErrKeyNotFound", err)
	}
}

func TestLevelDBEngineRemoveThenGet(t *testing.T) {
	dir := t.TempDir()
	e, err := OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("OpenLevelDB: %v", err)
	}
	defer e.Close()

	if err := e.Set("k1", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.Remove("k1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, ok, err := e.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("k1 still present after Remove")
	}
}
