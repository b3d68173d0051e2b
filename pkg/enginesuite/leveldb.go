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

// Package enginesuite collects kvs.Engine implementations other than the
// native log-structured kvs.Store, concretizing spec.md §3's "alternative
// backend" Non-goal into a real, swappable second engine.
package enginesuite

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/kvsd/kvs/pkg/kvs"
)

// LevelDBEngine adapts a github.com/syndtr/goleveldb database file to
// kvs.Engine, the way the teacher's pkg/sorted/leveldb adapts the same
// library to sorted.KeyValue: one *leveldb.DB, opened once, with a bloom
// filter and unsynced writes since a crash already forces recovery from
// leveldb's own log.
type LevelDBEngine struct {
	db        *leveldb.DB
	readOpts  *opt.ReadOptions
	writeOpts *opt.WriteOptions
}

var _ kvs.Engine = (*LevelDBEngine)(nil)

// OpenLevelDB opens (or creates) a leveldb database at dir.
func OpenLevelDB(dir string) (*LevelDBEngine, error) {
	opts := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(dir, opts)
	if err != nil {
		return nil, wrapIOErr(err)
	}
	return &LevelDBEngine{
		db:        db,
		readOpts:  &opt.ReadOptions{},
		writeOpts: &opt.WriteOptions{Sync: false},
	}, nil
}

// Get implements kvs.Engine.
func (e *LevelDBEngine) Get(key string) (string, bool, error) {
	val, err := e.db.Get([]byte(key), e.readOpts)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return "", false, nil
		}
		return "", false, wrapIOErr(err)
	}
	return string(val), true, nil
}

// Set implements kvs.Engine.
func (e *LevelDBEngine) Set(key, value string) error {
	if err := e.db.Put([]byte(key), []byte(value), e.writeOpts); err != nil {
		return wrapIOErr(err)
	}
	return nil
}

// Remove implements kvs.Engine. goleveldb's Delete does not distinguish a
// present key from an absent one, so Remove does an explicit Has check
// first to surface kvs.ErrKeyNotFound the same way kvs.Store does.
func (e *LevelDBEngine) Remove(key string) error {
	ok, err := e.db.Has([]byte(key), e.readOpts)
	if err != nil {
		return wrapIOErr(err)
	}
	if !ok {
		return kvs.ErrKeyNotFound
	}
	if err := e.db.Delete([]byte(key), e.writeOpts); err != nil {
		return wrapIOErr(err)
	}
	return nil
}

// Close implements kvs.Engine.
func (e *LevelDBEngine) Close() error {
	return wrapIOErr(e.db.Close())
}

func wrapIOErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsCorrupted(err) {
		return &kvs.Error{Kind: kvs.KindCodec, Err: err}
	}
	return &kvs.Error{Kind: kvs.KindIO, Err: err}
}
