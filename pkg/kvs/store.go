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

// Package kvs implements a persistent, embeddable key/value storage engine
// on top of an append-only log representation, per spec.md. It supports
// concurrent readers against a single writer and reclaims space through
// periodic compaction.
package kvs

import (
	"errors"
	"io"
	"log"
	"os"
)

// Engine is the contract every storage backend satisfies: the
// log-structured Store below, and any alternative backend (see
// pkg/enginesuite) wrapping an external embedded database.
type Engine interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

var _ Engine = (*Store)(nil)

// Store is the log-structured engine: C1 (log file pair) through C6
// (compactor) wired together behind Get/Set/Remove.
type Store struct {
	dir     string
	index   *keyIndex
	safe    *safeGen
	readers *readerPool
	w       *writer
}

// Option configures Open.
type Option func(*options)

type options struct {
	compactionThreshold int64
}

// WithCompactionThreshold overrides DefaultCompactionThreshold.
func WithCompactionThreshold(n int64) Option {
	return func(o *options) { o.compactionThreshold = n }
}

// Open discovers existing generations under dir in sorted order, replays
// them into the index, and assigns a fresh active generation for new
// appends, per spec.md §3's lifecycle. dir must already exist.
func Open(dir string, opts ...Option) (*Store, error) {
	cfg := options{compactionThreshold: DefaultCompactionThreshold}
	for _, o := range opts {
		o(&cfg)
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return nil, wrapErr(KindIO, err)
	}
	if !fi.IsDir() {
		return nil, &Error{Kind: KindIO}
	}

	gens, err := sortedGenerations(dir)
	if err != nil {
		return nil, err
	}

	index := newKeyIndex()
	var uncompacted int64
	for _, g := range gens {
		n, err := replayGeneration(dir, g, index)
		if err != nil {
			return nil, err
		}
		uncompacted += n
	}

	var nextGen generation
	if len(gens) > 0 {
		nextGen = gens[len(gens)-1] + 1
	}
	cur, err := openLogWriter(dir, nextGen)
	if err != nil {
		return nil, err
	}

	safe := &safeGen{}
	if len(gens) > 0 {
		safe.publish(gens[0])
	}

	st := &Store{
		dir:     dir,
		index:   index,
		safe:    safe,
		readers: newReaderPool(dir, safe),
		w:       newWriter(dir, cur, index, safe, cfg.compactionThreshold),
	}
	st.w.uncompacted = uncompacted
	return st, nil
}

// replayGeneration decodes every record in generation g front to back,
// applying Set records as index inserts and Remove records as index
// evictions, mirroring how the writer itself mutates the index as it
// appends. It returns the stale-byte count contributed by overwritten or
// removed entries within this generation, so Open can reconstruct
// uncompacted accurately across a full replay.
func replayGeneration(dir string, g generation, index *keyIndex) (staleBytes int64, err error) {
	f, err := os.Open(logPath(dir, g))
	if err != nil {
		return 0, wrapErr(KindIO, err)
	}
	defer f.Close()

	stream := newRecordStream(f)
	for {
		rec, pos, length, err := stream.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return staleBytes, err
		}
		switch rec.Kind {
		case kindSet:
			prev, had := index.set(rec.Key, indexEntry{gen: g, pos: pos, length: length})
			if had {
				staleBytes += prev.length
			}
		case kindRemove:
			if prev, had := index.delete(rec.Key); had {
				staleBytes += length + prev.length
			} else {
				staleBytes += length
			}
		default:
			return staleBytes, &Error{Kind: KindCodec}
		}
	}
	return staleBytes, nil
}

// maxStaleIndexRetries bounds the re-lookup loop in Get below. A compactor
// sweep retires at most one generation span per call, so a single retry
// normally suffices; the bound just keeps a pathological case from
// spinning forever instead of surfacing an error.
const maxStaleIndexRetries = 4

// Get looks up key, consulting the index then reading bytes from the log
// as described in spec.md §4.5.
//
// A Get can race a concurrent compaction sweep: it may read an index entry
// pointing at generation g, then — before it opens g's file — have the
// compactor relocate that entry's record to a new generation and delete g
// from disk (compactor.go's CAS-then-delete order). The read would then
// fail with ENOENT for a key that is still very much live, just relocated.
// Get distinguishes that case (the failed generation is already below
// safeGen, meaning a compaction published past it) from a genuine I/O
// failure, and re-reads the index and retries rather than returning a
// spurious error for a live key.
func (s *Store) Get(key string) (string, bool, error) {
	var err error
	for attempt := 0; attempt <= maxStaleIndexRetries; attempt++ {
		var e indexEntry
		var ok bool
		e, ok = s.index.get(key)
		if !ok {
			return "", false, nil
		}
		var v string
		v, err = s.readers.read(key, e)
		if err == nil {
			return v, true, nil
		}
		if !isStaleGenerationMiss(err, e.gen, s.safe.load()) {
			return "", false, err
		}
		// The generation this entry pointed at was retired out from under
		// us; the index has since been updated to point somewhere else
		// (or the key was removed outright). Loop and re-read it.
	}
	return "", false, err
}

// isStaleGenerationMiss reports whether err looks like the file-not-found
// race described above: an I/O failure against a generation that safeGen
// already considers retired.
func isStaleGenerationMiss(err error, gen generation, safe generation) bool {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindIO {
		return false
	}
	return gen < safe && errors.Is(err, os.ErrNotExist)
}

// Set asserts key -> value, triggering compaction if the stale-byte
// threshold is crossed (spec.md §4.4).
func (s *Store) Set(key, value string) error {
	return s.w.set(key, value)
}

// Remove asserts that key has no value. It fails with ErrKeyNotFound
// without writing anything if the key is absent (spec.md §4.4).
func (s *Store) Remove(key string) error {
	return s.w.remove(key)
}

// Close releases the writer's file handle. Readers lazily close their own
// handles as generations are evicted; there's no synchronous fence to
// wait for on Close, matching spec.md §3's "no explicit close required"
// lifecycle note (Close here is only needed to flush+release the active
// writer's descriptor).
func (s *Store) Close() error {
	if err := s.w.close(); err != nil {
		log.Printf("kvs: error closing store at %s: %v", s.dir, err)
		return err
	}
	return nil
}

// Len reports the number of live keys, mostly useful for tests and
// operational introspection.
func (s *Store) Len() int { return s.index.len() }
