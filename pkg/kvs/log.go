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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// generation identifies a single log file; higher numbers are newer, and
// the highest one present is the active log being appended to.
type generation uint64

var genFileRe = regexp.MustCompile(`^(\d+)\.log$`)

func logPath(dir string, gen generation) string {
	return filepath.Join(dir, fmt.Sprintf("%d.log", gen))
}

// sortedGenerations discovers every "<gen>.log" file directly under dir,
// in ascending order. Unrelated files are ignored, the way the teacher's
// localdisk storage ignores anything that isn't a recognized blob path
// when it walks its root directory.
func sortedGenerations(dir string) ([]generation, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapErr(KindIO, err)
	}
	var gens []generation
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := genFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		gens = append(gens, generation(n))
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	return gens, nil
}

// logWriter is the append-only write handle for the active generation. It
// tracks pos as the file's length as observed by this writer, per
// spec.md §4.1 — a fresh open always starts pos at the current file size
// so resumed generations append correctly.
type logWriter struct {
	gen  generation
	file *os.File
	pos  int64
}

func openLogWriter(dir string, gen generation) (*logWriter, error) {
	f, err := os.OpenFile(logPath(dir, gen), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, wrapErr(KindIO, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapErr(KindIO, err)
	}
	return &logWriter{gen: gen, file: f, pos: fi.Size()}, nil
}

// append writes b and returns (posBefore, posAfter), letting the caller
// build an index entry from posBefore and posAfter-posBefore. The file is
// flushed to the OS with every write; fsync is deliberately not part of
// this contract (spec.md §1 non-goals, §4.1).
func (w *logWriter) append(b []byte) (posBefore, posAfter int64, err error) {
	posBefore = w.pos
	n, err := w.file.Write(b)
	if err != nil {
		return posBefore, posBefore, wrapErr(KindIO, err)
	}
	w.pos += int64(n)
	return posBefore, w.pos, nil
}

func (w *logWriter) close() error {
	return wrapErr(KindIO, w.file.Close())
}

// logReader is a random-access read handle for one generation, owned by a
// single caller (never shared across goroutines — see the reader pool in
// reader.go, which hands each worker its own set of handles).
type logReader struct {
	gen  generation
	file *os.File
}

func openLogReader(dir string, gen generation) (*logReader, error) {
	f, err := os.Open(logPath(dir, gen))
	if err != nil {
		return nil, wrapErr(KindIO, err)
	}
	return &logReader{gen: gen, file: f}, nil
}

// readAt reads exactly length bytes starting at pos.
func (r *logReader) readAt(pos, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := r.file.ReadAt(buf, pos); err != nil {
		return nil, wrapErr(KindIO, err)
	}
	return buf, nil
}

func (r *logReader) close() error {
	return wrapErr(KindIO, r.file.Close())
}
