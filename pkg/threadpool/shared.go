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

package threadpool

import (
	"errors"
	"sync"
)

// SharedQueueThreadPool is a fixed-size pool of long-lived workers reading
// off one shared, unbuffered channel of work. A panic inside a submission
// is recovered by runSafely, so the worker that ran it keeps serving; if a
// worker's goroutine panics anyway, the pool starts a replacement worker so
// that later submissions keep being served — the panic-safety requirement
// in spec.md §4.8.
type SharedQueueThreadPool struct {
	work chan func()

	closeOnce sync.Once
	done      chan struct{}
}

var _ Pool = (*SharedQueueThreadPool)(nil)

// NewSharedQueueThreadPool constructs a pool of n workers. It fails with a
// resource error if n < 1.
func NewSharedQueueThreadPool(n int) (*SharedQueueThreadPool, error) {
	if n < 1 {
		return nil, errors.New("threadpool: worker count must be >= 1")
	}
	p := &SharedQueueThreadPool{
		work: make(chan func()),
		done: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		p.spawnWorker()
	}
	return p, nil
}

// spawnWorker starts one worker goroutine. Its whole loop runs inside a
// recover scope, via runWorkerLoop, so that a panic
// escaping runSafely (which should never happen, but workers are meant to
// be bulletproof) still respawns a fresh worker instead of shrinking the
// pool.
func (p *SharedQueueThreadPool) spawnWorker() {
	go p.runWorkerLoop()
}

func (p *SharedQueueThreadPool) runWorkerLoop() {
	defer func() {
		if r := recover(); r != nil {
			logPanic(r)
			select {
			case <-p.done:
				// pool is shutting down; don't respawn.
			default:
				p.spawnWorker()
			}
		}
	}()
	for {
		select {
		case <-p.done:
			return
		case w, ok := <-p.work:
			if !ok {
				return
			}
			runSafely(w)
		}
	}
}

func (p *SharedQueueThreadPool) Submit(work func()) bool {
	select {
	case <-p.done:
		return false
	case p.work <- work:
		return true
	}
}

// Close stops all workers. Work already queued on the shared channel but
// not yet picked up by a worker is dropped.
func (p *SharedQueueThreadPool) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}
