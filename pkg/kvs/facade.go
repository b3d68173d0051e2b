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

import "github.com/kvsd/kvs/pkg/threadpool"

// Facade is the async front the server talks to (spec.md §4.7/§9): it
// clones cheaply (the underlying Engine and Pool are both already safe to
// share), and every operation is dispatched onto the pool rather than run
// on the caller's goroutine. No disk I/O ever happens on the goroutine
// that calls Get/Set/Remove.
type Facade struct {
	engine Engine
	pool   threadpool.Pool
}

// NewFacade builds a Facade around engine, dispatching work onto pool.
func NewFacade(engine Engine, pool threadpool.Pool) *Facade {
	return &Facade{engine: engine, pool: pool}
}

// GetResult is the value a Get future resolves to.
type GetResult struct {
	Value string
	Found bool
}

// Future is a one-shot completion token: the result of a dispatched
// operation becomes available on Wait once the worker that ran it has
// finished.
type Future[T any] struct {
	ch chan futureResult[T]
}

type futureResult[T any] struct {
	val T
	err error
}

func newFuture[T any]() (*Future[T], chan<- futureResult[T]) {
	ch := make(chan futureResult[T], 1)
	return &Future[T]{ch: ch}, ch
}

// Wait blocks until the dispatched operation completes, returning its
// result or error. If the worker that owned this future never sends a
// result (e.g. the pool dropped the work item), Wait reports
// KindChannel.
func (f *Future[T]) Wait() (T, error) {
	r, ok := <-f.ch
	if !ok {
		var zero T
		return zero, wrapErr(KindChannel, errChannelClosed)
	}
	return r.val, r.err
}

var errChannelClosed = errClosedChannel{}

type errClosedChannel struct{}

func (errClosedChannel) Error() string { return "worker dropped its result without sending" }

// Get dispatches a lookup of key onto the pool.
func (f *Facade) Get(key string) *Future[GetResult] {
	fut, send := newFuture[GetResult]()
	accepted := f.pool.Submit(func() {
		value, found, err := f.engine.Get(key)
		send <- futureResult[GetResult]{val: GetResult{Value: value, Found: found}, err: err}
		close(send)
	})
	if !accepted {
		close(send)
	}
	return fut
}

// Set dispatches key -> value onto the pool.
func (f *Facade) Set(key, value string) *Future[struct{}] {
	fut, send := newFuture[struct{}]()
	accepted := f.pool.Submit(func() {
		err := f.engine.Set(key, value)
		send <- futureResult[struct{}]{err: err}
		close(send)
	})
	if !accepted {
		close(send)
	}
	return fut
}

// Remove dispatches key's removal onto the pool.
func (f *Facade) Remove(key string) *Future[struct{}] {
	fut, send := newFuture[struct{}]()
	accepted := f.pool.Submit(func() {
		err := f.engine.Remove(key)
		send <- futureResult[struct{}]{err: err}
		close(send)
	})
	if !accepted {
		close(send)
	}
	return fut
}

// Close releases the underlying engine. It does not stop the pool: the
// pool may be shared across multiple Facades, so ownership of pool
// shutdown stays with whoever constructed it.
func (f *Facade) Close() error {
	return f.engine.Close()
}
