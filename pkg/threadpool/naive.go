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

// NaiveThreadPool spawns one goroutine per submission, the same
// fire-and-forget shape the teacher's server code uses for ungrouped,
// short-lived work (serve each accepted connection on its own goroutine).
// The worker-count argument is accepted for contract compatibility but
// otherwise unused: there is no shared pool to size.
type NaiveThreadPool struct{}

var _ Pool = NaiveThreadPool{}

// NewNaiveThreadPool constructs a NaiveThreadPool. n is ignored.
func NewNaiveThreadPool(n int) (NaiveThreadPool, error) {
	return NaiveThreadPool{}, nil
}

func (NaiveThreadPool) Submit(work func()) bool {
	go runSafely(work)
	return true
}

func (NaiveThreadPool) Close() {}
