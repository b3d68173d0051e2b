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
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newPools(t *testing.T, n int) map[string]Pool {
	t.Helper()
	naive, err := NewNaiveThreadPool(n)
	if err != nil {
		t.Fatalf("NewNaiveThreadPool: %v", err)
	}
	shared, err := NewSharedQueueThreadPool(n)
	if err != nil {
		t.Fatalf("NewSharedQueueThreadPool: %v", err)
	}
	ants, err := NewAntsThreadPool(n)
	if err != nil {
		t.Fatalf("NewAntsThreadPool: %v", err)
	}
	return map[string]Pool{
		"naive":  naive,
		"shared": shared,
		"ants":   ants,
	}
}

func TestPoolRunsAllSubmissions(t *testing.T) {
	for name, p := range newPools(t, 4) {
		t.Run(name, func(t *testing.T) {
			defer p.Close()
			const n = 100
			var count int64
			var wg sync.WaitGroup
			wg.Add(n)
			for i := 0; i < n; i++ {
				p.Submit(func() {
					defer wg.Done()
					atomic.AddInt64(&count, 1)
				})
			}
			waitOrTimeout(t, &wg, time.Second)
			if got := atomic.LoadInt64(&count); got != n {
				t.Fatalf("got %d completions, want %d", got, n)
			}
		})
	}
}

func TestPoolSurvivesPanic(t *testing.T) {
	for name, p := range newPools(t, 2) {
		t.Run(name, func(t *testing.T) {
			defer p.Close()
			p.Submit(func() { panic("boom") })

			var wg sync.WaitGroup
			wg.Add(1)
			var ran int32
			p.Submit(func() {
				defer wg.Done()
				atomic.StoreInt32(&ran, 1)
			})
			waitOrTimeout(t, &wg, time.Second)
			if atomic.LoadInt32(&ran) != 1 {
				t.Fatalf("pool did not serve a submission after a panic")
			}
		})
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for submissions to complete")
	}
}
