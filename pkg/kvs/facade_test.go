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

package kvs_test

import (
	"errors"
	"testing"

	"github.com/kvsd/kvs/pkg/kvs"
)

// refusingPool never runs submitted work, the shape a real Pool takes once
// it has started shutting down.
type refusingPool struct{}

func (refusingPool) Submit(func()) bool { return false }
func (refusingPool) Close()             {}

type stubEngine struct{}

func (stubEngine) Get(string) (string, bool, error) { return "", false, nil }
func (stubEngine) Set(string, string) error         { return nil }
func (stubEngine) Remove(string) error              { return nil }
func (stubEngine) Close() error                     { return nil }

// A pool that refuses a submission must still let the caller's Future
// resolve, reporting KindChannel rather than blocking Wait forever.
func TestFacadeWaitReportsKindChannelOnRefusedSubmission(t *testing.T) {
	f := kvs.NewFacade(stubEngine{}, refusingPool{})

	if _, err := f.Get("k1").Wait(); !isKindChannel(err) {
		t.Fatalf("Get(...).Wait() error = %v; want KindChannel", err)
	}
	if _, err := f.Set("k1", "v1").Wait(); !isKindChannel(err) {
		t.Fatalf("Set(...).Wait() error = %v; want KindChannel", err)
	}
	if _, err := f.Remove("k1").Wait(); !isKindChannel(err) {
		t.Fatalf("Remove(...).Wait() error = %v; want KindChannel", err)
	}
}

func isKindChannel(err error) bool {
	var e *kvs.Error
	return errors.As(err, &e) && e.Kind == kvs.KindChannel
}
