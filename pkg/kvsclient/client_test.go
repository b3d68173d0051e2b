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

package kvsclient

import "testing"

func TestGetFailsWhenServerUnreachable(t *testing.T) {
	cl := New("127.0.0.1:1")
	if _, _, err := cl.Get("k1"); err == nil {
		t.Fatalf("expected a dial error against a closed port")
	}
}

func TestSetFailsWhenServerUnreachable(t *testing.T) {
	cl := New("127.0.0.1:1")
	if err := cl.Set("k1", "v1"); err == nil {
		t.Fatalf("expected a dial error against a closed port")
	}
}
