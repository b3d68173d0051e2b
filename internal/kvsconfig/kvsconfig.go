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

// Package kvsconfig reads the JSON configuration file a kvs-server process
// starts from. It follows the teacher's pkg/jsonconfig idiom: config keys
// are pulled one at a time through Optional* accessors that note which
// keys were consulted and accumulate type errors onto the map itself, rather than unmarshaling directly into a struct, so a single
// Validate call at the end reports every problem in the file at once
// instead of stopping at the first one.
package kvsconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Obj is a parsed JSON configuration object.
type Obj map[string]interface{}

// ReadFile parses the JSON object at path.
func ReadFile(path string) (Obj, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kvsconfig: reading %s: %w", path, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("kvsconfig: parsing %s: %w", path, err)
	}
	return Obj(m), nil
}

func (o Obj) noteKnownKey(key string) {
	known, _ := o["_known"].(map[string]bool)
	if known == nil {
		known = make(map[string]bool)
	}
	known[key] = true
	o["_known"] = known
}

func (o Obj) appendError(err error) {
	ei, ok := o["_errors"]
	if ok {
		o["_errors"] = append(ei.([]error), err)
	} else {
		o["_errors"] = []error{err}
	}
}

// OptionalString returns key's string value, or def if key is absent.
func (o Obj) OptionalString(key, def string) string {
	o.noteKnownKey(key)
	v, ok := o[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		o.appendError(fmt.Errorf("kvsconfig: key %q must be a string", key))
		return def
	}
	return s
}

// OptionalInt64 returns key's integer value, or def if key is absent.
func (o Obj) OptionalInt64(key string, def int64) int64 {
	o.noteKnownKey(key)
	v, ok := o[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		o.appendError(fmt.Errorf("kvsconfig: key %q must be a number", key))
		return def
	}
	return int64(f)
}

// OptionalInt returns key's integer value, or def if key is absent.
func (o Obj) OptionalInt(key string, def int) int {
	return int(o.OptionalInt64(key, int64(def)))
}

// Validate reports every error accumulated while reading o, and flags any
// key in the file that no accessor ever consulted.
func (o Obj) Validate() error {
	for k := range o {
		if k == "_known" || k == "_errors" {
			continue
		}
		known, _ := o["_known"].(map[string]bool)
		if !known[k] {
			o.appendError(fmt.Errorf("kvsconfig: unknown key %q", k))
		}
	}
	ei, ok := o["_errors"]
	if !ok {
		return nil
	}
	errs := ei.([]error)
	if len(errs) == 0 {
		return nil
	}
	strs := make([]string, len(errs))
	for i, e := range errs {
		strs[i] = e.Error()
	}
	return fmt.Errorf("invalid config: %s", strings.Join(strs, "; "))
}

// Config is the fully resolved configuration for a kvs-server process.
type Config struct {
	Addr                string
	Engine              string
	CompactionThreshold int64
	PoolKind            string
	PoolSize            int
}

// Defaults returns the configuration used when no file and no flags
// override anything.
func Defaults() Config {
	return Config{
		Addr:                "127.0.0.1:4000",
		Engine:              "kvs",
		CompactionThreshold: 1024 * 1024,
		PoolKind:            "shared",
		PoolSize:            8,
	}
}

// Load starts from Defaults, overlays path's contents if path is non-empty,
// and returns the result. It never overlays flag values; callers apply
// those after Load so that explicit flags always win over the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	obj, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg.Addr = obj.OptionalString("addr", cfg.Addr)
	cfg.Engine = obj.OptionalString("engine", cfg.Engine)
	cfg.CompactionThreshold = obj.OptionalInt64("compactionThreshold", cfg.CompactionThreshold)
	cfg.PoolKind = obj.OptionalString("poolKind", cfg.PoolKind)
	cfg.PoolSize = obj.OptionalInt("poolSize", cfg.PoolSize)
	if err := obj.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
