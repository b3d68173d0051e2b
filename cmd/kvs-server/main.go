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

// Command kvs-server listens for the wire protocol described in spec.md
// §4.9/§6 and dispatches requests to either the native log-structured
// engine or the LevelDB alternative backend.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/kvsd/kvs/internal/kvsconfig"
	"github.com/kvsd/kvs/pkg/enginesuite"
	"github.com/kvsd/kvs/pkg/kvs"
	"github.com/kvsd/kvs/pkg/kvsserver"
	"github.com/kvsd/kvs/pkg/threadpool"
)

func main() {
	var (
		addr       = flag.String("addr", "", "address to listen on (overrides config)")
		engineFlag = flag.String("engine", "", "storage engine: kvs or leveldb (overrides config)")
		dir        = flag.String("dir", "", "data directory")
		configPath = flag.String("config", "", "path to a JSON config file")
		poolKind   = flag.String("pool", "", "thread pool: naive, shared, or ants (overrides config)")
		poolSize   = flag.Int("pool-size", 0, "worker count for shared/ants pools (overrides config)")
	)
	flag.Parse()

	if err := run(*addr, *engineFlag, *dir, *configPath, *poolKind, *poolSize); err != nil {
		log.Fatalf("kvs-server: %v", err)
	}
}

func run(addr, engineFlag, dir, configPath, poolKind string, poolSize int) error {
	cfg, err := kvsconfig.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if engineFlag != "" {
		cfg.Engine = engineFlag
	}
	if poolKind != "" {
		cfg.PoolKind = poolKind
	}
	if poolSize != 0 {
		cfg.PoolSize = poolSize
	}
	if dir == "" {
		dir = "."
	}

	if _, err := readOrWritePinnedEngine(dir, cfg.Engine); err != nil {
		return err
	}

	engine, err := openEngine(dir, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Printf("kvs-server: closing engine: %v", err)
		}
	}()

	pool, err := openPool(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Connection handling gets its own unbounded pool, distinct from the
	// bounded disk pool behind the facade: handle() blocks on
	// facade.*(...).Wait(), and if that wait shared the same bounded pool
	// as the connections themselves, a burst of PoolSize connections would
	// fill every worker with a blocked Wait() and leave nothing free to
	// run the engine work being waited on. The original system keeps this
	// same split — connections run on the async executor's unbounded
	// spawn, not the disk-bound pool.
	conns, err := threadpool.NewNaiveThreadPool(0)
	if err != nil {
		return err
	}
	defer conns.Close()

	facade := kvs.NewFacade(engine, pool)
	srv, err := kvsserver.Listen(cfg.Addr, facade, conns)
	if err != nil {
		return err
	}
	log.Printf("kvs-server: listening on %s (engine=%s, pool=%s)", srv.Addr(), cfg.Engine, cfg.PoolKind)
	return srv.Serve()
}

func openEngine(dir string, cfg kvsconfig.Config) (kvs.Engine, error) {
	switch cfg.Engine {
	case "", "kvs":
		return kvs.Open(dir, kvs.WithCompactionThreshold(cfg.CompactionThreshold))
	case "leveldb":
		return enginesuite.OpenLevelDB(dir)
	default:
		log.Printf("kvs-server: unknown engine %q, falling back to kvs", cfg.Engine)
		return kvs.Open(dir, kvs.WithCompactionThreshold(cfg.CompactionThreshold))
	}
}

func openPool(cfg kvsconfig.Config) (threadpool.Pool, error) {
	switch cfg.PoolKind {
	case "naive":
		return threadpool.NewNaiveThreadPool(cfg.PoolSize)
	case "ants":
		return threadpool.NewAntsThreadPool(cfg.PoolSize)
	case "", "shared":
		return threadpool.NewSharedQueueThreadPool(cfg.PoolSize)
	default:
		return nil, os.ErrInvalid
	}
}
