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

// Command kvs-client is a one-shot TCP client for kvs-server, with a get,
// set, and rm subcommand, each opening its own connection.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/kvsd/kvs/internal/climode"
	"github.com/kvsd/kvs/pkg/kvs"
	"github.com/kvsd/kvs/pkg/kvsclient"
)

func init() {
	climode.RegisterCommand("get", func(fs *flag.FlagSet) climode.CommandRunner {
		c := &getCmd{}
		fs.StringVar(&c.addr, "addr", kvsclient.DefaultAddr, "server address")
		return c
	})
	climode.RegisterCommand("set", func(fs *flag.FlagSet) climode.CommandRunner {
		c := &setCmd{}
		fs.StringVar(&c.addr, "addr", kvsclient.DefaultAddr, "server address")
		return c
	})
	climode.RegisterCommand("rm", func(fs *flag.FlagSet) climode.CommandRunner {
		c := &rmCmd{}
		fs.StringVar(&c.addr, "addr", kvsclient.DefaultAddr, "server address")
		return c
	})
}

type getCmd struct{ addr string }

func (c *getCmd) RunCommand(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: kvs-client get [--addr ADDR] KEY")
	}
	cl := kvsclient.New(c.addr)
	value, found, err := cl.Get(args[0])
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("Key not found")
		return nil
	}
	fmt.Println(value)
	return nil
}

type setCmd struct{ addr string }

func (c *setCmd) RunCommand(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: kvs-client set [--addr ADDR] KEY VALUE")
	}
	cl := kvsclient.New(c.addr)
	return cl.Set(args[0], args[1])
}

type rmCmd struct{ addr string }

func (c *rmCmd) RunCommand(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: kvs-client rm [--addr ADDR] KEY")
	}
	cl := kvsclient.New(c.addr)
	err := cl.Remove(args[0])
	if err != nil {
		if errors.Is(err, kvs.ErrKeyNotFound) || err.Error() == kvs.ErrKeyNotFound.Error() {
			fmt.Println("Key not found")
			os.Exit(1)
		}
		return err
	}
	return nil
}

func main() {
	if err := climode.Main(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "kvs-client:", err)
		os.Exit(1)
	}
}
