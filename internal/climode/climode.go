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

// Package climode is a small subcommand registry for kvs-client, scaled
// down from the teacher's pkg/cmdmain: a mode name maps to a CommandRunner
// built from its own flag.FlagSet, and Main dispatches os.Args[1] to it.
package climode

import (
	"flag"
	"fmt"
	"os"
	"sort"
)

// CommandRunner is the interface a subcommand mode implements.
type CommandRunner interface {
	RunCommand(args []string) error
}

var (
	modeCommand = make(map[string]CommandRunner)
	modeFlags   = make(map[string]*flag.FlagSet)
)

// RegisterCommand adds mode to the set of subcommands Main dispatches to.
// makeCmd is called once, at registration time, with a FlagSet scoped to
// that mode so the command can declare its own flags.
func RegisterCommand(mode string, makeCmd func(fs *flag.FlagSet) CommandRunner) {
	if _, dup := modeCommand[mode]; dup {
		panic("climode: duplicate command " + mode)
	}
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	modeFlags[mode] = fs
	modeCommand[mode] = makeCmd(fs)
}

func usage() {
	var modes []string
	for m := range modeCommand {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	fmt.Fprintf(os.Stderr, "Usage: %s <mode> [flags] [args]\n\nModes:\n", os.Args[0])
	for _, m := range modes {
		fmt.Fprintf(os.Stderr, "  %s\n", m)
	}
}

// Main dispatches args (normally os.Args[1:]) to the registered mode named
// by args[0], parses that mode's flags from the remainder, and runs it. It
// returns the mode's error, or a usage error if args names an unknown or
// missing mode.
func Main(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("climode: no mode given")
	}
	mode := args[0]
	cmd, ok := modeCommand[mode]
	if !ok {
		usage()
		return fmt.Errorf("climode: unknown mode %q", mode)
	}
	fs := modeFlags[mode]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	return cmd.RunCommand(fs.Args())
}
