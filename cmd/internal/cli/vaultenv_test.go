// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"testing"

	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func TestSetSylogMessageLevel(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		verbose bool
		quiet   bool
		silent  bool
		level   int
	}{
		{name: "default", level: 1},
		{name: "silent", silent: true, level: -3},
		{name: "quiet", quiet: true, level: -1},
		{name: "verbose", verbose: true, level: 4},
		{name: "debug", debug: true, level: 5},
		{name: "debug wins over quiet", debug: true, quiet: true, level: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debug, verbose, quiet, silent = tt.debug, tt.verbose, tt.quiet, tt.silent
			if tt.debug {
				// setSylogMessageLevel propagates this one
				t.Setenv("VAULTENV_DEBUG", "")
			}

			setSylogMessageLevel()
			if sylog.GetLevel() != tt.level {
				t.Errorf("log level = %d, want %d", sylog.GetLevel(), tt.level)
			}
		})
	}
}

func TestInitRegistersCommands(t *testing.T) {
	Init()

	for _, name := range []string{"provision", "entrypoint", "version"} {
		cmd, _, err := vaultenvCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered: %v", name, err)
		}
	}

	for _, name := range []string{"identity", "fixuid", "toolchain", "workspace"} {
		cmd, _, err := vaultenvCmd.Find([]string{"provision", name})
		if err != nil || cmd.Name() != name {
			t.Errorf("provision subcommand %s not registered: %v", name, err)
		}
	}
}
