// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cmdline

import (
	"testing"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use: "root",
	}
	parentCmd = &cobra.Command{
		Use: "parent",
	}
	childCmd = &cobra.Command{
		Use: "child",
	}
)

func TestCommandManager(t *testing.T) {
	if _, err := newCommandManager(nil); err == nil {
		t.Error("a nil root command must be rejected")
	}

	cm, err := newCommandManager(rootCmd)
	if err != nil {
		t.Fatalf("unexpected error while instantiating new command manager: %v", err)
	}

	cm.RegisterCmd(parentCmd)
	cm.RegisterSubCmd(parentCmd, childCmd)
	if len(cm.GetError()) > 0 {
		t.Errorf("unexpected registration errors: %v", cm.GetError())
	}
	if parentCmd.Parent() != rootCmd {
		t.Error("parent command not registered below root")
	}
	if childCmd.Parent() != parentCmd {
		t.Error("child command not registered below parent")
	}

	cm.RegisterCmd(nil)
	cm.RegisterSubCmd(parentCmd, nil)
	cm.RegisterSubCmd(nil, childCmd)
	if len(cm.GetError()) != 3 {
		t.Errorf("nil registrations must be recorded as errors, got %v", cm.GetError())
	}
}
