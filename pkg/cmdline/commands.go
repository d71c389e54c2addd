// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package cmdline bridges declarative flag definitions to cobra commands
// and collects registration errors so the caller can report them in one
// place instead of aborting on the first bad definition.
package cmdline

import (
	"errors"

	"github.com/spf13/cobra"
)

// CommandError is reported when a command is misused.
type CommandError string

func (e CommandError) Error() string { return string(e) }

// FlagError is reported when a flag definition cannot be registered.
type FlagError string

func (e FlagError) Error() string { return string(e) }

// CommandManager registers commands below a root command and flags for
// those commands.
type CommandManager struct {
	rootCmd  *cobra.Command
	cmdFlags map[*cobra.Command][]*Flag
	errPool  []error
}

func newCommandManager(cmd *cobra.Command) (*CommandManager, error) {
	if cmd == nil {
		return nil, errors.New("nil root command")
	}
	return &CommandManager{
		rootCmd:  cmd,
		cmdFlags: make(map[*cobra.Command][]*Flag),
	}, nil
}

// NewCommandManager instantiates a command manager for the root command.
// A nil root command is a programming error, not a runtime condition.
func NewCommandManager(cmd *cobra.Command) *CommandManager {
	cm, err := newCommandManager(cmd)
	if err != nil {
		panic(err)
	}
	return cm
}

func (m *CommandManager) pushError(err error) {
	m.errPool = append(m.errPool, err)
}

// GetError returns the errors accumulated during registration.
func (m *CommandManager) GetError() []error {
	return m.errPool
}

// RegisterCmd registers a command as a direct child of the root command.
func (m *CommandManager) RegisterCmd(cmd *cobra.Command) {
	if cmd == nil {
		m.pushError(errors.New("nil command provided"))
		return
	}
	m.rootCmd.AddCommand(cmd)
}

// RegisterSubCmd registers a child command for the parent command given.
func (m *CommandManager) RegisterSubCmd(parentCmd, childCmd *cobra.Command) {
	if parentCmd == nil {
		m.pushError(errors.New("nil parent command provided"))
		return
	}
	if childCmd == nil {
		m.pushError(errors.New("nil child command provided"))
		return
	}
	parentCmd.AddCommand(childCmd)
}
