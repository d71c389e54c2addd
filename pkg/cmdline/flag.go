// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cmdline

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flag holds a declarative flag definition, registered for one or more
// commands via CommandManager.RegisterFlagForCmd. Value must be a
// pointer whose pointee type matches the type of DefaultValue.
type Flag struct {
	ID           string
	Value        interface{}
	DefaultValue interface{}
	Name         string
	ShortHand    string
	Usage        string
	Deprecated   string
	Hidden       bool
	Required     bool
	// EnvKeys are environment variable suffixes (without the program
	// prefix) that set this flag when it was not passed on the command
	// line.
	EnvKeys []string
}

// RegisterFlagForCmd registers a flag for one or more commands.
func (m *CommandManager) RegisterFlagForCmd(flag *Flag, cmds ...*cobra.Command) {
	if flag == nil {
		m.pushError(fmt.Errorf("nil flag provided"))
		return
	}
	if len(cmds) == 0 {
		m.pushError(fmt.Errorf("no command provided for flag --%s", flag.Name))
		return
	}
	for _, c := range cmds {
		if c == nil {
			m.pushError(fmt.Errorf("nil command provided for flag --%s", flag.Name))
			continue
		}
		if err := flag.register(c); err != nil {
			m.pushError(err)
			continue
		}
		m.cmdFlags[c] = append(m.cmdFlags[c], flag)
	}
}

func (f *Flag) register(cmd *cobra.Command) error {
	flags := cmd.Flags()

	switch v := f.Value.(type) {
	case *string:
		d, ok := f.DefaultValue.(string)
		if !ok {
			return fmt.Errorf("wrong default value type %T for string flag --%s", f.DefaultValue, f.Name)
		}
		flags.StringVarP(v, f.Name, f.ShortHand, d, f.Usage)
	case *bool:
		d, ok := f.DefaultValue.(bool)
		if !ok {
			return fmt.Errorf("wrong default value type %T for bool flag --%s", f.DefaultValue, f.Name)
		}
		flags.BoolVarP(v, f.Name, f.ShortHand, d, f.Usage)
	case *int:
		d, ok := f.DefaultValue.(int)
		if !ok {
			return fmt.Errorf("wrong default value type %T for int flag --%s", f.DefaultValue, f.Name)
		}
		flags.IntVarP(v, f.Name, f.ShortHand, d, f.Usage)
	case *[]string:
		d, ok := f.DefaultValue.([]string)
		if !ok && f.DefaultValue != nil {
			return fmt.Errorf("wrong default value type %T for string slice flag --%s", f.DefaultValue, f.Name)
		}
		flags.StringSliceVarP(v, f.Name, f.ShortHand, d, f.Usage)
	default:
		return fmt.Errorf("unsupported value type %T for flag --%s", f.Value, f.Name)
	}

	if f.Hidden {
		if err := flags.MarkHidden(f.Name); err != nil {
			return err
		}
	}
	if f.Deprecated != "" {
		if err := flags.MarkDeprecated(f.Name, f.Deprecated); err != nil {
			return err
		}
	}
	if f.Required {
		if err := cmd.MarkFlagRequired(f.Name); err != nil {
			return err
		}
	}
	return nil
}

// UpdateCmdFlagFromEnv sets the command's registered flags from the
// environment, prefix+ENVKEY per flag, for flags not already set on the
// command line. foundKeys records keys already applied so a key shared
// between commands is applied once.
func (m *CommandManager) UpdateCmdFlagFromEnv(cmd *cobra.Command, prefix string, foundKeys map[string]string) error {
	for _, f := range m.cmdFlags[cmd] {
		pf := cmd.Flags().Lookup(f.Name)
		if pf == nil || pf.Changed {
			continue
		}
		for _, key := range f.EnvKeys {
			val, ok := os.LookupEnv(prefix + key)
			if !ok {
				continue
			}
			if _, seen := foundKeys[key]; seen {
				continue
			}
			foundKeys[key] = val
			if err := setFlagFromEnv(pf, prefix+key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func setFlagFromEnv(pf *pflag.Flag, envKey, val string) error {
	if err := pf.Value.Set(val); err != nil {
		return fmt.Errorf("while setting flag --%s from environment %s=%q: %v", pf.Name, envKey, val, err)
	}
	pf.Changed = true
	return nil
}
