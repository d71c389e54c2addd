// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maidsafe/vaultenv/docs"
	"github.com/maidsafe/vaultenv/internal/pkg/buildcfg"
	"github.com/maidsafe/vaultenv/internal/pkg/util/env"
	"github.com/maidsafe/vaultenv/pkg/cmdline"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// cmdInits holds all the init function to be called
// for commands/flags registration.
var cmdInits = make([]func(*cmdline.CommandManager), 0)

// vaultenv command flags
var (
	debug   bool
	nocolor bool
	silent  bool
	verbose bool
	quiet   bool
)

// -d|--debug
var debugFlag = cmdline.Flag{
	ID:           "debugFlag",
	Value:        &debug,
	DefaultValue: false,
	Name:         "debug",
	ShortHand:    "d",
	Usage:        "print debugging information (highest verbosity)",
	EnvKeys:      []string{"DEBUG"},
}

// --nocolor
var noColorFlag = cmdline.Flag{
	ID:           "noColorFlag",
	Value:        &nocolor,
	DefaultValue: false,
	Name:         "nocolor",
	Usage:        "print without color output (default False)",
}

// -s|--silent
var silentFlag = cmdline.Flag{
	ID:           "silentFlag",
	Value:        &silent,
	DefaultValue: false,
	Name:         "silent",
	ShortHand:    "s",
	Usage:        "only print errors",
}

// -q|--quiet
var quietFlag = cmdline.Flag{
	ID:           "quietFlag",
	Value:        &quiet,
	DefaultValue: false,
	Name:         "quiet",
	ShortHand:    "q",
	Usage:        "suppress normal output",
}

// -v|--verbose
var verboseFlag = cmdline.Flag{
	ID:           "verboseFlag",
	Value:        &verbose,
	DefaultValue: false,
	Name:         "verbose",
	ShortHand:    "v",
	Usage:        "print additional information",
}

func addCmdInit(cmdInit func(*cmdline.CommandManager)) {
	cmdInits = append(cmdInits, cmdInit)
}

func setSylogMessageLevel() {
	var level int

	if debug {
		level = 5
		// Propagate debug flag to nested `vaultenv` calls.
		os.Setenv("VAULTENV_DEBUG", "1")
	} else if verbose {
		level = 4
	} else if quiet {
		level = -1
	} else if silent {
		level = -3
	} else {
		level = 1
	}

	color := true
	if nocolor || !term.IsTerminal(2) {
		color = false
	}

	sylog.SetLevel(level, color)
}

func persistentPreRun(_ *cobra.Command, _ []string) error {
	setSylogMessageLevel()
	sylog.Debugf("vaultenv version: %s", buildcfg.PACKAGE_VERSION)
	return nil
}

// Init initializes and registers all vaultenv commands.
func Init() {
	cmdManager := cmdline.NewCommandManager(vaultenvCmd)

	vaultenvCmd.Flags().SetInterspersed(false)
	vaultenvCmd.PersistentFlags().SetInterspersed(false)

	vt := fmt.Sprintf("%s version {{printf \"%%s\" .Version}}\n", buildcfg.PACKAGE_NAME)
	vaultenvCmd.SetVersionTemplate(vt)

	// set persistent pre run function here to avoid initialization loop error
	vaultenvCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		foundKeys := make(map[string]string)
		if err := cmdManager.UpdateCmdFlagFromEnv(vaultenvCmd, env.VaultenvPrefix, foundKeys); err != nil {
			sylog.Fatalf("While parsing global environment variables: %s", err)
		}
		if err := cmdManager.UpdateCmdFlagFromEnv(cmd, env.VaultenvPrefix, foundKeys); err != nil {
			sylog.Fatalf("While parsing environment variables: %s", err)
		}
		if err := persistentPreRun(cmd, args); err != nil {
			sylog.Fatalf("While initializing: %s", err)
		}
		return nil
	}

	cmdManager.RegisterFlagForCmd(&debugFlag, vaultenvCmd)
	cmdManager.RegisterFlagForCmd(&noColorFlag, vaultenvCmd)
	cmdManager.RegisterFlagForCmd(&silentFlag, vaultenvCmd)
	cmdManager.RegisterFlagForCmd(&quietFlag, vaultenvCmd)
	cmdManager.RegisterFlagForCmd(&verboseFlag, vaultenvCmd)

	cmdManager.RegisterCmd(VersionCmd)

	// register all others commands/flags
	for _, cmdInit := range cmdInits {
		cmdInit(cmdManager)
	}

	// any error reported by command manager is considered as fatal
	cliErrors := len(cmdManager.GetError())
	if cliErrors > 0 {
		for _, e := range cmdManager.GetError() {
			sylog.Errorf("%s", e)
		}
		sylog.Fatalf("CLI command manager reported %d error(s)", cliErrors)
	}
}

// vaultenvCmd is the base command when called without any subcommands
var vaultenvCmd = &cobra.Command{
	TraverseChildren:      true,
	DisableFlagsInUseLine: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return cmdline.CommandError("invalid command")
	},

	Use:           docs.VaultenvUse,
	Version:       buildcfg.PACKAGE_VERSION,
	Short:         docs.VaultenvShort,
	Long:          docs.VaultenvLong,
	Example:       docs.VaultenvExample,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// RootCmd returns the root vaultenv cobra command.
func RootCmd() *cobra.Command {
	return vaultenvCmd
}

func getColumns() int {
	width, _, err := term.GetSize(0)
	if err != nil {
		return 80
	}
	return width
}

// ExecuteVaultenv adds all child commands to the root command and sets
// flags appropriately. This is called by main.main(). It only needs to happen
// once to the root command (vaultenv).
func ExecuteVaultenv() {
	Init()

	// Setup a cancellable context that will trap Ctrl-C / SIGINT
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer func() {
		signal.Stop(c)
		cancel()
	}()
	go func() {
		select {
		case <-c:
			sylog.Debugf("User requested cancellation with interrupt")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := vaultenvCmd.ExecuteContext(ctx); err != nil {
		// Find the subcommand to display more useful help, and the correct
		// subcommand name in messages - i.e. 'provision' not 'vaultenv'
		subCmd, _, subCmdErr := vaultenvCmd.Find(os.Args[1:])
		if subCmdErr != nil {
			vaultenvCmd.Printf("Error: %v\n\n", subCmdErr)
		}

		name := subCmd.Name()
		switch err.(type) {
		case cmdline.FlagError:
			usage := subCmd.Flags().FlagUsagesWrapped(getColumns())
			vaultenvCmd.Printf("Error for command %q: %s\n\n", name, err)
			vaultenvCmd.Printf("Options for %s command:\n\n%s\n", name, usage)
		case cmdline.CommandError:
			vaultenvCmd.Println(subCmd.UsageString())
		default:
			vaultenvCmd.Printf("Error for command %q: %s\n\n", name, err)
			vaultenvCmd.Println(subCmd.UsageString())
		}
		vaultenvCmd.Printf("Run '%s --help' for more detailed usage information.\n",
			vaultenvCmd.CommandPath())
		os.Exit(1)
	}
}

// VersionCmd displays installed vaultenv version
var VersionCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(buildcfg.PACKAGE_VERSION)
	},

	Use:   docs.VersionUse,
	Short: docs.VersionShort,
}
