// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/maidsafe/vaultenv/docs"
	"github.com/maidsafe/vaultenv/internal/pkg/entrypoint"
	"github.com/maidsafe/vaultenv/pkg/cmdline"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func init() {
	addCmdInit(func(cmdManager *cmdline.CommandManager) {
		// everything after the first positional argument belongs to the
		// wrapped command
		entrypointCmd.Flags().SetInterspersed(false)

		cmdManager.RegisterCmd(entrypointCmd)
		cmdManager.RegisterFlagForCmd(&entrypointUIDFlag, entrypointCmd)
		cmdManager.RegisterFlagForCmd(&entrypointGIDFlag, entrypointCmd)
		cmdManager.RegisterFlagForCmd(&entrypointWorkDirFlag, entrypointCmd)
		cmdManager.RegisterFlagForCmd(&entrypointConfigFlag, entrypointCmd)
	})
}

var (
	entrypointUID     int
	entrypointUIDFlag = cmdline.Flag{
		ID:           "entrypointUIDFlag",
		Value:        &entrypointUID,
		DefaultValue: -1,
		Name:         "uid",
		Usage:        "uid to reconcile the build user to (default: detect)",
	}
)

var (
	entrypointGID     int
	entrypointGIDFlag = cmdline.Flag{
		ID:           "entrypointGIDFlag",
		Value:        &entrypointGID,
		DefaultValue: -1,
		Name:         "gid",
		Usage:        "gid to reconcile the build group to (default: detect)",
	}
)

var (
	entrypointWorkDir     string
	entrypointWorkDirFlag = cmdline.Flag{
		ID:           "entrypointWorkDirFlag",
		Value:        &entrypointWorkDir,
		DefaultValue: "",
		Name:         "workdir",
		Usage:        "directory whose owner provides the ids when not given otherwise",
		EnvKeys:      []string{"WORKDIR"},
	}
)

var (
	entrypointConfig     string
	entrypointConfigFlag = cmdline.Flag{
		ID:           "entrypointConfigFlag",
		Value:        &entrypointConfig,
		DefaultValue: "",
		Name:         "config",
		Usage:        "path to the identity helper configuration file",
		Hidden:       true,
	}
)

var entrypointCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Args:                  cobra.ArbitraryArgs,
	Run: func(_ *cobra.Command, args []string) {
		u, err := entrypoint.Reconcile(entrypoint.Options{
			ConfigPath: entrypointConfig,
			UID:        entrypointUID,
			GID:        entrypointGID,
			WorkDir:    entrypointWorkDir,
		})
		if err != nil {
			sylog.Fatalf("While reconciling build identity: %s", err)
		}

		if len(args) == 0 {
			sylog.Infof("Identity %s reconciled to %d:%d, no command to run", u.Name, u.UID, u.GID)
			return
		}
		if err := entrypoint.Exec(u, args); err != nil {
			sylog.Fatalf("While executing %s: %s", args[0], err)
		}
	},

	Use:     docs.EntrypointUse,
	Short:   docs.EntrypointShort,
	Long:    docs.EntrypointLong,
	Example: docs.EntrypointExample,
}
