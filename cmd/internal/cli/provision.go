// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maidsafe/vaultenv/docs"
	"github.com/maidsafe/vaultenv/internal/pkg/buildcfg"
	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/internal/pkg/provision"
	"github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/pkg/cmdline"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func init() {
	addCmdInit(func(cmdManager *cmdline.CommandManager) {
		cmdManager.RegisterCmd(provisionCmd)
		cmdManager.RegisterFlagForCmd(&provisionConfigFlag, provisionCmd)
		cmdManager.RegisterFlagForCmd(&provisionDryRunFlag, provisionCmd)

		cmdManager.RegisterSubCmd(provisionCmd, provisionIdentityCmd)
		cmdManager.RegisterSubCmd(provisionCmd, provisionFixuidCmd)
		cmdManager.RegisterSubCmd(provisionCmd, provisionToolchainCmd)
		cmdManager.RegisterSubCmd(provisionCmd, provisionWorkspaceCmd)
	})
}

var (
	provisionConfig     string
	provisionConfigFlag = cmdline.Flag{
		ID:           "provisionConfigFlag",
		Value:        &provisionConfig,
		DefaultValue: "",
		Name:         "config",
		ShortHand:    "c",
		Usage:        "path to the build environment configuration file",
		EnvKeys:      []string{"BUILDENV_CONFIG"},
	}
)

var (
	provisionDryRun     bool
	provisionDryRunFlag = cmdline.Flag{
		ID:           "provisionDryRunFlag",
		Value:        &provisionDryRun,
		DefaultValue: false,
		Name:         "dry-run",
		Usage:        "report each step's state without provisioning anything",
	}
)

// loadBuildConfig resolves the configuration the provisioning commands
// run with: an explicit --config path, the installed configuration file
// when present, or the built-in defaults.
func loadBuildConfig() *config.Config {
	path := provisionConfig
	if path == "" && fs.IsFile(buildcfg.BUILDENV_CONF) {
		path = buildcfg.BUILDENV_CONF
	}
	cfg, err := config.Load(path)
	if err != nil {
		sylog.Fatalf("While loading build environment configuration: %s", err)
	}
	return cfg
}

var provisionCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		pipeline := provision.NewPipeline(loadBuildConfig())

		if provisionDryRun {
			plan, err := pipeline.Plan()
			if err != nil {
				sylog.Fatalf("While planning provisioning: %s", err)
			}
			for _, entry := range plan {
				state := "pending"
				if entry.Provisioned {
					state = "provisioned"
				}
				fmt.Printf("%-12s%s\n", entry.Name, state)
			}
			return
		}

		if err := pipeline.Run(cmd.Context()); err != nil {
			sylog.Fatalf("While provisioning: %s", err)
		}
	},

	Use:     docs.ProvisionUse,
	Short:   docs.ProvisionShort,
	Long:    docs.ProvisionLong,
	Example: docs.ProvisionExample,
}

// runProvisionStep runs a single named step unconditionally, outside the
// pipeline's skip-if-provisioned logic.
func runProvisionStep(cmd *cobra.Command, step string) {
	pipeline := provision.NewPipeline(loadBuildConfig())
	if err := pipeline.RunStep(cmd.Context(), step); err != nil {
		sylog.Fatalf("While provisioning: %s", err)
	}
}

var provisionIdentityCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runProvisionStep(cmd, provision.StepIdentity)
	},

	Use:     docs.ProvisionIdentityUse,
	Short:   docs.ProvisionIdentityShort,
	Long:    docs.ProvisionIdentityLong,
	Example: docs.ProvisionIdentityExample,
}

var provisionFixuidCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runProvisionStep(cmd, provision.StepFixuid)
	},

	Use:     docs.ProvisionFixuidUse,
	Short:   docs.ProvisionFixuidShort,
	Long:    docs.ProvisionFixuidLong,
	Example: docs.ProvisionFixuidExample,
}

var provisionToolchainCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runProvisionStep(cmd, provision.StepToolchain)
	},

	Use:     docs.ProvisionToolchainUse,
	Short:   docs.ProvisionToolchainShort,
	Long:    docs.ProvisionToolchainLong,
	Example: docs.ProvisionToolchainExample,
}

var provisionWorkspaceCmd = &cobra.Command{
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		runProvisionStep(cmd, provision.StepWorkspace)
	},

	Use:     docs.ProvisionWorkspaceUse,
	Short:   docs.ProvisionWorkspaceShort,
	Long:    docs.ProvisionWorkspaceLong,
	Example: docs.ProvisionWorkspaceExample,
}
