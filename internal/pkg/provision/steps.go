// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package provision

import (
	"context"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/internal/pkg/fixuid"
	"github.com/maidsafe/vaultenv/internal/pkg/identity"
	"github.com/maidsafe/vaultenv/internal/pkg/toolchain"
	"github.com/maidsafe/vaultenv/internal/pkg/workspace"
)

// Step names, also the accepted arguments of "provision <step>".
const (
	StepIdentity  = "identity"
	StepFixuid    = "fixuid"
	StepToolchain = "toolchain"
	StepWorkspace = "workspace"
)

// NewPipeline wires the four build-time steps in their only valid order:
// the identity must exist before fixuid configuration can name it, the
// toolchain writes into directories the identity step regrouped, and the
// workspace is handed to the user all previous steps established.
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{steps: []Step{
		&identityStep{cfg: cfg},
		&fixuidStep{cfg: cfg},
		&toolchainStep{cfg: cfg, builder: toolchain.NewBuilder(cfg.Toolchain)},
		&workspaceStep{cfg: cfg},
	}}
}

func buildUser(cfg *config.Config) identity.User {
	return identity.User{
		Name:  cfg.Identity.Name,
		Group: cfg.Identity.Group,
		UID:   cfg.Identity.UID,
		GID:   cfg.Identity.GID,
		Home:  cfg.Identity.Home,
		Shell: cfg.Identity.Shell,
	}
}

type identityStep struct {
	cfg *config.Config
}

func (s *identityStep) Name() string { return StepIdentity }

func (s *identityStep) Provisioned() (bool, error) {
	return identity.Exists(s.cfg.PasswdFile, buildUser(s.cfg))
}

func (s *identityStep) Run(_ context.Context) error {
	return identity.Provision(s.cfg.PasswdFile, s.cfg.GroupFile, buildUser(s.cfg), s.cfg.ToolchainRoot)
}

type fixuidStep struct {
	cfg *config.Config
}

func (s *fixuidStep) Name() string { return StepFixuid }

func (s *fixuidStep) Provisioned() (bool, error) {
	return fixuid.Provisioned(s.cfg.Fixuid, s.cfg.Identity)
}

func (s *fixuidStep) Run(ctx context.Context) error {
	return fixuid.Install(ctx, s.cfg.Fixuid, s.cfg.Identity)
}

type toolchainStep struct {
	cfg     *config.Config
	builder *toolchain.Builder
}

func (s *toolchainStep) Name() string { return StepToolchain }

func (s *toolchainStep) Provisioned() (bool, error) {
	if !s.builder.ShimComplete() {
		return false, nil
	}
	return s.builder.Provisioned()
}

func (s *toolchainStep) Run(ctx context.Context) error {
	if err := s.builder.InstallCompiler(ctx); err != nil {
		return err
	}
	if err := s.builder.LinkShim(); err != nil {
		return err
	}
	return s.builder.BuildOpenSSL(ctx)
}

type workspaceStep struct {
	cfg *config.Config
}

func (s *workspaceStep) Name() string { return StepWorkspace }

func (s *workspaceStep) Provisioned() (bool, error) {
	return workspace.Provisioned(s.cfg.Workspace, s.cfg.Identity.UID, s.cfg.Identity.GID)
}

func (s *workspaceStep) Run(_ context.Context) error {
	return workspace.Prepare(s.cfg.Workspace, s.cfg.Identity.UID, s.cfg.Identity.GID)
}
