// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package toolchain constructs the static cross toolchain: the musl
// compiler, the header shim that lends it the kernel headers musl does
// not ship, and the statically built OpenSSL the node links against.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/internal/pkg/util/bin"
	envutil "github.com/maidsafe/vaultenv/internal/pkg/util/env"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// Builder drives the toolchain construction.
type Builder struct {
	cfg config.Toolchain

	// lookPath resolves external binaries; tests point it at stubs.
	lookPath func(string) (string, error)
}

// NewBuilder returns a Builder for the pinned toolchain configuration.
func NewBuilder(cfg config.Toolchain) *Builder {
	return &Builder{
		cfg:      cfg,
		lookPath: bin.FindBin,
	}
}

// InstallCompiler runs the configured package-installer invocation that
// provides the cross compiler and the musl headers. The installer's
// dependency resolution is its own business; only its exit code matters.
func (b *Builder) InstallCompiler(ctx context.Context) error {
	argv := b.cfg.InstallCommand
	path, err := b.lookPath(argv[0])
	if err != nil {
		return fmt.Errorf("toolchain: package installer: %w", err)
	}

	sylog.Infof("Installing cross compiler: %v", argv)
	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Stdout = sylog.Writer()
	cmd.Stderr = os.Stderr
	cmd.Env = envutil.BuildEnviron()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("toolchain: installing cross compiler: %w", err)
	}
	return nil
}

// shimLinks returns the symlinks that lend the musl include path the
// platform headers it does not ship. Without these the OpenSSL source
// cannot find the architecture-specific assembly definitions.
func (b *Builder) shimLinks() [][2]string {
	return [][2]string{
		{filepath.Join(b.cfg.MuslInclude, "asm"), filepath.Join(b.cfg.ArchInclude, "asm")},
		{filepath.Join(b.cfg.MuslInclude, "asm-generic"), filepath.Join(b.cfg.KernelInclude, "asm-generic")},
		{filepath.Join(b.cfg.MuslInclude, "linux"), filepath.Join(b.cfg.KernelInclude, "linux")},
	}
}

// LinkShim creates the header shim symlinks. Links already pointing at
// the right target are left alone; links pointing elsewhere are an error
// rather than silently repointed.
func (b *Builder) LinkShim() error {
	if err := os.MkdirAll(b.cfg.MuslInclude, 0o755); err != nil {
		return fmt.Errorf("toolchain: %w", err)
	}

	for _, l := range b.shimLinks() {
		link, target := l[0], l[1]
		if existing, err := os.Readlink(link); err == nil {
			if existing == target {
				sylog.Debugf("Shim link %s already in place", link)
				continue
			}
			return fmt.Errorf("toolchain: %s points at %s, expected %s", link, existing, target)
		}
		sylog.Verbosef("Linking %s -> %s", link, target)
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("toolchain: while creating shim link %s: %w", link, err)
		}
	}
	return nil
}

// ShimComplete reports whether every shim link is present and correct.
func (b *Builder) ShimComplete() bool {
	for _, l := range b.shimLinks() {
		existing, err := os.Readlink(l[0])
		if err != nil || existing != l[1] {
			return false
		}
	}
	return true
}
