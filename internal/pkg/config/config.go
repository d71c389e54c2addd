// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package config holds the pinned provisioning configuration: versions,
// platforms and checksums are pinned here rather than hardcoded in the
// steps, so reproducing an image means reproducing this file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v2"

	"github.com/maidsafe/vaultenv/internal/pkg/buildcfg"
)

// Identity describes the fixed build/runtime user baked into the image.
type Identity struct {
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
	UID   int    `yaml:"uid"`
	GID   int    `yaml:"gid"`
	Home  string `yaml:"home"`
	Shell string `yaml:"shell"`
}

// Pin is a pinned release: a repository base URL, an exact version, an
// optional platform string and the sha256 the archive must hash to.
type Pin struct {
	Repo     string `yaml:"repo"`
	Version  string `yaml:"version"`
	Platform string `yaml:"platform,omitempty"`
	SHA256   string `yaml:"sha256"`
}

// ArchiveName returns the conventional <tool>-<version>[-<platform>].tar.gz
// archive name for the pin.
func (p Pin) ArchiveName(tool string) string {
	if p.Platform != "" {
		return fmt.Sprintf("%s-%s-%s.tar.gz", tool, p.Version, p.Platform)
	}
	return fmt.Sprintf("%s-%s.tar.gz", tool, p.Version)
}

// URL returns the full download URL for the pin.
func (p Pin) URL(tool string) string {
	return strings.TrimSuffix(p.Repo, "/") + "/" + p.ArchiveName(tool)
}

// Digest returns the pinned checksum as a digest.
func (p Pin) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, p.SHA256)
}

func (p Pin) validate(what string) error {
	if p.Repo == "" {
		return fmt.Errorf("%s: repo not set", what)
	}
	// OpenSSL patch releases carry a trailing letter (1.1.1k), strip it
	// before the semver check.
	numeric := strings.TrimRight(p.Version, "abcdefghijklmnopqrstuvwxyz")
	if _, err := semver.ParseTolerant(numeric); err != nil {
		return fmt.Errorf("%s: pinned version %q is not a version: %w", what, p.Version, err)
	}
	if err := p.Digest().Validate(); err != nil {
		return fmt.Errorf("%s: pinned sha256 %q: %w", what, p.SHA256, err)
	}
	return nil
}

// Fixuid configures the privilege-fix helper installation.
type Fixuid struct {
	Pin        `yaml:",inline"`
	BinDir     string `yaml:"bindir"`
	ConfigPath string `yaml:"config"`
}

// OpenSSL configures the static cryptographic library build.
type OpenSSL struct {
	Pin           `yaml:",inline"`
	Prefix        string   `yaml:"prefix"`
	Target        string   `yaml:"target"`
	ConfigureArgs []string `yaml:"configure_args"`
}

// Toolchain configures the cross compiler and the musl header shim.
type Toolchain struct {
	// InstallCommand is the opaque package-installer invocation that
	// provides the cross compiler and the musl headers.
	InstallCommand []string `yaml:"install_command"`
	CrossCompiler  string   `yaml:"cross_compiler"`
	MuslInclude    string   `yaml:"musl_include"`
	ArchInclude    string   `yaml:"arch_include"`
	KernelInclude  string   `yaml:"kernel_include"`
	OpenSSL        OpenSSL  `yaml:"openssl"`
}

// Workspace configures the source/work directory preparation.
type Workspace struct {
	Root   string `yaml:"root"`
	Source string `yaml:"source"`
}

// Config is the full pinned provisioning configuration.
type Config struct {
	Identity      Identity  `yaml:"identity"`
	Fixuid        Fixuid    `yaml:"fixuid"`
	Toolchain     Toolchain `yaml:"toolchain"`
	Workspace     Workspace `yaml:"workspace"`
	ToolchainRoot string    `yaml:"toolchain_root"`

	// PasswdFile and GroupFile default to the system databases; image
	// builds targeting a staged rootfs point them elsewhere.
	PasswdFile string `yaml:"passwd_file,omitempty"`
	GroupFile  string `yaml:"group_file,omitempty"`
}

// Default returns the compiled-in configuration for a stock image build.
func Default() *Config {
	return &Config{
		Identity: Identity{
			Name:  "maidsafe",
			Group: "maidsafe",
			UID:   1000,
			GID:   1000,
			Home:  "/home/maidsafe",
			Shell: "/usr/sbin/nologin",
		},
		Fixuid: Fixuid{
			Pin: Pin{
				Repo:     "https://github.com/boxboat/fixuid/releases/download/v0.5.1",
				Version:  "0.5.1",
				Platform: "linux-amd64",
				SHA256:   "3b2a0ec95d6293a2a2b9c3e922bbff9d77c5810b87d1fd0a0ae1470ca513e45e",
			},
			BinDir:     buildcfg.BINDIR,
			ConfigPath: buildcfg.FIXUID_CONF,
		},
		Toolchain: Toolchain{
			InstallCommand: []string{
				"apt-get", "install", "-y", "--no-install-recommends",
				"musl-tools", "linux-libc-dev",
			},
			CrossCompiler: "musl-gcc",
			MuslInclude:   "/usr/include/x86_64-linux-musl",
			ArchInclude:   "/usr/include/x86_64-linux-gnu",
			KernelInclude: "/usr/include",
			OpenSSL: OpenSSL{
				Pin: Pin{
					Repo:    "https://www.openssl.org/source",
					Version: "1.1.1k",
					SHA256:  "892a0875b9872acd04a9fde79b1f943075d5ea162415de3047c27df541b22b0e",
				},
				Prefix: buildcfg.OPENSSL_PREFIX,
				Target: "linux-x86_64",
				ConfigureArgs: []string{
					"no-shared",
					"no-zlib",
					"-fPIC",
					"-DOPENSSL_NO_SECURE_MEMORY",
				},
			},
		},
		Workspace: Workspace{
			Root:   "/home/maidsafe/vault",
			Source: "/tmp/vault-src",
		},
		ToolchainRoot: buildcfg.TOOLCHAIN_ROOT,
		PasswdFile:    buildcfg.PASSWD_FILE,
		GroupFile:     buildcfg.GROUP_FILE,
	}
}

// Load reads path over the compiled-in defaults, so a partial file only
// overrides what it names. An empty path returns the defaults untouched.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading configuration %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return nil, fmt.Errorf("while parsing configuration %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the pins and identities before any step runs, so a
// malformed pin fails the pipeline before the first download.
func (c *Config) Validate() error {
	if c.Identity.Name == "" || c.Identity.Group == "" {
		return fmt.Errorf("identity: user and group names are required")
	}
	if c.Identity.UID <= 0 || c.Identity.GID <= 0 {
		return fmt.Errorf("identity: uid and gid must be positive, got %d:%d",
			c.Identity.UID, c.Identity.GID)
	}
	if err := c.Fixuid.validate("fixuid"); err != nil {
		return err
	}
	if err := c.Toolchain.OpenSSL.validate("openssl"); err != nil {
		return err
	}
	if len(c.Toolchain.InstallCommand) == 0 {
		return fmt.Errorf("toolchain: install_command is required")
	}
	if c.Toolchain.CrossCompiler == "" {
		return fmt.Errorf("toolchain: cross_compiler is required")
	}
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace: root is required")
	}
	return nil
}
