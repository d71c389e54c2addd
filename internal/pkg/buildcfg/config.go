// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package buildcfg holds the compile-time defaults of the provisioner.
// Everything here can be overridden through the pinned configuration file,
// these are only the values baked into a stock image build.
package buildcfg

const (
	PACKAGE_NAME    = "vaultenv"
	PACKAGE_VERSION = "0.3.0"
)

const (
	// BUILDENV_CONF is the default location of the pinned-version
	// provisioning configuration.
	BUILDENV_CONF = "/etc/vaultenv/buildenv.yml"

	// FIXUID_CONF is the reconciliation configuration consumed at every
	// container start by the entrypoint.
	FIXUID_CONF = "/etc/fixuid/config.yml"

	// BINDIR receives the fixuid helper binary.
	BINDIR = "/usr/local/bin"

	// OPENSSL_PREFIX is the dedicated install prefix for the statically
	// built OpenSSL. Nothing else installs under it, so a failed build
	// can discard it wholesale.
	OPENSSL_PREFIX = "/usr/local/openssl"

	// TOOLCHAIN_ROOT is the shared toolchain directory whose group
	// ownership is handed to the build group.
	TOOLCHAIN_ROOT = "/usr/local"

	// PASSWD_FILE and GROUP_FILE are the identity databases edited by the
	// identity provisioner and the entrypoint reconciler.
	PASSWD_FILE = "/etc/passwd"
	GROUP_FILE  = "/etc/group"
)
