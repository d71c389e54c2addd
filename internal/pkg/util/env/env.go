// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package env

import (
	"os"

	"github.com/maidsafe/vaultenv/pkg/sylog"
)

const (
	// DefaultPath defines default value for PATH environment variable.
	DefaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

	// VaultenvPrefix is the recognized environment variable prefix.
	VaultenvPrefix = "VAULTENV_"

	// TargetDirEnv redirects the node's compiled artifacts outside the
	// source tree. Forwarded to build phases as CARGO_TARGET_DIR.
	TargetDirEnv = VaultenvPrefix + "TARGET_DIR"

	// BacktraceEnv enables full diagnostic unwinding on build failures.
	// Forwarded to build phases as RUST_BACKTRACE=full.
	BacktraceEnv = VaultenvPrefix + "BACKTRACE"
)

// BuildEnviron returns the environment handed to every exec'd build phase.
// It starts from the current environment and appends the build-output
// redirection and diagnostics toggles when the corresponding VAULTENV_
// variables are set, plus any extra KEY=VALUE overrides from the caller.
// The current log level rides along so nested invocations and the tools
// they run log at the verbosity the operator asked for.
func BuildEnviron(extra ...string) []string {
	environ := append(os.Environ(), sylog.GetEnvVar())

	if dir := os.Getenv(TargetDirEnv); dir != "" {
		environ = append(environ, "CARGO_TARGET_DIR="+dir)
	}
	if v := os.Getenv(BacktraceEnv); v != "" && v != "0" {
		environ = append(environ, "RUST_BACKTRACE=full")
	}

	return append(environ, extra...)
}
