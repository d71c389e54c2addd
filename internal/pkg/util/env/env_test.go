// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package env

import (
	"testing"

	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func contains(environ []string, kv string) bool {
	for _, e := range environ {
		if e == kv {
			return true
		}
	}
	return false
}

func TestBuildEnviron(t *testing.T) {
	t.Setenv(TargetDirEnv, "/mnt/target")
	t.Setenv(BacktraceEnv, "1")

	environ := BuildEnviron("CC=musl-gcc")

	for _, want := range []string{
		"CARGO_TARGET_DIR=/mnt/target",
		"RUST_BACKTRACE=full",
		"CC=musl-gcc",
		sylog.GetEnvVar(),
	} {
		if !contains(environ, want) {
			t.Errorf("expected %q in build environment", want)
		}
	}
}

func TestBuildEnvironBacktraceDisabled(t *testing.T) {
	t.Setenv(BacktraceEnv, "0")

	if contains(BuildEnviron(), "RUST_BACKTRACE=full") {
		t.Errorf("backtrace should not be enabled for %s=0", BacktraceEnv)
	}
}
