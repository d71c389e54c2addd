// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package bin provides access to the external binaries the provisioner
// shells out to.
package bin

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/maidsafe/vaultenv/internal/pkg/util/env"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// FindBin returns the path to the named binary, or an error if it is not
// found. Only binaries the pipeline deliberately depends on are resolvable,
// so a typo in a configured command surfaces here rather than at exec time.
func FindBin(name string) (path string, err error) {
	switch name {
	// Package installers, any of which may be configured as the opaque
	// "install the cross compiler" collaborator.
	case "apk", "apt-get", "dnf", "yum":
		return findOnPath(name)
	// The build toolchain itself.
	case "make", "sh", "musl-gcc", "cc", "gcc":
		return findOnPath(name)
	}
	return "", fmt.Errorf("unknown executable name %q", name)
}

// findOnPath performs a search on the configured binary path for the
// named executable, returning its full path.
func findOnPath(name string) (path string, err error) {
	oldPath := os.Getenv("PATH")
	defer os.Setenv("PATH", oldPath)
	os.Setenv("PATH", env.DefaultPath+":"+oldPath)

	path, err = exec.LookPath(name)
	if err == nil {
		sylog.Debugf("Found %q at %q", name, path)
	}
	return path, err
}
