// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package workspace prepares the build-time working directory: created
// and owned by the build identity, populated by a copy that runs as a
// privileged identity, then re-owned because the copy may leave files
// behind that the build user could not otherwise write.
package workspace

import (
	"fmt"
	"io"
	"os"

	da "github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/idtools"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// Prepare creates the workspace root owned by uid/gid, copies the source
// tree into it when one is configured, and re-asserts ownership over the
// whole tree afterwards.
func Prepare(ws config.Workspace, uid, gid int) error {
	// Only root can hand ownership to another identity. Unprivileged
	// runs squash to the caller's ids so the create, copy and chown
	// passes all agree instead of failing on the final chown.
	if euid := os.Geteuid(); euid != 0 && (uid != euid || gid != os.Getegid()) {
		sylog.Debugf("Unprivileged run, squashing workspace ownership to %d:%d", euid, os.Getegid())
		uid, gid = euid, os.Getegid()
	}

	if err := fs.MkdirOwned(ws.Root, 0o755, uid, gid); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	if ws.Source != "" {
		if !fs.IsDir(ws.Source) {
			return fmt.Errorf("workspace: source %s is not a directory", ws.Source)
		}
		sylog.Infof("Copying %s into %s", ws.Source, ws.Root)
		if err := copyTree(ws.Source, ws.Root, uid, gid); err != nil {
			return fmt.Errorf("workspace: while copying source: %w", err)
		}
	}

	// The copy runs under the provisioning identity, not the build user.
	// Ownership is re-applied to the whole tree so later build and test
	// steps can write their output as the build user.
	if err := fs.ChownR(ws.Root, uid, gid); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}
	return nil
}

// copyTree copies src into dst through a tar pipe, forcing ownership of
// every extracted file to uid/gid. The caller is responsible for
// handing in ids the current privilege level can actually assign.
func copyTree(src, dst string, uid, gid int) error {
	ar := da.NewDefaultArchiver()

	owner := &idtools.Identity{UID: uid, GID: gid}

	ar.Untar = func(tarArchive io.Reader, dest string, options *da.TarOptions) error {
		options.IDMap = idtools.IdentityMapping{}
		options.ChownOpts = owner
		return da.Untar(tarArchive, dest, options)
	}

	return ar.CopyWithTar(src, dst)
}

// Provisioned reports whether the workspace exists and is owned by the
// build identity throughout.
func Provisioned(ws config.Workspace, uid, gid int) (bool, error) {
	if !fs.IsDir(ws.Root) {
		return false, nil
	}
	return fs.OwnedBy(ws.Root, uid, gid)
}
