// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fs provides the filesystem helpers shared by the provisioning
// steps, most importantly the recursive ownership walks.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// IsFile checks if the path is an existing regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsDir checks if the path is an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ChownR recursively changes ownership of path and everything under it to
// uid/gid. Symlinks are re-owned, never followed.
func ChownR(path string, uid, gid int) error {
	return filepath.WalkDir(path, func(name string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := unix.Lchown(name, uid, gid); err != nil {
			return fmt.Errorf("while changing ownership of %s: %w", name, err)
		}
		return nil
	})
}

// ChgrpR recursively changes group ownership of path to gid, leaving the
// owning user untouched. When groupWritable is set, directories and regular
// files additionally gain the group write bit so the build group can write
// into historically root-owned trees.
func ChgrpR(path string, gid int, groupWritable bool) error {
	return filepath.WalkDir(path, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := unix.Lchown(name, -1, gid); err != nil {
			return fmt.Errorf("while changing group of %s: %w", name, err)
		}
		if !groupWritable || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := os.Chmod(name, info.Mode().Perm()|0o020); err != nil {
			return fmt.Errorf("while adding group write on %s: %w", name, err)
		}
		return nil
	})
}

// errNotOwned stops an ownership walk early once a mismatch is found.
var errNotOwned = fmt.Errorf("ownership mismatch")

// OwnedBy reports whether every file under path is owned by uid/gid.
// A gid of -1 checks the owning user only, a uid of -1 the group only.
func OwnedBy(path string, uid, gid int) (bool, error) {
	err := filepath.WalkDir(path, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		st, ok := info.Sys().(*syscall.Stat_t)
		if !ok {
			return fmt.Errorf("no stat information for %s", name)
		}
		if uid >= 0 && int(st.Uid) != uid {
			return errNotOwned
		}
		if gid >= 0 && int(st.Gid) != gid {
			return errNotOwned
		}
		return nil
	})
	if err == errNotOwned {
		return false, nil
	}
	return err == nil, err
}

// MkdirOwned creates the directory (and missing parents) and hands it to
// uid/gid. Existing directories are re-owned, not an error, so provisioning
// stays idempotent.
func MkdirOwned(path string, perm os.FileMode, uid, gid int) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("while creating %s: %w", path, err)
	}
	if err := unix.Lchown(path, uid, gid); err != nil {
		return fmt.Errorf("while changing ownership of %s: %w", path, err)
	}
	return nil
}
