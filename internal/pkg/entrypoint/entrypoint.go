// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package entrypoint implements the container-start identity
// reconciliation: before any user command runs, the internal build user
// is renumbered to the ids the invoking host presented, so files written
// to bind-mounted volumes carry the host's expected ownership.
package entrypoint

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/maidsafe/vaultenv/internal/pkg/buildcfg"
	"github.com/maidsafe/vaultenv/internal/pkg/fixuid"
	"github.com/maidsafe/vaultenv/internal/pkg/identity"
	"github.com/maidsafe/vaultenv/internal/pkg/util/env"
	"github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/internal/pkg/util/priv"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// Options carries the reconciliation inputs. UID/GID below zero mean
// "detect from the environment".
type Options struct {
	ConfigPath string
	PasswdFile string
	GroupFile  string
	UID        int
	GID        int
	// WorkDir, when set, is stat'ed as the ambient identity source of
	// last resort: a bind-mounted workspace carries the host's ids.
	WorkDir string
}

// Reconcile reads the reconciliation configuration and rewrites the
// configured user and group to the ambient ids. It returns the
// reconciled identity; it never executes anything. A missing or
// malformed configuration is an error — the caller must not run the
// command under an ambiguous identity.
func Reconcile(opts Options) (*identity.User, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = buildcfg.FIXUID_CONF
	}
	if opts.PasswdFile == "" {
		opts.PasswdFile = buildcfg.PASSWD_FILE
	}
	if opts.GroupFile == "" {
		opts.GroupFile = buildcfg.GROUP_FILE
	}

	c, err := fixuid.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	uid, gid := ambientIDs(opts)

	u, err := identity.LookupUser(opts.PasswdFile, c.User)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	if u.UID == uid && u.GID == gid {
		sylog.Debugf("User %s already has ids %d:%d", c.User, uid, gid)
		return u, nil
	}

	sylog.Verbosef("Reconciling %s from %d:%d to %d:%d", c.User, u.UID, u.GID, uid, gid)
	if err := identity.SetUserIDs(opts.PasswdFile, c.User, uid, gid); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	if err := identity.SetGroupID(opts.GroupFile, c.Group, gid); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	// hand the home directory over so the renumbered user keeps a
	// writable home; bind-mounted paths already carry the host's ids
	if os.Geteuid() == 0 && fs.IsDir(u.Home) {
		if err := fs.ChownR(u.Home, uid, gid); err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
	}

	u.UID = uid
	u.GID = gid
	return u, nil
}

// ambientIDs resolves the host-presented identity: explicit options win,
// then the VAULTENV_UID/VAULTENV_GID environment, then the owner of the
// mounted workdir, and finally the real ids of the invoking process.
func ambientIDs(opts Options) (int, int) {
	uid, gid := opts.UID, opts.GID

	if uid < 0 {
		if v, err := strconv.Atoi(os.Getenv(env.VaultenvPrefix + "UID")); err == nil {
			uid = v
		}
	}
	if gid < 0 {
		if v, err := strconv.Atoi(os.Getenv(env.VaultenvPrefix + "GID")); err == nil {
			gid = v
		}
	}

	if (uid < 0 || gid < 0) && opts.WorkDir != "" {
		var st syscall.Stat_t
		if err := syscall.Stat(opts.WorkDir, &st); err == nil {
			if uid < 0 {
				uid = int(st.Uid)
			}
			if gid < 0 {
				gid = int(st.Gid)
			}
		}
	}

	// real ids, not effective: under a setuid entry the real ids are the
	// invoking host user's
	if uid < 0 {
		uid = os.Getuid()
	}
	if gid < 0 {
		gid = os.Getgid()
	}
	return uid, gid
}

// Exec replaces the current process with argv running as the reconciled
// identity. Argument boundaries pass through untouched and, because this
// is an exec, the command's exit code becomes the container's.
func Exec(u *identity.User, argv []string) error {
	if len(argv) == 0 {
		return nil
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("entrypoint: %w", err)
	}

	if os.Geteuid() != u.UID || os.Getegid() != u.GID {
		if err := priv.DropTo(u.UID, u.GID); err != nil {
			return fmt.Errorf("entrypoint: %w", err)
		}
	}

	environ := append(os.Environ(), "USER="+u.Name, "HOME="+u.Home)

	sylog.Debugf("Exec %s as %d:%d", path, u.UID, u.GID)
	return unix.Exec(path, argv, environ)
}
