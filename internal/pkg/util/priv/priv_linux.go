// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package priv isolates the one privilege transition the provisioner
// performs: the one-way drop the entrypoint takes before exec'ing the
// user command. Provisioning steps never escalate, they run with
// whatever privilege the caller granted and degrade explicitly when
// it is missing.
package priv

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DropTo irreversibly switches the whole process to uid/gid. The group
// must be set first, dropping the uid forfeits the right to change it.
// There is no way back, the entrypoint calls this exactly once right
// before exec.
func DropTo(uid, gid int) error {
	if err := unix.Setresgid(gid, gid, gid); err != nil {
		return fmt.Errorf("while setting gid to %d: %w", gid, err)
	}
	if err := unix.Setgroups([]int{gid}); err != nil {
		return fmt.Errorf("while clearing supplementary groups: %w", err)
	}
	if err := unix.Setresuid(uid, uid, uid); err != nil {
		return fmt.Errorf("while setting uid to %d: %w", uid, err)
	}
	return nil
}
