// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package identity edits the passwd and group databases directly. Minimal
// base images do not reliably ship useradd, and editing the files keeps
// the same code path usable for both the build-time provisioner and the
// container-start reconciler.
package identity

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	pwd "github.com/astromechza/etcpwdparse"

	"github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// User mirrors the desired passwd entry for the build/runtime identity.
type User struct {
	Name  string
	Group string
	UID   int
	GID   int
	Home  string
	Shell string
}

// CollisionError reports that a requested numeric id or name is already
// bound to a different identity. Silent reuse of somebody else's id would
// hand them the build tree, so this is fatal.
type CollisionError struct {
	What     string // "user" or "group"
	Name     string
	ID       int
	Existing string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identity: %s %s (id %d) collides with existing entry %q",
		e.What, e.Name, e.ID, e.Existing)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// writeLines replaces path atomically, preserving its mode.
func writeLines(path string, lines []string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := path + ".vaultenv"
	content := strings.Join(append(lines, ""), "\n")
	if err := os.WriteFile(tmp, []byte(content), mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func makePasswdLine(name string, uid, gid int, gecos, homedir, shell string) string {
	return fmt.Sprintf("%s:x:%d:%d:%s:%s:%s", name, uid, gid, gecos, homedir, shell)
}

// EnsureGroup adds the named group with gid to groupFile. An identical
// existing entry is accepted (idempotent re-run); a name or gid bound to
// anything else is a CollisionError.
func EnsureGroup(groupFile, name string, gid int) error {
	lines, err := readLines(groupFile)
	if err != nil {
		return fmt.Errorf("while reading %s: %w", groupFile, err)
	}

	for _, line := range lines {
		gname, ggid, err := parseGroupLine(line)
		if err != nil {
			return fmt.Errorf("while parsing %s: %w", groupFile, err)
		}
		if gname == "" {
			continue
		}
		switch {
		case gname == name && ggid == gid:
			sylog.Debugf("Group %s already present with gid %d", name, gid)
			return nil
		case gname == name:
			return &CollisionError{What: "group", Name: name, ID: gid, Existing: line}
		case ggid == gid:
			return &CollisionError{What: "group", Name: name, ID: gid, Existing: gname}
		}
	}

	sylog.Verbosef("Adding group %s (gid %d) to %s", name, gid, groupFile)
	lines = append(lines, fmt.Sprintf("%s:x:%d:", name, gid))
	return writeLines(groupFile, lines)
}

// EnsureUser adds the user to passwdFile with login disabled via its
// shell. Same idempotence/collision semantics as EnsureGroup.
func EnsureUser(passwdFile string, u User) error {
	lines, err := readLines(passwdFile)
	if err != nil {
		return fmt.Errorf("while reading %s: %w", passwdFile, err)
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		entry, err := pwd.ParsePasswdLine(line)
		if err != nil {
			return fmt.Errorf("failed to parse passwd line %q: %w", line, err)
		}
		switch {
		case entry.Username() == u.Name && entry.Uid() == u.UID && entry.Gid() == u.GID:
			sylog.Debugf("User %s already present with uid %d", u.Name, u.UID)
			return nil
		case entry.Username() == u.Name:
			return &CollisionError{What: "user", Name: u.Name, ID: u.UID, Existing: line}
		case entry.Uid() == u.UID:
			return &CollisionError{What: "user", Name: u.Name, ID: u.UID, Existing: entry.Username()}
		}
	}

	sylog.Verbosef("Adding user %s (%d:%d) to %s", u.Name, u.UID, u.GID, passwdFile)
	lines = append(lines, makePasswdLine(u.Name, u.UID, u.GID, "", u.Home, u.Shell))
	return writeLines(passwdFile, lines)
}

// Exists reports whether passwdFile already binds the user name to
// exactly uid/gid.
func Exists(passwdFile string, u User) (bool, error) {
	lines, err := readLines(passwdFile)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		entry, err := pwd.ParsePasswdLine(line)
		if err != nil {
			return false, err
		}
		if entry.Username() == u.Name {
			return entry.Uid() == u.UID && entry.Gid() == u.GID, nil
		}
	}
	return false, nil
}

// LookupUser returns the uid/gid/home currently bound to name.
func LookupUser(passwdFile, name string) (*User, error) {
	lines, err := readLines(passwdFile)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		entry, err := pwd.ParsePasswdLine(line)
		if err != nil {
			return nil, err
		}
		if entry.Username() == name {
			return &User{
				Name:  name,
				UID:   entry.Uid(),
				GID:   entry.Gid(),
				Home:  entry.Homedir(),
				Shell: entry.Shell(),
			}, nil
		}
	}
	return nil, fmt.Errorf("user %q not found in %s", name, passwdFile)
}

// SetUserIDs rewrites the numeric ids of the named user in place,
// preserving every other field. Used by the container-start reconciler.
func SetUserIDs(passwdFile, name string, uid, gid int) error {
	lines, err := readLines(passwdFile)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		entry, err := pwd.ParsePasswdLine(line)
		if err != nil {
			return fmt.Errorf("failed to parse passwd line %q: %w", line, err)
		}
		if entry.Username() != name {
			continue
		}
		lines[i] = makePasswdLine(name, uid, gid, entry.Info(), entry.Homedir(), entry.Shell())
		return writeLines(passwdFile, lines)
	}
	return fmt.Errorf("user %q not found in %s", name, passwdFile)
}

// SetGroupID rewrites the gid of the named group in place.
func SetGroupID(groupFile, name string, gid int) error {
	lines, err := readLines(groupFile)
	if err != nil {
		return err
	}
	for i, line := range lines {
		gname, _, err := parseGroupLine(line)
		if err != nil {
			return fmt.Errorf("while parsing %s: %w", groupFile, err)
		}
		if gname != name {
			continue
		}
		fields := strings.Split(line, ":")
		fields[2] = strconv.Itoa(gid)
		lines[i] = strings.Join(fields, ":")
		return writeLines(groupFile, lines)
	}
	return fmt.Errorf("group %q not found in %s", name, groupFile)
}

// parseGroupLine returns the name and gid of a group(5) line, or empty
// name for blank lines.
func parseGroupLine(line string) (string, int, error) {
	if strings.TrimSpace(line) == "" {
		return "", 0, nil
	}
	fields := strings.Split(line, ":")
	if len(fields) < 3 {
		return "", 0, fmt.Errorf("malformed group line %q", line)
	}
	gid, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed gid in group line %q", line)
	}
	return fields[0], gid, nil
}

// Provision creates the group and user, their home directory, and hands
// the shared toolchain root to the new group so later unprivileged steps
// can write into it.
func Provision(passwdFile, groupFile string, u User, toolchainRoot string) error {
	if err := EnsureGroup(groupFile, u.Group, u.GID); err != nil {
		return err
	}
	if err := EnsureUser(passwdFile, u); err != nil {
		return err
	}
	if u.Home != "" {
		if err := fs.MkdirOwned(u.Home, 0o755, u.UID, u.GID); err != nil {
			return err
		}
	}
	if toolchainRoot != "" {
		sylog.Infof("Handing %s to group %s", toolchainRoot, u.Group)
		if err := fs.ChgrpR(toolchainRoot, u.GID, true); err != nil {
			return err
		}
	}
	return nil
}
