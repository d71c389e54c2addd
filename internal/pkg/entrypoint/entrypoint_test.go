// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package entrypoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maidsafe/vaultenv/internal/pkg/fixuid"
	"github.com/maidsafe/vaultenv/internal/pkg/identity"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func TestMain(m *testing.M) {
	sylog.SetLevel(-1, false)
	os.Exit(m.Run())
}

func seedReconcileState(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()

	passwd := filepath.Join(dir, "passwd")
	group := filepath.Join(dir, "group")
	conf := filepath.Join(dir, "config.yml")

	if err := os.WriteFile(passwd, []byte(
		"root:x:0:0:root:/root:/bin/bash\n"+
			"maidsafe:x:1000:1000::/home/maidsafe:/usr/sbin/nologin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(group, []byte("root:x:0:\nmaidsafe:x:1000:\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fixuid.WriteConfig(conf, fixuid.Config{User: "maidsafe", Group: "maidsafe"}); err != nil {
		t.Fatal(err)
	}

	return Options{
		ConfigPath: conf,
		PasswdFile: passwd,
		GroupFile:  group,
		UID:        -1,
		GID:        -1,
	}
}

func TestReconcileToAmbientIDs(t *testing.T) {
	opts := seedReconcileState(t)
	opts.UID = 5000
	opts.GID = 5000

	u, err := Reconcile(opts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if u.Name != "maidsafe" || u.UID != 5000 || u.GID != 5000 {
		t.Errorf("reconciled identity = %+v, want maidsafe 5000:5000", u)
	}

	// the databases were rewritten
	content, err := os.ReadFile(opts.PasswdFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "maidsafe:x:5000:5000:") {
		t.Errorf("passwd not reconciled:\n%s", content)
	}
	content, err = os.ReadFile(opts.GroupFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "maidsafe:x:5000:") {
		t.Errorf("group not reconciled:\n%s", content)
	}

	// second start with the same ambient ids is a no-op
	if _, err := Reconcile(opts); err != nil {
		t.Errorf("repeated reconciliation failed: %v", err)
	}
}

func TestReconcileAmbientFromEnv(t *testing.T) {
	opts := seedReconcileState(t)
	t.Setenv("VAULTENV_UID", "4321")
	t.Setenv("VAULTENV_GID", "4322")

	u, err := Reconcile(opts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if u.UID != 4321 || u.GID != 4322 {
		t.Errorf("ambient ids = %d:%d, want 4321:4322", u.UID, u.GID)
	}
}

func TestReconcileAmbientFromWorkDir(t *testing.T) {
	opts := seedReconcileState(t)
	opts.WorkDir = t.TempDir()

	u, err := Reconcile(opts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	// the temp dir is owned by the current user
	if u.UID != os.Getuid() || u.GID != os.Getgid() {
		t.Errorf("ambient ids = %d:%d, want %d:%d from workdir stat",
			u.UID, u.GID, os.Getuid(), os.Getgid())
	}
}

func TestReconcileMissingConfig(t *testing.T) {
	opts := seedReconcileState(t)
	opts.ConfigPath = filepath.Join(t.TempDir(), "missing.yml")
	opts.UID = 5000
	opts.GID = 5000

	if _, err := Reconcile(opts); err == nil {
		t.Fatal("Reconcile must fail fast on a missing configuration")
	}

	// and it must not have touched the databases
	content, err := os.ReadFile(opts.PasswdFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "maidsafe:x:1000:1000:") {
		t.Errorf("passwd rewritten despite missing configuration:\n%s", content)
	}
}

func TestReconcileMalformedConfig(t *testing.T) {
	opts := seedReconcileState(t)
	if err := os.WriteFile(opts.ConfigPath, []byte("group: only-a-group\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Reconcile(opts); err == nil {
		t.Fatal("Reconcile must fail fast on a malformed configuration")
	}
}

func TestReconcileUnknownUser(t *testing.T) {
	opts := seedReconcileState(t)
	if err := fixuid.WriteConfig(opts.ConfigPath, fixuid.Config{User: "ghost", Group: "ghost"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Reconcile(opts); err == nil {
		t.Fatal("Reconcile must fail when the configured user is not provisioned")
	}
}

func TestExecEmptyCommand(t *testing.T) {
	u := &identity.User{Name: "maidsafe", UID: os.Getuid(), GID: os.Getgid(), Home: "/home/maidsafe"}
	if err := Exec(u, nil); err != nil {
		t.Errorf("Exec with no trailing command should be a no-op, got %v", err)
	}
}

func TestExecUnknownCommand(t *testing.T) {
	u := &identity.User{Name: "maidsafe", UID: os.Getuid(), GID: os.Getgid()}
	if err := Exec(u, []string{"definitely-not-a-command-on-path"}); err == nil {
		t.Error("Exec of an unresolvable command should fail")
	}
}
