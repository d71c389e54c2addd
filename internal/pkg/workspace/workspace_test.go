// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func TestMain(m *testing.M) {
	sylog.SetLevel(-1, false)
	os.Exit(m.Run())
}

func testIDs() (int, int) {
	// unprivileged runs can only hand ownership to themselves
	return os.Getuid(), os.Getgid()
}

func seedSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "vault-src")
	if err := os.MkdirAll(filepath.Join(src, "src", "chunks"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"Cargo.toml", "src/main.rs", "src/chunks/storage.rs"} {
		if err := os.WriteFile(filepath.Join(src, f), []byte("// "+f+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func TestPrepare(t *testing.T) {
	uid, gid := testIDs()
	src := seedSource(t)
	ws := config.Workspace{
		Root:   filepath.Join(t.TempDir(), "vault"),
		Source: src,
	}

	if err := Prepare(ws, uid, gid); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	for _, f := range []string{"Cargo.toml", "src/main.rs", "src/chunks/storage.rs"} {
		if !fs.IsFile(filepath.Join(ws.Root, f)) {
			t.Errorf("source file %s not copied into workspace", f)
		}
	}

	owned, err := fs.OwnedBy(ws.Root, uid, gid)
	if err != nil {
		t.Fatal(err)
	}
	if !owned {
		t.Errorf("workspace not fully owned by %d:%d after Prepare", uid, gid)
	}

	ok, err := Provisioned(ws, uid, gid)
	if err != nil || !ok {
		t.Errorf("Provisioned = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestPrepareIdempotent(t *testing.T) {
	uid, gid := testIDs()
	ws := config.Workspace{
		Root:   filepath.Join(t.TempDir(), "vault"),
		Source: seedSource(t),
	}

	for i := 0; i < 2; i++ {
		if err := Prepare(ws, uid, gid); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	// no duplicate nesting of the source dir
	if fs.IsDir(filepath.Join(ws.Root, "vault-src")) {
		t.Errorf("second run nested the source tree inside the workspace")
	}
}

func TestPrepareForeignIDsUnprivileged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can hand ownership to any identity")
	}

	uid, gid := testIDs()
	ws := config.Workspace{
		Root:   filepath.Join(t.TempDir(), "vault"),
		Source: seedSource(t),
	}

	// Without privilege the configured identity cannot be assigned, the
	// whole pass squashes to the caller's ids instead of failing.
	if err := Prepare(ws, uid+12345, gid+12345); err != nil {
		t.Fatalf("Prepare with foreign ids: %v", err)
	}

	owned, err := fs.OwnedBy(ws.Root, uid, gid)
	if err != nil {
		t.Fatal(err)
	}
	if !owned {
		t.Errorf("workspace not squashed to caller ids %d:%d", uid, gid)
	}
}

func TestPrepareNoSource(t *testing.T) {
	uid, gid := testIDs()
	ws := config.Workspace{Root: filepath.Join(t.TempDir(), "vault")}

	if err := Prepare(ws, uid, gid); err != nil {
		t.Fatalf("Prepare without source: %v", err)
	}
	if !fs.IsDir(ws.Root) {
		t.Errorf("workspace root not created")
	}
}

func TestPrepareBadSource(t *testing.T) {
	uid, gid := testIDs()
	ws := config.Workspace{
		Root:   filepath.Join(t.TempDir(), "vault"),
		Source: filepath.Join(t.TempDir(), "missing"),
	}
	if err := Prepare(ws, uid, gid); err == nil {
		t.Error("Prepare should reject a missing source directory")
	}
}
