// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fixuid

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func TestMain(m *testing.M) {
	sylog.SetLevel(-1, false)
	os.Exit(m.Run())
}

// helperArchive builds a release-shaped tar.gz holding the helper binary.
func helperArchive(t *testing.T, memberName string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	if err := tw.WriteHeader(&tar.Header{
		Name:     memberName,
		Mode:     0o755,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testInstallConfig(t *testing.T, srvURL, dir string, archive []byte) config.Fixuid {
	t.Helper()
	return config.Fixuid{
		Pin: config.Pin{
			Repo:     srvURL,
			Version:  "0.5.1",
			Platform: "linux-amd64",
			SHA256:   digest.FromBytes(archive).Encoded(),
		},
		BinDir:     filepath.Join(dir, "bin"),
		ConfigPath: filepath.Join(dir, "etc", "fixuid", "config.yml"),
	}
}

var target = config.Identity{Name: "maidsafe", Group: "maidsafe", UID: 1000, GID: 1000}

func TestInstall(t *testing.T) {
	binary := []byte("#!ELF fake helper")
	archive := helperArchive(t, "fixuid", binary)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := testInstallConfig(t, srv.URL, dir, archive)

	var logBuf bytes.Buffer
	oldWriter := sylog.SetWriter(&logBuf)
	sylog.SetLevel(1, false)
	defer func() {
		sylog.SetWriter(oldWriter)
		sylog.SetLevel(-1, false)
	}()

	if err := Install(context.Background(), cfg, target); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if !strings.Contains(logBuf.String(), "mode 4755") {
		t.Errorf("install log does not report the effective helper mode:\n%s", logBuf.String())
	}

	binPath := filepath.Join(cfg.BinDir, "fixuid")
	info, err := os.Stat(binPath)
	if err != nil {
		t.Fatalf("helper binary not installed: %v", err)
	}
	if info.Mode()&os.ModeSetuid == 0 {
		t.Errorf("helper mode %v lacks the setuid bit", info.Mode())
	}

	c, err := LoadConfig(cfg.ConfigPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.User != "maidsafe" || c.Group != "maidsafe" {
		t.Errorf("reconciliation config = %+v, want maidsafe/maidsafe", c)
	}

	ok, err := Provisioned(cfg, target)
	if err != nil || !ok {
		t.Errorf("Provisioned = (%v, %v) after Install, want (true, nil)", ok, err)
	}
}

func TestInstallCorruptedArchive(t *testing.T) {
	archive := helperArchive(t, "fixuid", []byte("legit helper"))
	corrupted := append([]byte{}, archive...)
	corrupted[len(corrupted)-1] ^= 0xff

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(corrupted)
	}))
	defer srv.Close()

	dir := t.TempDir()
	// pin computed against the pristine archive
	cfg := testInstallConfig(t, srv.URL, dir, archive)

	if err := Install(context.Background(), cfg, target); err == nil {
		t.Fatal("Install should fail on checksum mismatch")
	}

	// the unverified binary must never appear, let alone setuid
	if _, err := os.Stat(filepath.Join(cfg.BinDir, "fixuid")); !os.IsNotExist(err) {
		t.Errorf("helper binary exists after integrity failure")
	}
	if _, err := os.Stat(cfg.ConfigPath); !os.IsNotExist(err) {
		t.Errorf("reconciliation config written after integrity failure")
	}
}

func TestInstallArchiveWithoutHelper(t *testing.T) {
	archive := helperArchive(t, "README.md", []byte("no binary here"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := testInstallConfig(t, srv.URL, dir, archive)

	if err := Install(context.Background(), cfg, target); err == nil {
		t.Fatal("Install should fail when the archive holds no helper binary")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixuid", "config.yml")

	if err := WriteConfig(path, Config{User: "maidsafe", Group: "maidsafe"}); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.User != "maidsafe" || c.Group != "maidsafe" {
		t.Errorf("round trip = %+v", c)
	}
}

func TestLoadConfigFailures(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("missing configuration should be an error")
	}

	for name, content := range map[string]string{
		"not yaml":   "::::",
		"no group":   "user: maidsafe\n",
		"empty file": "",
		"wrong keys": "usr: a\ngrp: b\n",
	} {
		path := filepath.Join(t.TempDir(), "config.yml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: configuration should have been rejected", name)
		}
	}
}

func TestProvisionedMissingPieces(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Fixuid{
		BinDir:     filepath.Join(dir, "bin"),
		ConfigPath: filepath.Join(dir, "config.yml"),
	}

	ok, err := Provisioned(cfg, target)
	if err != nil || ok {
		t.Errorf("Provisioned on empty state = (%v, %v), want (false, nil)", ok, err)
	}

	// binary without setuid bit does not count
	if err := os.MkdirAll(cfg.BinDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.BinDir, "fixuid"), []byte("x"), 0o755); err != nil {
		t.Fatal(err)
	}
	ok, err = Provisioned(cfg, target)
	if err != nil || ok {
		t.Errorf("Provisioned without setuid = (%v, %v), want (false, nil)", ok, err)
	}
}
