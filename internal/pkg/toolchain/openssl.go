// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package toolchain

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	da "github.com/docker/docker/pkg/archive"

	"github.com/maidsafe/vaultenv/internal/pkg/fetch"
	envutil "github.com/maidsafe/vaultenv/internal/pkg/util/env"
	fsutil "github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// phase is one ordered stage of the library build. The stages are strict:
// depend writes the dependency files the build stage consumes, and
// nothing may be installed from a tree that did not fully build.
type phase struct {
	name string
	argv []string
}

// BuildOpenSSL downloads the pinned OpenSSL source, verifies it, unpacks
// it and runs configure plus the three make phases with the cross
// compiler. A failure in any phase discards the partial install prefix;
// a half-populated prefix must never be mistaken for a usable library.
func (b *Builder) BuildOpenSSL(ctx context.Context) error {
	osl := b.cfg.OpenSSL

	tmpDir, err := os.MkdirTemp("", "vaultenv-openssl-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	archive := filepath.Join(tmpDir, osl.ArchiveName("openssl"))
	res := fetch.Resource{URL: osl.URL("openssl"), Digest: osl.Pin.Digest()}
	if err := fetch.NewFetcher().Fetch(ctx, res, archive); err != nil {
		return fmt.Errorf("openssl: %w", err)
	}

	srcDir, err := unpackSource(archive, tmpDir, "openssl-"+osl.Version)
	if err != nil {
		return fmt.Errorf("openssl: %w", err)
	}

	return b.Build(ctx, srcDir)
}

// Build runs configure and the three make phases against an unpacked
// source tree. Exported separately so the phase machinery is testable
// against a fixture tree and a stub compiler.
func (b *Builder) Build(ctx context.Context, srcDir string) error {
	osl := b.cfg.OpenSSL

	cc, err := b.lookPath(b.cfg.CrossCompiler)
	if err != nil {
		return fmt.Errorf("openssl: cross compiler: %w", err)
	}
	makeBin, err := b.lookPath("make")
	if err != nil {
		return fmt.Errorf("openssl: %w", err)
	}

	configureArgs := append([]string{}, osl.ConfigureArgs...)
	configureArgs = append(configureArgs, "--prefix="+osl.Prefix, osl.Target)

	phases := []phase{
		{"configure", append([]string{filepath.Join(srcDir, "Configure")}, configureArgs...)},
		{"depend", []string{makeBin, "depend"}},
		{"build", []string{makeBin}},
		{"install", []string{makeBin, "install_sw"}},
	}

	// The ambient cc must never leak into the build: every phase gets the
	// cross compiler and the shimmed include path.
	buildEnv := envutil.BuildEnviron(
		"CC="+cc,
		"C_INCLUDE_PATH="+b.cfg.MuslInclude,
	)

	for _, p := range phases {
		sylog.Infof("OpenSSL %s phase", p.name)
		cmd := exec.CommandContext(ctx, p.argv[0], p.argv[1:]...)
		cmd.Dir = srcDir
		cmd.Stdout = sylog.Writer()
		cmd.Stderr = os.Stderr
		cmd.Env = buildEnv
		if err := cmd.Run(); err != nil {
			b.discardPrefix()
			return fmt.Errorf("openssl: %s phase failed: %w", p.name, err)
		}
	}

	if err := CheckStatic(osl.Prefix); err != nil {
		b.discardPrefix()
		return err
	}
	sylog.Infof("Static OpenSSL installed under %s", osl.Prefix)
	return nil
}

// discardPrefix removes whatever a failed build left under the dedicated
// prefix. Nothing else installs there, so removal is safe.
func (b *Builder) discardPrefix() {
	prefix := b.cfg.OpenSSL.Prefix
	sylog.Warningf("Discarding partial install under %s", prefix)
	if err := os.RemoveAll(prefix); err != nil {
		sylog.Errorf("While discarding %s: %v", prefix, err)
	}
}

// CheckStatic verifies the installed prefix holds the static libraries
// and not a single dynamically linked object.
func CheckStatic(prefix string) error {
	for _, lib := range []string{"libcrypto.a", "libssl.a"} {
		if !fsutil.IsFile(filepath.Join(prefix, "lib", lib)) {
			return fmt.Errorf("openssl: %s missing under %s", lib, prefix)
		}
	}

	return filepath.WalkDir(prefix, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := d.Name()
		if strings.HasSuffix(base, ".so") || strings.Contains(base, ".so.") {
			return fmt.Errorf("openssl: dynamically linked object %s under static prefix", name)
		}
		return nil
	})
}

// Provisioned reports whether a previous run already installed a valid
// static library set under the prefix.
func (b *Builder) Provisioned() (bool, error) {
	if !fsutil.IsDir(b.cfg.OpenSSL.Prefix) {
		return false, nil
	}
	if err := CheckStatic(b.cfg.OpenSSL.Prefix); err != nil {
		return false, nil
	}
	return true, nil
}

// unpackSource untars the verified source archive under destDir and
// returns the expected top-level source directory.
func unpackSource(archivePath, destDir, wantDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := da.Untar(f, destDir, &da.TarOptions{NoLchown: os.Geteuid() != 0}); err != nil {
		return "", fmt.Errorf("while unpacking %s: %w", archivePath, err)
	}

	srcDir := filepath.Join(destDir, wantDir)
	if !fsutil.IsDir(srcDir) {
		return "", fmt.Errorf("archive %s did not contain %s", archivePath, wantDir)
	}
	return srcDir, nil
}
