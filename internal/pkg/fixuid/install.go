// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fixuid installs the setuid privilege-fix helper and its
// configuration. The helper is the only setuid bit this project ever
// grants, and it is granted strictly after checksum verification.
package fixuid

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/sys/unix"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/internal/pkg/fetch"
	"github.com/maidsafe/vaultenv/internal/pkg/util/fs"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

const helperName = "fixuid"

// setuid bit plus rwxr-xr-x, the mode the helper needs to remap ids when
// invoked by the non-root user.
const helperMode = os.FileMode(0o755) | os.ModeSetuid

// Install downloads the pinned helper release, verifies it, extracts the
// binary into the configured bindir, applies root ownership and the
// setuid bit, and writes the reconciliation configuration for target.
//
// The ordering is load-bearing: verification happens inside fetch before
// the archive is ever opened, so an unverified binary can never reach the
// chmod below.
func Install(ctx context.Context, cfg config.Fixuid, target config.Identity) error {
	tmpDir, err := os.MkdirTemp("", "vaultenv-fixuid-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	archive := filepath.Join(tmpDir, cfg.ArchiveName(helperName))
	res := fetch.Resource{URL: cfg.URL(helperName), Digest: cfg.Pin.Digest()}
	if err := fetch.NewFetcher().Fetch(ctx, res, archive); err != nil {
		return fmt.Errorf("fixuid: %w", err)
	}

	binPath, err := extractHelper(archive, cfg.BinDir)
	if err != nil {
		return fmt.Errorf("fixuid: %w", err)
	}

	if os.Geteuid() == 0 {
		if err := unix.Chown(binPath, 0, 0); err != nil {
			return fmt.Errorf("fixuid: while chowning %s to root: %w", binPath, err)
		}
	} else {
		sylog.Debugf("Not root, leaving %s owned by the current user", binPath)
	}
	if err := os.Chmod(binPath, helperMode); err != nil {
		return fmt.Errorf("fixuid: while setting mode on %s: %w", binPath, err)
	}
	sylog.Infof("Installed %s with mode %04o", binPath, 0o4755)

	return WriteConfig(cfg.ConfigPath, Config{User: target.Name, Group: target.Group})
}

// extractHelper pulls the single helper binary out of the release
// archive. Member paths are joined securely so a crafted archive cannot
// escape the bindir.
func extractHelper(archivePath, binDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("while reading %s: %w", archivePath, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("while reading %s: %w", archivePath, err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != helperName {
			continue
		}

		dst, err := securejoin.SecureJoin(binDir, filepath.Base(hdr.Name))
		if err != nil {
			return "", err
		}

		out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
		if err != nil {
			return "", err
		}
		//nolint:gosec // archive content already checksum-verified
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			os.Remove(dst)
			return "", fmt.Errorf("while extracting %s: %w", hdr.Name, err)
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return dst, nil
	}
	return "", fmt.Errorf("archive %s does not contain a %s binary", archivePath, helperName)
}

// Provisioned reports whether the helper and its configuration are
// already in place from a previous run: binary present with the setuid
// bit, configuration present and naming the target identity.
func Provisioned(cfg config.Fixuid, target config.Identity) (bool, error) {
	binPath := filepath.Join(cfg.BinDir, helperName)
	if !fs.IsFile(binPath) {
		return false, nil
	}
	info, err := os.Stat(binPath)
	if err != nil {
		return false, err
	}
	if info.Mode()&os.ModeSetuid == 0 {
		return false, nil
	}

	c, err := LoadConfig(cfg.ConfigPath)
	if err != nil {
		// unreadable config means reprovision, not abort
		return false, nil
	}
	return c.User == target.Name && c.Group == target.Group, nil
}
