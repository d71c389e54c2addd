// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fetch downloads pinned release artifacts and verifies their
// integrity before anything else is allowed to touch them. Every external
// download in the provisioning pipeline goes through here; there is no
// unverified path.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/opencontainers/go-digest"

	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// Resource is a pinned, versioned download: a URL assumed immutable and
// the digest its content must hash to.
type Resource struct {
	URL    string
	Digest digest.Digest
}

// IntegrityError reports a checksum mismatch on a downloaded artifact.
// It is always fatal: the URL is versioned, retrying cannot change the
// content, only the pin can be wrong or the source compromised.
type IntegrityError struct {
	URL      string
	Expected digest.Digest
	Computed digest.Digest
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("verify: checksum mismatch for %s: expected %s, computed %s",
		e.URL, e.Expected, e.Computed)
}

// Fetcher downloads resources over HTTP. Transient transport errors are
// retried with exponential backoff, integrity failures never are.
type Fetcher struct {
	client     *http.Client
	maxRetries uint64
}

// NewFetcher returns a Fetcher with the default client and retry policy.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: 30 * time.Minute},
		maxRetries: 4,
	}
}

// Fetch downloads the resource to dst, verifying its digest. dst is only
// created once the content verified; a mismatch leaves nothing behind.
func (f *Fetcher) Fetch(ctx context.Context, res Resource, dst string) error {
	if err := res.Digest.Validate(); err != nil {
		return fmt.Errorf("invalid pinned digest for %s: %w", res.URL, err)
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.maxRetries), ctx)

	return backoff.Retry(func() error {
		return f.fetchOnce(ctx, res, dst)
	}, bo)
}

func (f *Fetcher) fetchOnce(ctx context.Context, res Resource, dst string) error {
	sylog.Infof("Downloading %s", res.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// transport-level failure, worth retrying
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return fmt.Errorf("download %s: server error %s", res.URL, resp.Status)
	default:
		// a 404 on a pinned URL will not heal itself
		return backoff.Permanent(fmt.Errorf("download %s: unexpected status %s", res.URL, resp.Status))
	}

	part := dst + ".part"
	out, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return backoff.Permanent(err)
	}

	digester := res.Digest.Algorithm().Digester()
	callback := progressCallback(ctx)

	err = callback(resp.ContentLength, resp.Body, out, digester.Hash())
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(part)
		return err
	}

	if computed := digester.Digest(); computed != res.Digest {
		os.Remove(part)
		return backoff.Permanent(&IntegrityError{
			URL:      res.URL,
			Expected: res.Digest,
			Computed: computed,
		})
	}

	if err := os.Rename(part, dst); err != nil {
		os.Remove(part)
		return backoff.Permanent(err)
	}

	sylog.Verbosef("Verified %s as %s", filepath.Base(dst), res.Digest)
	return nil
}

// VerifyFile computes the digest of an existing file and compares it to
// expected. Used by idempotence checks to decide whether an artifact from
// a previous run can be trusted.
func VerifyFile(path string, expected digest.Digest) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	computed, err := expected.Algorithm().FromReader(f)
	if err != nil {
		return false, err
	}
	return computed == expected, nil
}
