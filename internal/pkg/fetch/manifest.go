// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fetch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ParseChecksumManifest reads a one-line checksum manifest in the
// conventional "<hex-digest>  <filename>" form (the format sha256sum -c
// consumes) and returns the digest it declares. When filename is
// non-empty the manifest entry must name that file.
func ParseChecksumManifest(r io.Reader, filename string) (digest.Digest, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return "", fmt.Errorf("malformed checksum manifest line %q", line)
		}

		// a leading * marks binary mode, same digest either way
		name := strings.TrimPrefix(fields[1], "*")
		if filename != "" && name != filename {
			return "", fmt.Errorf("checksum manifest names %q, expected %q", name, filename)
		}

		d := digest.NewDigestFromEncoded(digest.SHA256, fields[0])
		if err := d.Validate(); err != nil {
			return "", fmt.Errorf("invalid digest in checksum manifest: %w", err)
		}
		return d, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("empty checksum manifest")
}
