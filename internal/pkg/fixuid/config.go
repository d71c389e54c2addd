// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fixuid

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config is the two-key reconciliation configuration the helper and the
// entrypoint read at every container start: which user and group to
// reconcile toward.
type Config struct {
	User  string `yaml:"user"`
	Group string `yaml:"group"`
}

// WriteConfig persists the reconciliation configuration to path.
func WriteConfig(path string, c Config) error {
	if c.User == "" || c.Group == "" {
		return fmt.Errorf("fixuid: user and group names are required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("while creating %s: %w", filepath.Dir(path), err)
	}

	raw, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("while writing %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads the reconciliation configuration. A missing or
// malformed file is an error; the caller must not fall back to running
// under an ambiguous identity.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reconciliation configuration unreadable: %w", err)
	}

	c := &Config{}
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return nil, fmt.Errorf("reconciliation configuration %s malformed: %w", path, err)
	}
	if c.User == "" || c.Group == "" {
		return nil, fmt.Errorf("reconciliation configuration %s incomplete: user and group are required", path)
	}
	return c, nil
}
