// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"github.com/maidsafe/vaultenv/cmd/internal/cli"
)

func main() {
	// In cmd/internal/cli/vaultenv.go
	cli.ExecuteVaultenv()
}
