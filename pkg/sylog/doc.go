// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package sylog implements the leveled stderr logger used by all vaultenv
// code. Provisioning runs inside image builds where stderr is the build
// log, so every message is a single prefixed line.
package sylog
