// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package docs

// Global content for help and man pages
const (

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// main vaultenv command
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	VaultenvUse   string = `vaultenv [global options...]`
	VaultenvShort string = `
Reproducible build environment provisioner for MaidSafe vault images`
	VaultenvLong string = `
  vaultenv assembles the container image a vault is compiled in: it creates
  the unprivileged build identity, installs the setuid identity helper,
  builds the static musl cross toolchain with its OpenSSL library, and
  prepares the build workspace. At container start it reconciles the build
  identity with the invoking host user so files written to bind-mounted
  volumes carry the expected ownership.`
	VaultenvExample string = `
  $ vaultenv help <command> [<subcommand>]
  $ vaultenv help provision
  $ vaultenv help provision toolchain`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// provision
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	ProvisionUse   string = `provision [provision options...]`
	ProvisionShort string = `Run the image-build provisioning pipeline`
	ProvisionLong  string = `
  The provision command runs the build-time steps in order: identity,
  fixuid, toolchain, workspace. A step whose postcondition already holds is
  skipped, so re-running the pipeline on a partially provisioned image only
  performs the missing work. The first failing step aborts the pipeline.

  All inputs come from the build environment configuration file. Without
  --config the file at /etc/vaultenv/buildenv.yml is used when present,
  otherwise the built-in defaults apply.`
	ProvisionExample string = `
  $ vaultenv provision
  $ vaultenv provision --dry-run
  $ vaultenv provision --config ./buildenv.yml`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// provision identity
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	ProvisionIdentityUse   string = `identity`
	ProvisionIdentityShort string = `Create the unprivileged build user and group`
	ProvisionIdentityLong  string = `
  Creates the configured build group and user with fixed numeric ids,
  creates the user's home directory, and makes the toolchain prefix
  group-writable for the build group. An existing entry with the same name
  but different ids is an error.`
	ProvisionIdentityExample string = `
  $ vaultenv provision identity`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// provision fixuid
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	ProvisionFixuidUse   string = `fixuid`
	ProvisionFixuidShort string = `Install the setuid identity helper`
	ProvisionFixuidLong  string = `
  Downloads the pinned fixuid release archive, verifies its checksum before
  unpacking anything, installs the helper binary setuid root, and writes its
  configuration naming the build user and group.`
	ProvisionFixuidExample string = `
  $ vaultenv provision fixuid`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// provision toolchain
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	ProvisionToolchainUse   string = `toolchain`
	ProvisionToolchainShort string = `Build the static musl cross toolchain`
	ProvisionToolchainLong  string = `
  Installs the musl cross compiler with the system package manager, links
  the kernel headers into the musl include tree, and builds the pinned
  OpenSSL release from source as static libraries only. The source archive
  checksum is verified before unpacking; a failed build removes the install
  prefix so a retry starts clean.`
	ProvisionToolchainExample string = `
  $ vaultenv provision toolchain`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// provision workspace
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	ProvisionWorkspaceUse   string = `workspace`
	ProvisionWorkspaceShort string = `Prepare the build workspace`
	ProvisionWorkspaceLong  string = `
  Creates the workspace directory owned by the build user and, when a
  source directory is configured, copies the vault sources into it
  preserving permissions.`
	ProvisionWorkspaceExample string = `
  $ vaultenv provision workspace`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// entrypoint
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	EntrypointUse   string = `entrypoint [entrypoint options...] [--] [command...]`
	EntrypointShort string = `Reconcile the build identity and run a command`
	EntrypointLong  string = `
  The entrypoint command renumbers the build user and group to the ids the
  invoking host presented before replacing itself with the given command.
  The ids are taken from --uid/--gid when given, then from VAULTENV_UID and
  VAULTENV_GID, then from the owner of the workspace directory, and finally
  from the real ids of the calling process.

  The command runs under the reconciled identity and its exit code becomes
  the container's. Without a command the identities are reconciled and
  nothing is executed.`
	EntrypointExample string = `
  $ vaultenv entrypoint -- cargo build --release
  $ vaultenv entrypoint --uid 1234 --gid 1234 -- sh
  $ VAULTENV_UID=1234 vaultenv entrypoint -- id`

	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	// version
	// ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~
	VersionUse   string = `version`
	VersionShort string = `Show the version for vaultenv`
)
