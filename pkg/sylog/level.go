// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sylog

type messageLevel int

const (
	// FatalLevel definitely always prints and stops the process.
	FatalLevel messageLevel = iota - 4
	// ErrorLevel prints errors that are being returned to the caller.
	ErrorLevel
	// WarnLevel prints warnings.
	WarnLevel
	// LogLevel prints essential output only.
	LogLevel
	_
	// InfoLevel is the default.
	InfoLevel
	// VerboseLevel prints additional detail.
	VerboseLevel
	_
	_
	// DebugLevel prints everything.
	DebugLevel
)

func (l messageLevel) String() string {
	str, ok := messageLabels[l]
	if !ok {
		str = "????"
	}
	return str
}

var messageLabels = map[messageLevel]string{
	FatalLevel:   "FATAL",
	ErrorLevel:   "ERROR",
	WarnLevel:    "WARNING",
	LogLevel:     "LOG",
	InfoLevel:    "INFO",
	VerboseLevel: "VERBOSE",
	DebugLevel:   "DEBUG",
}
