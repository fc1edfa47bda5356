// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import "fmt"

// Exit codes for the sitetrack CLI.
const (
	ExitOK             = 0 // Every page loaded fresh.
	ExitInvalidArgs    = 1 // Invalid arguments, flags or configuration.
	ExitPartialFailure = 2 // Some pages unavailable or shown from the last snapshot.
	ExitTotalFailure   = 3 // No output produced.
)

type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitPartialFailure:
			msg = "sitetrack: some pages are unavailable"
		case ExitTotalFailure:
			msg = "sitetrack: no page could be loaded"
		default:
			msg = "sitetrack: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
