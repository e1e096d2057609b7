// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package stringutils provides string interning via Go's unique package for
// memory-efficient deduplication of strings that repeat across a run, such
// as genre names, tag labels and normalized titles.
package stringutils

import (
	"strings"
	"unique"
)

// Intern returns a canonical representation of the string. Identical strings
// share the same underlying memory, which keeps large library snapshots
// cheap and makes equality checks fast.
func Intern(s string) string {
	if s == "" {
		return ""
	}
	return unique.Make(s).Value()
}

// InternNormalized interns a trimmed and lowercased version of the string.
// This is the canonical form for case-insensitive matching, used for the
// external-id side of the library snapshot index.
func InternNormalized(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return ""
	}
	return unique.Make(normalized).Value()
}
