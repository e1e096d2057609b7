// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package listfile persists scraped lists as timestamped JSON files, one per
// run, kind and category. The filename carries everything a later replay
// needs: 20240511_093000_entry_details_movie.list.
package listfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/listarr/listarr/internal/domain"
)

// Kind distinguishes the two persisted list shapes.
type Kind string

const (
	// KindUserEntries holds raw list-page rows before detail resolution.
	KindUserEntries Kind = "user_entries"
	// KindEntryDetails holds fully resolved entries, ready for dispatch.
	KindEntryDetails Kind = "entry_details"
)

const (
	timestampLayout = "20060102_150405"
	fileExt         = ".list"
)

var nameRe = regexp.MustCompile(`^(\d{8}_\d{6})_(user_entries|entry_details)_([a-z]+)\.list$`)

// Name builds the canonical filename for a list file.
func Name(ts time.Time, kind Kind, category domain.Category) string {
	return fmt.Sprintf("%s_%s_%s%s", ts.Format(timestampLayout), kind, category, fileExt)
}

// ParseName recovers the timestamp, kind and category from a list filename.
// Only the base name is inspected, so full paths are accepted.
func ParseName(path string) (time.Time, Kind, domain.Category, error) {
	m := nameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return time.Time{}, "", "", errors.Errorf("not a list filename: %q", filepath.Base(path))
	}
	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return time.Time{}, "", "", errors.Wrapf(err, "bad timestamp in %q", filepath.Base(path))
	}
	return ts, Kind(m[2]), domain.Category(m[3]), nil
}

// Store reads and writes list files under one directory.
type Store struct {
	dir string
}

// NewStore constructs a Store rooted at dir. The directory is created on
// first save, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// SaveCandidates writes scraped list rows. Returns the written path.
func (s *Store) SaveCandidates(ts time.Time, category domain.Category, entries []domain.CandidateEntry) (string, error) {
	return s.save(Name(ts, KindUserEntries, category), entries)
}

// SaveResolved writes resolved entries. Returns the written path.
func (s *Store) SaveResolved(ts time.Time, category domain.Category, entries []domain.ResolvedEntry) (string, error) {
	return s.save(Name(ts, KindEntryDetails, category), entries)
}

func (s *Store) save(name string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create list directory")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode list")
	}
	data = append(data, '\n')

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", name)
	}
	return path, nil
}

// LoadResolved reads an entry_details file from an arbitrary path. The
// filename is validated first so a replay cannot be pointed at the wrong
// kind of file.
func LoadResolved(path string) ([]domain.ResolvedEntry, domain.Category, error) {
	category, err := checkKind(path, KindEntryDetails)
	if err != nil {
		return nil, "", err
	}
	var entries []domain.ResolvedEntry
	if err := load(path, &entries); err != nil {
		return nil, "", err
	}
	return entries, category, nil
}

// LoadCandidates reads a user_entries file from an arbitrary path.
func LoadCandidates(path string) ([]domain.CandidateEntry, domain.Category, error) {
	category, err := checkKind(path, KindUserEntries)
	if err != nil {
		return nil, "", err
	}
	var entries []domain.CandidateEntry
	if err := load(path, &entries); err != nil {
		return nil, "", err
	}
	return entries, category, nil
}

func checkKind(path string, want Kind) (domain.Category, error) {
	_, kind, category, err := ParseName(path)
	if err != nil {
		return "", err
	}
	if kind != want {
		return "", errors.Errorf("%s is a %s file, expected %s", filepath.Base(path), kind, want)
	}
	return category, nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return nil
}
