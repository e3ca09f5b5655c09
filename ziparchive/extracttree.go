// Copyright (c) 2025 The gozipkit Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of gozipkit.
//
// gozipkit is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gozipkit is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gozipkit.  If not, see <https://www.gnu.org/licenses/>.

package ziparchive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gozipkit/gozipkit/errs"
)

// PathPolicy selects how SafeJoin handles an entry name that would escape
// destDir.
type PathPolicy int

const (
	// PathReject fails the whole extraction of that entry (the default).
	PathReject PathPolicy = iota
	// PathStrip drops every empty, "." and ".." segment from the name and
	// uses the result if it stays inside destDir.
	PathStrip
	// PathAllow disables the check entirely; callers opt into this.
	PathAllow
)

// SafeJoin resolves name against destDir the way the CLI's extractor does,
// rejecting (or stripping, per policy) a "zip-slip" entry name that would
// place a file outside destDir, such as "../../etc/passwd". A leading "/"
// is removed under every policy, so an absolute name is joined relative to
// destDir. Names are always treated with forward slashes, matching
// how they are stored in the archive regardless of host OS.
func SafeJoin(destDir, name string, policy PathPolicy) (string, error) {
	clean := filepath.ToSlash(name)
	clean = strings.TrimPrefix(clean, "/")

	if policy == PathAllow {
		return filepath.Join(destDir, filepath.FromSlash(clean)), nil
	}

	joined := filepath.Join(destDir, filepath.FromSlash(clean))
	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return "", err
	}
	joinedAbs, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}

	if joinedAbs == destAbs || strings.HasPrefix(joinedAbs, destAbs+string(os.PathSeparator)) {
		return joined, nil
	}

	if policy == PathStrip {
		parts := strings.Split(clean, "/")
		kept := parts[:0]
		for _, p := range parts {
			if p == "" || p == "." || p == ".." {
				continue
			}
			kept = append(kept, p)
		}
		stripped := filepath.Join(destDir, filepath.Join(kept...))
		strippedAbs, err := filepath.Abs(stripped)
		if err != nil {
			return "", err
		}
		if strippedAbs == destAbs || strings.HasPrefix(strippedAbs, destAbs+string(os.PathSeparator)) {
			return stripped, nil
		}
	}

	return "", errs.ErrUnsafePath
}

// ExtractAll decodes every entry in a and writes it under destDir, applying
// policy to each entry's name. It continues past a single entry's failure
// and returns the first error encountered, if any, after attempting the
// rest — matching the CLI's "continue past per-entry failures" contract.
func ExtractAll(a *Archive, destDir string, policy PathPolicy) error {
	var firstErr error
	for i := 0; i < a.NumEntries(); i++ {
		if err := extractOne(a, i, destDir, policy); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func extractOne(a *Archive, index int, destDir string, policy PathPolicy) error {
	name, err := a.GetName(index)
	if err != nil {
		return err
	}
	dest, err := SafeJoin(destDir, name, policy)
	if err != nil {
		return err
	}
	if strings.HasSuffix(name, "/") {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	opened, err := a.OpenIndex(index)
	if err != nil {
		return err
	}
	defer opened.Close()

	fileMode := ModeFromExternalAttrs(a.entries[index].ExternalAttrs)
	return os.WriteFile(dest, opened.Bytes(), fileMode)
}

// ModeFromExternalAttrs derives a Unix file mode from a CD entry's external
// attributes, per §4.5: shift right 16 and mask 0o777; zero means "use
// 0644".
func ModeFromExternalAttrs(externalAttrs uint32) os.FileMode {
	mode := os.FileMode((externalAttrs >> 16) & 0o777)
	if mode == 0 {
		return 0o644
	}
	return mode
}
