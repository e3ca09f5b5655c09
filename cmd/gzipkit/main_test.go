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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateListExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcFile := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(srcFile, []byte("hello, archive\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	archivePath := filepath.Join(dir, "out.zip")
	*forceFlag = true
	if err := runCreateOrAppend([]string{archivePath, srcFile}, true); err != nil {
		t.Fatalf("runCreateOrAppend(create): %v", err)
	}

	if err := runList([]string{archivePath}); err != nil {
		t.Fatalf("runList: %v", err)
	}

	destDir := filepath.Join(dir, "extracted")
	*pathFlag = "reject"
	if err := runExtract([]string{archivePath, destDir}); err != nil {
		t.Fatalf("runExtract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, filepath.ToSlash(srcFile)))
	if err != nil {
		t.Fatalf("ReadFile extracted: %v", err)
	}
	if string(got) != "hello, archive\n" {
		t.Fatalf("extracted content = %q", got)
	}
}

func TestGzipGunzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcFile := filepath.Join(dir, "plain.txt")
	want := []byte("round trip me\n")
	if err := os.WriteFile(srcFile, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	*forceFlag = true
	if err := runGzip([]string{srcFile}); err != nil {
		t.Fatalf("runGzip: %v", err)
	}
	gzPath := srcFile + ".gz"
	if _, err := os.Stat(gzPath); err != nil {
		t.Fatalf("expected %s to exist: %v", gzPath, err)
	}

	outFile := filepath.Join(dir, "roundtrip.txt")
	if err := runGunzip([]string{gzPath, outFile}); err != nil {
		t.Fatalf("runGunzip: %v", err)
	}
	got, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParsePathPolicyRejectsUnknown(t *testing.T) {
	if _, err := parsePathPolicy("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown path policy")
	}
}

func TestRunCreateOrAppendRejectsUnknownMethod(t *testing.T) {
	dir := t.TempDir()
	srcFile := filepath.Join(dir, "x.txt")
	_ = os.WriteFile(srcFile, []byte("x"), 0o644)

	prev := *methodFlag
	*methodFlag = "not-a-real-codec"
	defer func() { *methodFlag = prev }()

	if err := runCreateOrAppend([]string{filepath.Join(dir, "a.zip"), srcFile}, true); err == nil {
		t.Fatalf("expected an error for an unknown -z method")
	}
}
