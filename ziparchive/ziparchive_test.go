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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/gozipkit/gozipkit/codec"
	"github.com/gozipkit/gozipkit/errs"
)

func TestCreateAddCloseReopenScenario7(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")

	a, err := Open(path, ModeCreate)
	if err != nil {
		t.Fatalf("Open(create): %v", err)
	}
	names := []string{"a.txt", "b/c.txt", "d.bin"}
	payloads := [][]byte{[]byte("alpha"), []byte("beta"), bytes.Repeat([]byte{7}, 1000)}
	methods := []uint16{0, 8, 8}
	for i, name := range names {
		if _, err := a.Add(name, SourceFromBuffer(payloads[i], true), methods[i]); err != nil {
			t.Fatalf("Add(%q): %v", name, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := Open(path, ModeReadOnly)
	if err != nil {
		t.Fatalf("Open(read): %v", err)
	}
	defer b.Close()

	if b.NumEntries() != len(names) {
		t.Fatalf("NumEntries = %d, want %d", b.NumEntries(), len(names))
	}
	for i, name := range names {
		idx, err := b.Locate(name, MatchExact)
		if err != nil {
			t.Fatalf("Locate(%q): %v", name, err)
		}
		if idx != i {
			t.Fatalf("Locate(%q) = %d, want %d", name, idx, i)
		}
		opened, err := b.OpenIndex(idx)
		if err != nil {
			t.Fatalf("OpenIndex(%d): %v", idx, err)
		}
		if !bytes.Equal(opened.Bytes(), payloads[i]) {
			t.Fatalf("entry %q payload mismatch", name)
		}
	}
}

func TestAppendModePreservesExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")

	a, _ := Open(path, ModeCreate)
	_, _ = a.Add("first.txt", SourceFromBuffer([]byte("one"), true), 0)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := Open(path, ModeCreateAppend)
	if err != nil {
		t.Fatalf("Open(append): %v", err)
	}
	if b.NumEntries() != 1 {
		t.Fatalf("NumEntries after reopen = %d, want 1", b.NumEntries())
	}
	if _, err := b.Add("second.txt", SourceFromBuffer([]byte("two"), true), 8); err != nil {
		t.Fatalf("Add after append-open: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err := Open(path, ModeReadOnly)
	if err != nil {
		t.Fatalf("final reopen: %v", err)
	}
	defer c.Close()
	if c.NumEntries() != 2 {
		t.Fatalf("NumEntries = %d, want 2", c.NumEntries())
	}
}

func TestLocateNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	a, _ := Open(path, ModeCreate)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := Open(path, ModeReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()
	if _, err := b.Locate("nope", MatchExact); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Locate error = %v, want ErrNotFound", err)
	}
}

func TestAddOnReadOnlyArchiveFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.zip")
	a, _ := Open(path, ModeCreate)
	_ = a.Close()

	b, err := Open(path, ModeReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()
	if _, err := b.Add("x", SourceFromBuffer([]byte("y"), true), 0); !errors.Is(err, errs.ErrInvalidState) {
		t.Fatalf("Add on read-only error = %v, want ErrInvalidState", err)
	}
}

func TestSafeJoinRejectsZipSlip(t *testing.T) {
	dest := t.TempDir()
	if _, err := SafeJoin(dest, "../../etc/passwd", PathReject); !errors.Is(err, errs.ErrUnsafePath) {
		t.Fatalf("SafeJoin error = %v, want ErrUnsafePath", err)
	}
	if _, err := SafeJoin(dest, "/etc/passwd", PathReject); err != nil {
		// An absolute path with the leading slash stripped becomes a
		// normal relative join and stays inside dest; only ".." escapes.
		t.Fatalf("SafeJoin(/etc/passwd) unexpected error: %v", err)
	}
}

func TestSafeJoinStripPolicy(t *testing.T) {
	dest := t.TempDir()
	got, err := SafeJoin(dest, "../../x/y.txt", PathStrip)
	if err != nil {
		t.Fatalf("SafeJoin strip: %v", err)
	}
	want := filepath.Join(dest, "x", "y.txt")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractAllWritesFiles(t *testing.T) {
	archivePath := filepath.Join(t.TempDir(), "src.zip")
	a, _ := Open(archivePath, ModeCreate)
	_, _ = a.Add("nested/hello.txt", SourceFromBuffer([]byte("hi"), true), 8)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := Open(archivePath, ModeReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	destDir := t.TempDir()
	if err := ExtractAll(b, destDir, PathReject); err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(destDir, "nested", "hello.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
}

// TestReplaceLeavesOldPayloadAsGarbage exercises the behavior Replace's doc
// comment describes: the old payload bytes stay in the file (nothing
// shrinks or shifts), but the central directory no longer points at them,
// so a correct reader only ever sees the new payload.
func TestReplaceLeavesOldPayloadAsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.zip")

	a, err := Open(path, ModeCreate)
	if err != nil {
		t.Fatalf("Open(create): %v", err)
	}
	oldPayload := bytes.Repeat([]byte("old-data-"), 50)
	idx, err := a.Add("f.bin", SourceFromBuffer(oldPayload, true), 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	oldLFHOffset := a.entries[idx].LFHOffset
	sizeBeforeReplace := a.writeOffset

	newPayload := []byte("brand new replacement payload")
	if err := a.Replace(idx, SourceFromBuffer(newPayload, true)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	newLFHOffset := a.entries[idx].LFHOffset
	if newLFHOffset < uint32(sizeBeforeReplace) {
		t.Fatalf("Replace wrote its LFH at %d, want >= pre-replace size %d (append, not overwrite)", newLFHOffset, sizeBeforeReplace)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// The old payload's bytes are still sitting in the file right after its
	// untouched LFH; nothing compacted or zeroed that region.
	oldRegionStart := int(oldLFHOffset)
	if !bytes.Contains(raw[oldRegionStart:oldRegionStart+len(oldPayload)+64], oldPayload) {
		t.Fatalf("old payload bytes no longer present near offset %d; Replace should leave them as unreferenced garbage, not rewrite in place", oldRegionStart)
	}

	b, err := Open(path, ModeReadOnly)
	if err != nil {
		t.Fatalf("Open(read): %v", err)
	}
	defer b.Close()

	if b.NumEntries() != 1 {
		t.Fatalf("NumEntries = %d, want 1", b.NumEntries())
	}
	opened, err := b.OpenIndex(0)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	if !bytes.Equal(opened.Bytes(), newPayload) {
		t.Fatalf("reopened entry payload = %q, want the replaced payload %q", opened.Bytes(), newPayload)
	}
}
