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

package container

import (
	"bytes"
	"errors"
	"testing"
	"time"

	_ "github.com/gozipkit/gozipkit/codec" // register store/deflate/... backends
	"github.com/gozipkit/gozipkit/errs"
)

// buildArchive assembles a minimal in-memory archive from (name, data,
// method) triples, exercising ComposeEntry/WriteLFH/WriteCentralDirectory/
// WriteEOCD exactly as a write-mode archive handle would.
func buildArchive(t *testing.T, items []struct {
	name   string
	data   []byte
	method uint16
}) []byte {
	t.Helper()
	var buf bytes.Buffer
	entries := make([]Entry, 0, len(items))
	when := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	for _, it := range items {
		entry, compressed, err := ComposeEntry(it.name, it.data, it.method, -1, when)
		if err != nil {
			t.Fatalf("ComposeEntry(%q): %v", it.name, err)
		}
		entry.LFHOffset = uint32(buf.Len())
		if _, err := WriteLFH(&buf, &entry); err != nil {
			t.Fatalf("WriteLFH: %v", err)
		}
		if _, err := buf.Write(compressed); err != nil {
			t.Fatalf("write payload: %v", err)
		}
		entries = append(entries, entry)
	}

	cdOffset := uint32(buf.Len())
	cdSize, err := WriteCentralDirectory(&buf, entries)
	if err != nil {
		t.Fatalf("WriteCentralDirectory: %v", err)
	}
	if err := WriteEOCD(&buf, uint16(len(entries)), cdSize, cdOffset); err != nil {
		t.Fatalf("WriteEOCD: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTripStoreScenarioS1(t *testing.T) {
	archive := buildArchive(t, []struct {
		name   string
		data   []byte
		method uint16
	}{{"hello.txt", []byte("hello\n"), 0}})

	r := bytes.NewReader(archive)
	eocd, err := FindEOCD(r, int64(len(archive)))
	if err != nil {
		t.Fatalf("FindEOCD: %v", err)
	}
	if eocd.TotalEntries != 1 {
		t.Fatalf("TotalEntries = %d, want 1", eocd.TotalEntries)
	}

	cdBuf := archive[eocd.CDOffset : eocd.CDOffset+eocd.CDSize]
	entries, err := ParseCentralDirectory(cdBuf, eocd)
	if err != nil {
		t.Fatalf("ParseCentralDirectory: %v", err)
	}
	entry := entries[0]
	if entry.UncompressedSize != 6 || entry.CompressedSize != 6 || entry.CRC32 != 0x363A3020 || entry.Method != 0 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	out, err := ExtractEntry(r, int64(len(archive)), &entry, DefaultExtractConfig())
	if err != nil {
		t.Fatalf("ExtractEntry: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("got %q, want %q", out, "hello\n")
	}
}

func TestRoundTripDeflateScenarioS2(t *testing.T) {
	archive := buildArchive(t, []struct {
		name   string
		data   []byte
		method uint16
	}{{"hello.txt", []byte("hello\n"), 8}})

	r := bytes.NewReader(archive)
	eocd, err := FindEOCD(r, int64(len(archive)))
	if err != nil {
		t.Fatalf("FindEOCD: %v", err)
	}
	entries, err := ParseCentralDirectory(archive[eocd.CDOffset:eocd.CDOffset+eocd.CDSize], eocd)
	if err != nil {
		t.Fatalf("ParseCentralDirectory: %v", err)
	}
	entry := entries[0]
	if entry.UncompressedSize != 6 || entry.CRC32 != 0x363A3020 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	// Any RFC 1951 encoding of six literal bytes is at least seven bytes,
	// so the store fallback demotes this entry; see DESIGN.md.
	if entry.Method != 0 {
		t.Fatalf("method = %d, want 0 (store fallback on an incompressibly small input)", entry.Method)
	}
	if entry.CompressedSize > 6+11+64 {
		t.Fatalf("compressed size %d exceeds compress_bound", entry.CompressedSize)
	}

	out, err := ExtractEntry(r, int64(len(archive)), &entry, DefaultExtractConfig())
	if err != nil {
		t.Fatalf("ExtractEntry: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("got %q, want %q", out, "hello\n")
	}
}

func TestRoundTripDeflateKeepsMethodWhenItShrinks(t *testing.T) {
	data := bytes.Repeat([]byte("hello\n"), 64)
	archive := buildArchive(t, []struct {
		name   string
		data   []byte
		method uint16
	}{{"hello.txt", data, 8}})

	r := bytes.NewReader(archive)
	eocd, err := FindEOCD(r, int64(len(archive)))
	if err != nil {
		t.Fatalf("FindEOCD: %v", err)
	}
	entries, err := ParseCentralDirectory(archive[eocd.CDOffset:eocd.CDOffset+eocd.CDSize], eocd)
	if err != nil {
		t.Fatalf("ParseCentralDirectory: %v", err)
	}
	entry := entries[0]
	if entry.Method != 8 {
		t.Fatalf("method = %d, want 8", entry.Method)
	}
	if entry.CompressedSize >= entry.UncompressedSize {
		t.Fatalf("compressed size %d did not shrink %d bytes of repetitive input", entry.CompressedSize, entry.UncompressedSize)
	}

	out, err := ExtractEntry(r, int64(len(archive)), &entry, DefaultExtractConfig())
	if err != nil {
		t.Fatalf("ExtractEntry: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(out), len(data))
	}
}

func TestFallbackToStoreScenarioS3(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	archive := buildArchive(t, []struct {
		name   string
		data   []byte
		method uint16
	}{{"bin", data, 8}})

	r := bytes.NewReader(archive)
	eocd, _ := FindEOCD(r, int64(len(archive)))
	entries, _ := ParseCentralDirectory(archive[eocd.CDOffset:eocd.CDOffset+eocd.CDSize], eocd)
	entry := entries[0]
	if entry.Method != 0 {
		t.Fatalf("method = %d, want 0 (store fallback)", entry.Method)
	}
	if entry.CompressedSize != 16 {
		t.Fatalf("compressed size = %d, want 16", entry.CompressedSize)
	}
}

func TestZeroEntryArchiveScenario9(t *testing.T) {
	archive := buildArchive(t, nil)
	r := bytes.NewReader(archive)
	eocd, err := FindEOCD(r, int64(len(archive)))
	if err != nil {
		t.Fatalf("FindEOCD: %v", err)
	}
	if eocd.TotalEntries != 0 || eocd.CDSize != 0 {
		t.Fatalf("unexpected eocd: %+v", eocd)
	}
	if int64(eocd.CDOffset) != eocd.EOCDOffset {
		t.Fatalf("CDOffset %d should equal EOCD's own offset %d when there are no entries", eocd.CDOffset, eocd.EOCDOffset)
	}
}

func TestMalformedCDRejectionScenarioS5(t *testing.T) {
	archive := buildArchive(t, []struct {
		name   string
		data   []byte
		method uint16
	}{{"a.txt", []byte("x"), 0}})

	// Leave the EOCD as written (one entry, correct CD offset) and corrupt
	// the CD signature at that offset instead, so FindEOCD's CD-signature
	// guard rejects the only candidate trailer.
	corrupted := append([]byte(nil), archive...)
	// Find EOCD and flip the first CD signature byte.
	r := bytes.NewReader(archive)
	eocd, err := FindEOCD(r, int64(len(archive)))
	if err != nil {
		t.Fatalf("FindEOCD: %v", err)
	}
	corrupted[eocd.CDOffset] ^= 0xFF

	if _, err := FindEOCD(bytes.NewReader(corrupted), int64(len(corrupted))); !errors.Is(err, errs.ErrNotAZip) {
		t.Fatalf("FindEOCD on corrupted archive error = %v, want ErrNotAZip", err)
	}
}

func TestZipbombGuardScenarioS6(t *testing.T) {
	entry := &Entry{
		Name:             "bomb.bin",
		CompressedSize:   100,
		UncompressedSize: 10_000_000_000 % (1 << 32), // fits the uint32 field for this synthetic test
	}
	entry.UncompressedSize = 4_000_000_000 // still wildly disproportionate to 100 compressed bytes

	cfg := DefaultExtractConfig()
	if err := cfg.CheckExpansion(entry); !errors.Is(err, errs.ErrExpansionRefused) {
		t.Fatalf("CheckExpansion error = %v, want ErrExpansionRefused", err)
	}

	cfg.IgnoreZipbomb = true
	if err := cfg.CheckExpansion(entry); err != nil {
		t.Fatalf("CheckExpansion with IgnoreZipbomb: %v", err)
	}
}

func TestDOSTimeRoundTrip(t *testing.T) {
	when := time.Date(2024, 3, 15, 10, 30, 44, 0, time.UTC)
	dt, dd := ToDOSTime(when)
	got := FromDOSTime(dt, dd)
	if got.Year() != 2024 || got.Month() != 3 || got.Day() != 15 || got.Hour() != 10 || got.Minute() != 30 {
		t.Fatalf("FromDOSTime(%v) = %v, mismatched fields", when, got)
	}
	// Seconds lose their odd bit: DOS time only stores 2-second resolution.
	if got.Second() != 44 {
		t.Fatalf("second = %d, want 44", got.Second())
	}
}

func TestParseCentralDirectoryPreservesGPFlags(t *testing.T) {
	entry := Entry{Name: "plain.txt", Method: 0, ExternalAttrs: DefaultExternalAttrs}
	var buf bytes.Buffer
	if _, err := WriteCDHeader(&buf, &entry); err != nil {
		t.Fatalf("WriteCDHeader: %v", err)
	}
	raw := buf.Bytes()
	// WriteCDHeader always writes gp flags = 0; flip bit 11 here to
	// exercise the UTF-8 flag
	// plumbing from ParseCentralDirectory through to Entry.NameIsUTF8.
	// The flag field is bytes 8-9 (little-endian uint16); bit 11 falls in
	// the high byte at local bit position 11-8=3.
	raw[9] |= 1 << (gpUTF8Bit - 8)

	eocd := &EOCDInfo{TotalEntries: 1, CDSize: uint32(len(raw))}
	entries, err := ParseCentralDirectory(raw, eocd)
	if err != nil {
		t.Fatalf("ParseCentralDirectory: %v", err)
	}
	if !entries[0].NameIsUTF8() {
		t.Fatalf("NameIsUTF8() = false, want true after setting gp bit %d", gpUTF8Bit)
	}
}

func TestDOSTimeClampsBeforeEpoch(t *testing.T) {
	dt, dd := ToDOSTime(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	got := FromDOSTime(dt, dd)
	if !got.Equal(DOSEpoch) {
		t.Fatalf("pre-epoch time should clamp to DOS epoch, got %v", got)
	}
}
