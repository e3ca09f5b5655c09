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

package gzipwrap

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("a"),
		[]byte("hello, gzip\n"),
		bytes.Repeat([]byte("abcabcabc"), 500),
	}
	for _, data := range cases {
		for level := 0; level <= 9; level++ {
			compressed, err := Compress(data, level)
			if err != nil {
				t.Fatalf("Compress(level=%d): %v", level, err)
			}
			if compressed[0] != gzipID1 || compressed[1] != gzipID2 {
				t.Fatalf("missing gzip magic")
			}
			got, err := Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress(level=%d): %v", level, err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("level %d: round trip mismatch: got %d bytes, want %d", level, len(got), len(data))
			}
		}
	}
}

func TestCompressHeaderWithNameAndComment(t *testing.T) {
	data := []byte("payload")
	hdr := Header{Name: "example.txt", Comment: "a note", ModTime: time.Unix(1700000000, 0)}
	compressed, err := CompressHeader(data, -1, hdr)
	if err != nil {
		t.Fatalf("CompressHeader: %v", err)
	}

	_, parsed, err := splitMember(compressed)
	if err != nil {
		t.Fatalf("splitMember: %v", err)
	}
	if parsed.Name != hdr.Name || parsed.Comment != hdr.Comment {
		t.Fatalf("parsed header = %+v, want name/comment %q/%q", parsed, hdr.Name, hdr.Comment)
	}

	got, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("payload mismatch after header round trip")
	}
}

func TestDecompressRejectsBadMagic(t *testing.T) {
	if _, err := Decompress([]byte("not a gzip stream at all!!")); !errors.Is(err, ErrNotGzip) {
		t.Fatalf("error = %v, want ErrNotGzip", err)
	}
}

func TestDecompressRejectsTruncated(t *testing.T) {
	compressed, err := Compress([]byte("hello"), -1)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := Decompress(compressed[:len(compressed)-3]); err == nil {
		t.Fatalf("expected an error decompressing a truncated stream")
	}
}

func TestDecompressDetectsTrailerMismatch(t *testing.T) {
	compressed, err := Compress([]byte("hello"), -1)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	corrupted := append([]byte(nil), compressed...)
	corrupted[len(corrupted)-1] ^= 0xFF // corrupt the ISIZE field
	if _, err := Decompress(corrupted); !errors.Is(err, ErrTrailerMismatch) {
		t.Fatalf("error = %v, want ErrTrailerMismatch", err)
	}
}
