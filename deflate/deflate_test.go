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

package deflate

import (
	"bytes"
	"strings"
	"testing"
)

func roundTrip(t *testing.T, data []byte, level int) []byte {
	t.Helper()
	var compressed []byte
	if level == 0 {
		compressed = deflateStored(data)
	} else {
		compressed = deflateCompressed(data, level)
	}
	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
	return compressed
}

func TestRoundTripStored(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("x"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte{0x5a}, 70000),
	}
	for _, data := range cases {
		roundTrip(t, data, 0)
	}
}

func TestRoundTripCompressed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"single byte", []byte("a")},
		{"short literal run", []byte("hello world")},
		{"repetitive", bytes.Repeat([]byte("abcabcabcabc"), 500)},
		{"highly repetitive short distance", bytes.Repeat([]byte{1, 2, 3}, 10000)},
		{"long text", []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200))},
		{"binary-ish", func() []byte {
			b := make([]byte, 5000)
			for i := range b {
				b[i] = byte(i*7 + i*i)
			}
			return b
		}()},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			for level := 1; level <= 9; level += 4 {
				roundTrip(t, tt.data, level)
			}
		})
	}
}

func TestInflateRejectsGarbage(t *testing.T) {
	if _, err := Inflate([]byte{0xFF, 0xFF, 0xFF, 0xFF}); err == nil {
		t.Fatal("expected malformed-input error decoding garbage")
	}
}

func TestEncoderDecoderStreamAPI(t *testing.T) {
	data := bytes.Repeat([]byte("stream me through the Step contract "), 300)

	enc := NewEncoder(6)
	var compressed []byte
	buf := make([]byte, 64)
	for {
		_, produced, result, err := enc.Step(data, buf, FlushFinish)
		if err != nil {
			t.Fatalf("encoder step: %v", err)
		}
		compressed = append(compressed, buf[:produced]...)
		data = nil // only feed source once
		if result == StepStreamEnd {
			break
		}
	}

	dec := NewDecoder()
	var out []byte
	in := compressed
	for {
		consumed, produced, result, err := dec.Step(in, buf, FlushFinish)
		if err != nil {
			t.Fatalf("decoder step: %v", err)
		}
		in = in[consumed:]
		out = append(out, buf[:produced]...)
		if result == StepStreamEnd {
			break
		}
	}

	want := bytes.Repeat([]byte("stream me through the Step contract "), 300)
	if !bytes.Equal(out, want) {
		t.Fatalf("stream round trip mismatch: got %d bytes, want %d", len(out), len(want))
	}
}

func TestCompressBoundCoversStoredOutput(t *testing.T) {
	data := bytes.Repeat([]byte{0x00}, 200000)
	stored := deflateStored(data)
	if len(stored) > CompressBound(len(data)) {
		t.Fatalf("stored size %d exceeds CompressBound %d", len(stored), CompressBound(len(data)))
	}
}
