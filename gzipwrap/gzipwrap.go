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

// Package gzipwrap implements the RFC 1952 gzip member header and trailer
// around the raw DEFLATE codec, for the standalone gzip/gunzip CLI mode.
// Archive-level DEFLATE inside a ZIP entry never uses this framing; ZIP
// payloads are always raw RFC 1951 streams, which is why this lives as its
// own layer rather than an option on the deflate package.
package gzipwrap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/gozipkit/gozipkit/crc32table"
	"github.com/gozipkit/gozipkit/deflate"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	flagText    = 1 << 0
	flagHdrCRC  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4

	osUnknown = 255
)

// ErrNotGzip indicates the input lacks a valid gzip member header.
var ErrNotGzip = errors.New("gzipwrap: not a gzip stream")

// ErrTrailerMismatch indicates the CRC-32 or ISIZE trailer didn't match the
// decompressed data.
var ErrTrailerMismatch = errors.New("gzipwrap: trailer mismatch")

// Header carries the subset of RFC 1952 member metadata this package
// round-trips; Name and Comment are left empty by Compress unless a caller
// sets them through CompressHeader.
type Header struct {
	Name    string
	Comment string
	ModTime time.Time
	OS      byte
}

// Compress returns data as a single-member gzip stream at level (zlib
// convention: -1 default, 0 none, 1..9 fastest..best).
func Compress(data []byte, level int) ([]byte, error) {
	return CompressHeader(data, level, Header{OS: osUnknown})
}

// CompressHeader is Compress with explicit header metadata.
func CompressHeader(data []byte, level int, hdr Header) ([]byte, error) {
	enc := deflate.NewEncoder(level)
	body, err := runEncoder(enc, data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 10+len(body)+8)
	out = appendHeader(out, hdr)
	out = append(out, body...)

	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32table.Checksum(data))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(data)))
	out = append(out, trailer[:]...)
	return out, nil
}

func appendHeader(out []byte, hdr Header) []byte {
	var fixed [10]byte
	fixed[0] = gzipID1
	fixed[1] = gzipID2
	fixed[2] = gzipDeflate
	flags := byte(0)
	if hdr.Name != "" {
		flags |= flagName
	}
	if hdr.Comment != "" {
		flags |= flagComment
	}
	fixed[3] = flags
	if !hdr.ModTime.IsZero() {
		binary.LittleEndian.PutUint32(fixed[4:8], uint32(hdr.ModTime.Unix()))
	}
	fixed[8] = 0
	fixed[9] = hdr.OS
	out = append(out, fixed[:]...)
	if hdr.Name != "" {
		out = append(out, []byte(hdr.Name)...)
		out = append(out, 0)
	}
	if hdr.Comment != "" {
		out = append(out, []byte(hdr.Comment)...)
		out = append(out, 0)
	}
	return out
}

// Decompress validates and strips a single gzip member's header and
// trailer, runs the DEFLATE body through the raw decoder, and verifies the
// CRC-32 and ISIZE trailer fields against the recovered bytes.
func Decompress(data []byte) ([]byte, error) {
	body, _, err := splitMember(data)
	if err != nil {
		return nil, err
	}

	dec := deflate.NewDecoder()
	out, err := runDecoder(dec, body)
	if err != nil {
		return nil, err
	}

	trailer := data[len(data)-8:]
	wantCRC := binary.LittleEndian.Uint32(trailer[0:4])
	wantISize := binary.LittleEndian.Uint32(trailer[4:8])
	gotCRC := crc32table.Checksum(out)
	gotISize := uint32(len(out))
	if gotCRC != wantCRC || gotISize != wantISize {
		return nil, fmt.Errorf("%w: crc32 %#08x != %#08x, isize %d != %d",
			ErrTrailerMismatch, gotCRC, wantCRC, gotISize, wantISize)
	}
	return out, nil
}

// splitMember validates the fixed header and any optional sections, and
// returns the raw DEFLATE body (header and 8-byte trailer stripped) plus
// the parsed Header.
func splitMember(data []byte) ([]byte, Header, error) {
	if len(data) < 18 {
		return nil, Header{}, ErrNotGzip
	}
	if data[0] != gzipID1 || data[1] != gzipID2 || data[2] != gzipDeflate {
		return nil, Header{}, ErrNotGzip
	}
	flags := data[3]
	hdr := Header{OS: data[9]}
	if mtime := binary.LittleEndian.Uint32(data[4:8]); mtime != 0 {
		hdr.ModTime = time.Unix(int64(mtime), 0)
	}

	pos := 10
	if flags&flagExtra != 0 {
		if len(data) < pos+2 {
			return nil, Header{}, ErrNotGzip
		}
		extraLen := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2 + extraLen
		if len(data) < pos {
			return nil, Header{}, ErrNotGzip
		}
	}
	if flags&flagName != 0 {
		end, err := nulTerminated(data, pos)
		if err != nil {
			return nil, Header{}, err
		}
		hdr.Name = string(data[pos:end])
		pos = end + 1
	}
	if flags&flagComment != 0 {
		end, err := nulTerminated(data, pos)
		if err != nil {
			return nil, Header{}, err
		}
		hdr.Comment = string(data[pos:end])
		pos = end + 1
	}
	if flags&flagHdrCRC != 0 {
		pos += 2
		if len(data) < pos {
			return nil, Header{}, ErrNotGzip
		}
	}
	if len(data) < pos+8 {
		return nil, Header{}, ErrNotGzip
	}
	return data[pos : len(data)-8], hdr, nil
}

func nulTerminated(data []byte, start int) (int, error) {
	for i := start; i < len(data); i++ {
		if data[i] == 0 {
			return i, nil
		}
	}
	return 0, ErrNotGzip
}

// runEncoder drives enc to completion over data, the same whole-buffer
// pattern codec.RunCompressor uses for the ZIP-entry codecs.
func runEncoder(enc *deflate.Encoder, data []byte) ([]byte, error) {
	out := make([]byte, 0, deflate.CompressBound(len(data)))
	buf := make([]byte, 32*1024)
	off := 0
	for {
		flush := deflate.FlushNone
		if off >= len(data) {
			flush = deflate.FlushFinish
		}
		consumed, produced, result, err := enc.Step(data[off:], buf, flush)
		if err != nil {
			return nil, err
		}
		off += consumed
		out = append(out, buf[:produced]...)
		if result == deflate.StepStreamEnd {
			return out, nil
		}
	}
}

// runDecoder drives dec to completion over a raw DEFLATE body.
func runDecoder(dec *deflate.Decoder, body []byte) ([]byte, error) {
	var out []byte
	buf := make([]byte, 32*1024)
	off := 0
	for {
		flush := deflate.FlushNone
		if off >= len(body) {
			flush = deflate.FlushFinish
		}
		consumed, produced, result, err := dec.Step(body[off:], buf, flush)
		if err != nil {
			return nil, err
		}
		off += consumed
		out = append(out, buf[:produced]...)
		switch result {
		case deflate.StepStreamEnd:
			return out, nil
		case deflate.StepNeedsMoreInput:
			return nil, ErrNotGzip
		}
	}
}
