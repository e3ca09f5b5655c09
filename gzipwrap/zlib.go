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
	"encoding/binary"
	"errors"
	"fmt"
	"hash/adler32"

	"github.com/gozipkit/gozipkit/deflate"
)

// zlib (RFC 1950) framing: a 2-byte CMF/FLG header, the raw DEFLATE body,
// and a 4-byte big-endian Adler-32 trailer. ZIP entries never carry this
// wrapper; it exists for the standalone tool's auto-detecting decompress
// path alongside the gzip member format.

const (
	zlibMethodDeflate = 8
	zlibCINFO32K      = 7 // 2^(7+8) = 32 KiB window

	zlibFlagFDICT = 1 << 5
)

// ErrNotZlib indicates the input lacks a valid zlib CMF/FLG header.
var ErrNotZlib = errors.New("gzipwrap: not a zlib stream")

// ErrDictUnsupported indicates the stream declares a preset dictionary
// (FDICT), which this module does not support.
var ErrDictUnsupported = errors.New("gzipwrap: preset dictionaries are not supported")

// ZlibCompress returns data as an RFC 1950 zlib stream at level (zlib
// convention: -1 default, 0 none, 1..9 fastest..best).
func ZlibCompress(data []byte, level int) ([]byte, error) {
	enc := deflate.NewEncoder(level)
	body, err := runEncoder(enc, data)
	if err != nil {
		return nil, err
	}

	cmf := byte(zlibCINFO32K<<4 | zlibMethodDeflate)
	var flevel byte
	switch {
	case level >= 0 && level < 2:
		flevel = 0
	case level >= 2 && level < 6:
		flevel = 1
	case level == 6 || level < 0:
		flevel = 2
	default:
		flevel = 3
	}
	flg := flevel << 6
	if rem := (uint16(cmf)*256 + uint16(flg)) % 31; rem != 0 {
		flg += byte(31 - rem)
	}

	out := make([]byte, 0, 2+len(body)+4)
	out = append(out, cmf, flg)
	out = append(out, body...)

	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], adler32.Checksum(data))
	return append(out, trailer[:]...), nil
}

// ZlibDecompress validates and strips the RFC 1950 header and Adler-32
// trailer around a DEFLATE body and returns the decompressed bytes.
func ZlibDecompress(data []byte) ([]byte, error) {
	if err := checkZlibHeader(data); err != nil {
		return nil, err
	}
	dec := deflate.NewDecoder()
	out, err := runDecoder(dec, data[2:len(data)-4])
	if err != nil {
		return nil, err
	}

	want := binary.BigEndian.Uint32(data[len(data)-4:])
	if got := adler32.Checksum(out); got != want {
		return nil, fmt.Errorf("%w: adler32 %#08x != %#08x", ErrTrailerMismatch, got, want)
	}
	return out, nil
}

// checkZlibHeader applies the RFC 1950 validity rules: compression method
// 8 in the CMF low nibble, CMF*256+FLG divisible by 31, and no preset
// dictionary.
func checkZlibHeader(data []byte) error {
	if len(data) < 2+4 {
		return ErrNotZlib
	}
	cmf, flg := data[0], data[1]
	if cmf&0x0F != zlibMethodDeflate {
		return ErrNotZlib
	}
	if (uint16(cmf)*256+uint16(flg))%31 != 0 {
		return ErrNotZlib
	}
	if flg&zlibFlagFDICT != 0 {
		return ErrDictUnsupported
	}
	return nil
}

// DecompressAuto sniffs data's framing and decompresses accordingly: the
// gzip magic selects the RFC 1952 path, a valid zlib CMF/FLG pair the
// RFC 1950 path, and anything else is treated as a raw RFC 1951 stream
// (which then has no checksum to verify).
func DecompressAuto(data []byte) ([]byte, error) {
	if len(data) >= 2 && data[0] == gzipID1 && data[1] == gzipID2 {
		return Decompress(data)
	}
	if err := checkZlibHeader(data); err == nil {
		return ZlibDecompress(data)
	} else if errors.Is(err, ErrDictUnsupported) {
		return nil, err
	}
	dec := deflate.NewDecoder()
	return runDecoder(dec, data)
}
