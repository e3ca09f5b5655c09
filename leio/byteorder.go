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

// Package leio provides little-endian fixed-width binary primitives and
// LSB-first bit streams, the low-level building blocks used throughout
// the ZIP container engine and the DEFLATE codec.
package leio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Uint16 reads a little-endian uint16 from the start of b.
func Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// Uint32 reads a little-endian uint32 from the start of b.
func Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// Uint64 reads a little-endian uint64 from the start of b.
func Uint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

// PutUint16 writes v as a little-endian uint16 to the start of b.
func PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// PutUint32 writes v as a little-endian uint32 to the start of b.
func PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// PutUint64 writes v as a little-endian uint64 to the start of b.
func PutUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

// ReadAt reads len(buf) bytes from r at offset.
func ReadAt(r io.ReaderAt, offset int64, buf []byte) error {
	_, err := io.ReadFull(io.NewSectionReader(r, offset, int64(len(buf))), buf)
	if err != nil {
		return fmt.Errorf("read at offset %d: %w", offset, err)
	}
	return nil
}

// ReadBytesAt reads n bytes from r at offset.
func ReadBytesAt(r io.ReaderAt, offset int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := ReadAt(r, offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUint16At reads a little-endian uint16 from r at offset.
func ReadUint16At(r io.ReaderAt, offset int64) (uint16, error) {
	buf := make([]byte, 2)
	if err := ReadAt(r, offset, buf); err != nil {
		return 0, err
	}
	return Uint16(buf), nil
}

// ReadUint32At reads a little-endian uint32 from r at offset.
func ReadUint32At(r io.ReaderAt, offset int64) (uint32, error) {
	buf := make([]byte, 4)
	if err := ReadAt(r, offset, buf); err != nil {
		return 0, err
	}
	return Uint32(buf), nil
}

// WriteUint16 writes v as a little-endian uint16 to w.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteUint32 writes v as a little-endian uint32 to w.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
