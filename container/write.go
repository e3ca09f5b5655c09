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
	"io"
	"time"

	"github.com/gozipkit/gozipkit/codec"
	"github.com/gozipkit/gozipkit/crc32table"
	"github.com/gozipkit/gozipkit/deflate"
	"github.com/gozipkit/gozipkit/errs"
	"github.com/gozipkit/gozipkit/leio"
)

// DefaultExternalAttrs is what this module writes for every entry: a
// regular file with mode 0644, packed into the Unix high word the way
// archivers using version-made-by 3 (Unix) do.
const DefaultExternalAttrs = 0o100644 << 16

// ComposeEntry compresses data with method (falling back to store if the
// result doesn't actually shrink a non-empty input) and returns the Entry
// record plus the compressed payload. LFHOffset is left zero for the caller
// to fill in once the write position is known.
func ComposeEntry(name string, data []byte, method uint16, level int, when time.Time) (Entry, []byte, error) {
	crc := crc32table.Checksum(data)
	dosTime, dosDate := ToDOSTime(when)

	compressed, effectiveMethod, err := compressWithFallback(data, method, level)
	if err != nil {
		return Entry{}, nil, err
	}
	if uint64(len(compressed)) > maxUint32 || uint64(len(data)) > maxUint32 {
		return Entry{}, nil, errs.SizeExceededError{Field: "compressed_size", Value: uint64(len(compressed)), Limit: maxUint32}
	}

	return Entry{
		Name:             name,
		Method:           effectiveMethod,
		DOSTime:          dosTime,
		DOSDate:          dosDate,
		CRC32:            crc,
		CompressedSize:   uint32(len(compressed)),
		UncompressedSize: uint32(len(data)),
		ExternalAttrs:    DefaultExternalAttrs,
	}, compressed, nil
}

func compressWithFallback(data []byte, method uint16, level int) ([]byte, uint16, error) {
	c, err := codec.GetCodec(codec.Method(method))
	if err != nil {
		return nil, 0, err
	}
	bound := len(data) + 64
	if method == uint16(codec.MethodDeflate) {
		bound = deflate.CompressBound(len(data))
	}

	comp, err := c.NewCompressor(level)
	if err != nil {
		return nil, 0, err
	}
	compressed, err := codec.RunCompressor(comp, data, bound)
	if err != nil {
		return nil, 0, err
	}
	if err := comp.End(); err != nil {
		return nil, 0, err
	}

	if method != uint16(codec.MethodStore) && len(data) > 0 && len(compressed) >= len(data) {
		store, err := codec.GetCodec(codec.MethodStore)
		if err != nil {
			return nil, 0, err
		}
		storeComp, err := store.NewCompressor(-1)
		if err != nil {
			return nil, 0, err
		}
		compressed, err = codec.RunCompressor(storeComp, data, len(data))
		if err != nil {
			return nil, 0, err
		}
		_ = storeComp.End()
		return compressed, uint16(codec.MethodStore), nil
	}
	return compressed, method, nil
}

// WriteLFH serializes the 30-byte Local File Header plus the filename.
func WriteLFH(w io.Writer, entry *Entry) (int, error) {
	buf := make([]byte, lfhFixedSize+len(entry.Name))
	leio.PutUint32(buf[0:4], lfhSignature)
	leio.PutUint16(buf[4:6], versionNeeded)
	leio.PutUint16(buf[6:8], 0)
	leio.PutUint16(buf[8:10], entry.Method)
	leio.PutUint16(buf[10:12], entry.DOSTime)
	leio.PutUint16(buf[12:14], entry.DOSDate)
	leio.PutUint32(buf[14:18], entry.CRC32)
	leio.PutUint32(buf[18:22], entry.CompressedSize)
	leio.PutUint32(buf[22:26], entry.UncompressedSize)
	leio.PutUint16(buf[26:28], uint16(len(entry.Name)))
	leio.PutUint16(buf[28:30], 0)
	copy(buf[lfhFixedSize:], entry.Name)
	return w.Write(buf)
}

// WriteCDHeader serializes the 46-byte Central Directory header plus the
// filename.
func WriteCDHeader(w io.Writer, entry *Entry) (int, error) {
	buf := make([]byte, cdFixedSize+len(entry.Name))
	leio.PutUint32(buf[0:4], cdSignature)
	leio.PutUint16(buf[4:6], versionMadeBy)
	leio.PutUint16(buf[6:8], versionNeeded)
	leio.PutUint16(buf[8:10], 0)
	leio.PutUint16(buf[10:12], entry.Method)
	leio.PutUint16(buf[12:14], entry.DOSTime)
	leio.PutUint16(buf[14:16], entry.DOSDate)
	leio.PutUint32(buf[16:20], entry.CRC32)
	leio.PutUint32(buf[20:24], entry.CompressedSize)
	leio.PutUint32(buf[24:28], entry.UncompressedSize)
	leio.PutUint16(buf[28:30], uint16(len(entry.Name)))
	leio.PutUint16(buf[30:32], 0)
	leio.PutUint16(buf[32:34], 0)
	leio.PutUint16(buf[34:36], 0)
	leio.PutUint16(buf[36:38], 0)
	leio.PutUint32(buf[38:42], entry.ExternalAttrs)
	leio.PutUint32(buf[42:46], entry.LFHOffset)
	copy(buf[cdFixedSize:], entry.Name)
	return w.Write(buf)
}

// WriteEOCD serializes the 22-byte End-Of-Central-Directory trailer. This
// module never writes a comment.
func WriteEOCD(w io.Writer, totalEntries uint16, cdSize, cdOffset uint32) error {
	buf := make([]byte, eocdFixedSize)
	leio.PutUint32(buf[0:4], eocdSignature)
	leio.PutUint16(buf[4:6], 0)
	leio.PutUint16(buf[6:8], 0)
	leio.PutUint16(buf[8:10], totalEntries)
	leio.PutUint16(buf[10:12], totalEntries)
	leio.PutUint32(buf[12:16], cdSize)
	leio.PutUint32(buf[16:20], cdOffset)
	leio.PutUint16(buf[20:22], 0)
	_, err := w.Write(buf)
	return err
}

// WriteCentralDirectory emits every entry's CD header in order and returns
// the total number of bytes written, rejecting archives whose CD would
// exceed the 32-bit size field.
func WriteCentralDirectory(w io.Writer, entries []Entry) (uint32, error) {
	var total uint64
	for i := range entries {
		n, err := WriteCDHeader(w, &entries[i])
		if err != nil {
			return 0, err
		}
		total += uint64(n)
		if total > maxUint32 {
			return 0, errs.SizeExceededError{Field: "cd_size", Value: total, Limit: maxUint32}
		}
	}
	return uint32(total), nil
}
