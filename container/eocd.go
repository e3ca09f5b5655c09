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
	"io"

	"github.com/gozipkit/gozipkit/errs"
	"github.com/gozipkit/gozipkit/leio"
)

// FindEOCD locates and validates the End-Of-Central-Directory record in r,
// a random-access view of a complete archive of fileSize bytes.
//
// It reads the last min(maxEOCDSearch, fileSize) bytes into memory and scans
// backward for the signature, the approach a reference ZIP reader takes
// rather than a forward linear scan of the whole file. A candidate is
// accepted only once its CD offset/size fit within the file and — when the
// archive claims any entries — the four bytes at that CD offset carry the CD
// header signature, so a signature value that happens to occur inside
// compressed entry data cannot be mistaken for the real trailer as long as a
// later, valid EOCD exists closer to EOF (the scan simply keeps walking
// further back on a failed candidate).
func FindEOCD(r io.ReaderAt, fileSize int64) (*EOCDInfo, error) {
	start, length := EOCDSearchWindow(fileSize)
	tail, err := leio.ReadBytesAt(r, start, int(length))
	if err != nil {
		return nil, err
	}

	searchEnd := len(tail)
	for searchEnd >= 4 {
		idx := bytes.LastIndex(tail[:searchEnd], []byte{0x50, 0x4B, 0x05, 0x06})
		if idx < 0 {
			break
		}
		if rec, ok := tryParseEOCD(tail[idx:], fileSize, r); ok {
			rec.EOCDOffset = start + int64(idx)
			return rec, nil
		}
		searchEnd = idx + 3
	}
	return nil, errs.ErrNotAZip
}

func tryParseEOCD(buf []byte, fileSize int64, r io.ReaderAt) (*EOCDInfo, bool) {
	if len(buf) < eocdFixedSize {
		return nil, false
	}
	sig := leio.Uint32(buf[0:4])
	if sig != eocdSignature {
		return nil, false
	}
	thisDisk := leio.Uint16(buf[4:6])
	cdStartDisk := leio.Uint16(buf[6:8])
	entriesOnDisk := leio.Uint16(buf[8:10])
	totalEntries := leio.Uint16(buf[10:12])
	cdSize := leio.Uint32(buf[12:16])
	cdOffset := leio.Uint32(buf[16:20])
	commentLen := leio.Uint16(buf[20:22])

	if thisDisk != 0 || cdStartDisk != 0 || entriesOnDisk != totalEntries {
		return nil, false
	}
	if len(buf) < eocdFixedSize+int(commentLen) {
		// Declared comment runs past what we scanned; not a match here.
		return nil, false
	}
	if uint64(cdOffset)+uint64(cdSize) > uint64(fileSize) {
		return nil, false
	}
	if totalEntries > 0 {
		sigBuf, err := leio.ReadBytesAt(r, int64(cdOffset), 4)
		if err != nil || leio.Uint32(sigBuf) != cdSignature {
			return nil, false
		}
	}

	return &EOCDInfo{
		TotalEntries:  totalEntries,
		CDSize:        cdSize,
		CDOffset:      cdOffset,
		CommentLength: commentLen,
	}, true
}

// EOCDSearchWindow returns the byte range [start, start+length) that
// FindEOCD needs to read to locate the trailer.
func EOCDSearchWindow(fileSize int64) (start int64, length int64) {
	length = int64(maxEOCDSearch)
	if length > fileSize {
		length = fileSize
	}
	return fileSize - length, length
}
