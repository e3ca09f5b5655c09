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

	"github.com/gozipkit/gozipkit/errs"
	"github.com/gozipkit/gozipkit/leio"
)

// DataOffset reads the Local File Header for entry (CD values are
// authoritative for everything else, including when the data-descriptor
// general-purpose bit is set) and returns the file offset of the entry's
// compressed payload.
func DataOffset(r io.ReaderAt, fileSize int64, entry *Entry) (int64, error) {
	lfhStart := int64(entry.LFHOffset)
	if lfhStart < 0 || lfhStart+lfhFixedSize > fileSize {
		return 0, errs.ErrInconsistent
	}
	hdr, err := leio.ReadBytesAt(r, lfhStart, lfhFixedSize)
	if err != nil {
		return 0, err
	}
	if leio.Uint32(hdr[0:4]) != lfhSignature {
		return 0, errs.ErrInconsistent
	}
	nameLen := leio.Uint16(hdr[26:28])
	extraLen := leio.Uint16(hdr[28:30])

	dataOffset := lfhStart + lfhFixedSize + int64(nameLen) + int64(extraLen)
	if dataOffset+int64(entry.CompressedSize) > fileSize {
		return 0, errs.ErrInconsistent
	}
	return dataOffset, nil
}
