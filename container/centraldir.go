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
	"github.com/gozipkit/gozipkit/errs"
	"github.com/gozipkit/gozipkit/leio"
)

// ParseCentralDirectory reads eocd.TotalEntries Central Directory records
// from buf (exactly eocd.CDSize bytes starting at the CD offset) per
// APPNOTE.TXT §4.3.12.
func ParseCentralDirectory(buf []byte, eocd *EOCDInfo) ([]Entry, error) {
	entries := make([]Entry, 0, eocd.TotalEntries)
	off := 0
	for i := 0; i < int(eocd.TotalEntries); i++ {
		if len(buf)-off < cdFixedSize {
			return nil, errs.ErrInconsistent
		}
		rec := buf[off:]
		if leio.Uint32(rec[0:4]) != cdSignature {
			return nil, errs.ErrInconsistent
		}

		gpFlag := leio.Uint16(rec[8:10])
		if err := rejectUnsupportedFlags(gpFlag); err != nil {
			return nil, err
		}

		method := leio.Uint16(rec[10:12])
		dosTime := leio.Uint16(rec[12:14])
		dosDate := leio.Uint16(rec[14:16])
		crc := leio.Uint32(rec[16:20])
		compSize := leio.Uint32(rec[20:24])
		uncompSize := leio.Uint32(rec[24:28])
		nameLen := leio.Uint16(rec[28:30])
		extraLen := leio.Uint16(rec[30:32])
		commentLen := leio.Uint16(rec[32:34])
		diskNum := leio.Uint16(rec[34:36])
		externalAttrs := leio.Uint32(rec[38:42])
		lfhOffset := leio.Uint32(rec[42:46])

		if diskNum != 0 {
			return nil, errs.ErrSpanningUnsupported
		}
		if uint64(compSize) > maxPayloadSize {
			return nil, errs.SizeExceededError{Field: "compressed_size", Value: uint64(compSize), Limit: maxPayloadSize}
		}
		if uint64(uncompSize) > maxPayloadSize {
			return nil, errs.SizeExceededError{Field: "uncompressed_size", Value: uint64(uncompSize), Limit: maxPayloadSize}
		}

		need := cdFixedSize + int(nameLen) + int(extraLen) + int(commentLen)
		if len(buf)-off < need {
			return nil, errs.ErrInconsistent
		}
		name := string(rec[cdFixedSize : cdFixedSize+int(nameLen)])
		comment := string(rec[cdFixedSize+int(nameLen)+int(extraLen) : cdFixedSize+int(nameLen)+int(extraLen)+int(commentLen)])

		entries = append(entries, Entry{
			Name:             name,
			GPFlags:          gpFlag,
			Method:           method,
			DOSTime:          dosTime,
			DOSDate:          dosDate,
			CRC32:            crc,
			CompressedSize:   compSize,
			UncompressedSize: uncompSize,
			ExternalAttrs:    externalAttrs,
			LFHOffset:        lfhOffset,
			Comment:          comment,
		})

		off += need
	}
	return entries, nil
}

// rejectUnsupportedFlags enforces the accepted-archive constraints of §6:
// no encryption (general-purpose bits 0, 6, 13), which this module never
// implements.
func rejectUnsupportedFlags(gpFlag uint16) error {
	const encryptedMask = 1<<gpEncryptedBit | 1<<gpStrongEncryptedBit | 1<<gpCDEncryptedBit
	if gpFlag&encryptedMask != 0 {
		return errs.ErrEncryptedUnsupported
	}
	return nil
}
