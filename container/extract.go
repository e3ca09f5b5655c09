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

	"github.com/gozipkit/gozipkit/codec"
	"github.com/gozipkit/gozipkit/crc32table"
	"github.com/gozipkit/gozipkit/errs"
	"github.com/gozipkit/gozipkit/leio"
)

// DefaultMaxRatio and DefaultSlack are the zipbomb expansion guard's
// defaults: an entry is refused unless uncompressed_size <=
// compressed_size*MaxRatio + Slack.
const (
	DefaultMaxRatio uint64 = 1000
	DefaultSlack    uint64 = 1 * 1024 * 1024
)

// ExtractConfig is the extraction policy, threaded explicitly through
// extraction calls instead of living in mutable process globals.
type ExtractConfig struct {
	StrictCRC     bool
	IgnoreZipbomb bool
	MaxRatio      uint64
	Slack         uint64
}

// DefaultExtractConfig returns the defaults: non-strict CRC, zipbomb guard
// enabled at ratio 1000 / slack 1 MiB.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{MaxRatio: DefaultMaxRatio, Slack: DefaultSlack}
}

// CheckExpansion enforces the zipbomb mitigation predicate. It is exposed
// separately from ExtractEntry so callers can pre-flight large archives
// before committing to a read.
func (c ExtractConfig) CheckExpansion(entry *Entry) error {
	if c.IgnoreZipbomb {
		return nil
	}
	ratio := c.MaxRatio
	if ratio == 0 {
		ratio = DefaultMaxRatio
	}
	slack := c.Slack
	if slack == 0 {
		slack = DefaultSlack
	}
	limit := uint64(entry.CompressedSize)*ratio + slack
	if uint64(entry.UncompressedSize) > limit {
		return errs.ExpansionRefusedError{
			Name:             entry.Name,
			CompressedSize:   uint64(entry.CompressedSize),
			UncompressedSize: uint64(entry.UncompressedSize),
			MaxRatio:         ratio,
			Slack:            slack,
		}
	}
	return nil
}

// ExtractEntry reads and decompresses entry's payload from r, a
// random-access view of an archive of fileSize bytes. It applies the
// zipbomb expansion guard before reading the compressed bytes, dispatches to
// the codec registered for entry.Method, and verifies the CRC-32 (fatal only
// when cfg.StrictCRC is set).
func ExtractEntry(r io.ReaderAt, fileSize int64, entry *Entry, cfg ExtractConfig) ([]byte, error) {
	if err := cfg.CheckExpansion(entry); err != nil {
		return nil, err
	}

	dataOffset, err := DataOffset(r, fileSize, entry)
	if err != nil {
		return nil, err
	}
	compressed, err := leio.ReadBytesAt(r, dataOffset, int(entry.CompressedSize))
	if err != nil {
		return nil, err
	}

	c, err := codec.GetCodec(codec.Method(entry.Method))
	if err != nil {
		return nil, err
	}
	dec, err := c.NewDecompressor()
	if err != nil {
		return nil, err
	}
	defer dec.End()

	out, err := codec.RunDecompressor(dec, compressed, int(entry.UncompressedSize))
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) != uint64(entry.UncompressedSize) {
		return nil, errs.ErrMalformedPayload
	}

	got := crc32table.Checksum(out)
	if got != entry.CRC32 {
		if cfg.StrictCRC {
			return nil, errs.CRCMismatchError{Name: entry.Name, Want: entry.CRC32, Got: got}
		}
	}
	return out, nil
}
