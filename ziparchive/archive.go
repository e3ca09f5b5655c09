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

// Package ziparchive is the library-level API over the container engine:
// open/close, enumerate, stat, read-whole-entry, add entry. It layers a
// stateful archive handle over the stateless container package.
package ziparchive

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gozipkit/gozipkit/codec"
	"github.com/gozipkit/gozipkit/container"
	"github.com/gozipkit/gozipkit/errs"
)

// Mode selects how Open treats the target path.
type Mode int

const (
	// ModeReadOnly opens an existing archive for reading only.
	ModeReadOnly Mode = iota
	// ModeCreate truncates an existing file or creates a new one.
	ModeCreate
	// ModeCreateExclusive fails if the file already exists.
	ModeCreateExclusive
	// ModeCreateAppend opens an existing archive for read+append, preserving
	// its entries and positioning the write cursor after the last payload.
	ModeCreateAppend
)

// MatchMode controls how Locate compares names.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchCaseInsensitive
)

// Stat is the metadata surface returned for one archive entry. Name holds
// the raw bytes the archive stores, preserved byte-for-byte; DecodedName
// is a best-effort UTF-8 rendering of the same bytes,
// decoded as CP437 unless the entry's UTF-8 general-purpose bit is set.
type Stat struct {
	Name             string
	DecodedName      string
	Index            int
	UncompressedSize uint64
	CompressedSize   uint64
	CRC32            uint32
	Method           uint16
	ModTime          time.Time
}

// Archive is a handle on an open ZIP file, read-only or write-mode. It is
// not safe for concurrent use by multiple goroutines, matching the
// single-handle-per-caller discipline the container engine assumes.
type Archive struct {
	f       *os.File
	mode    Mode
	entries []container.Entry

	writeOffset   int64 // next LFH write position, write modes only
	defaultMethod *uint16
	level         int
	cfg           container.ExtractConfig

	closed bool
}

// Open opens path under mode. ModeReadOnly and ModeCreateAppend read and
// validate the existing Central Directory; ModeCreate/ModeCreateExclusive
// start from an empty entry set.
func Open(path string, mode Mode) (*Archive, error) {
	switch mode {
	case ModeReadOnly:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		a := &Archive{f: f, mode: mode, level: -1, cfg: container.DefaultExtractConfig()}
		if err := a.loadEntries(); err != nil {
			_ = f.Close()
			return nil, err
		}
		return a, nil

	case ModeCreateAppend:
		f, err := os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return nil, err
		}
		a := &Archive{f: f, mode: mode, level: -1, cfg: container.DefaultExtractConfig()}
		if err := a.loadEntries(); err != nil {
			_ = f.Close()
			return nil, err
		}
		// The write cursor starts where the old Central Directory used to
		// be: every subsequent Add overwrites it, and Close rewrites a
		// fresh CD/EOCD past the new entries.
		eocdOff, err := a.currentCDOffset()
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		a.writeOffset = eocdOff
		return a, nil

	case ModeCreateExclusive:
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return nil, err
		}
		return &Archive{f: f, mode: ModeCreate, level: -1, cfg: container.DefaultExtractConfig()}, nil

	case ModeCreate:
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, err
		}
		return &Archive{f: f, mode: ModeCreate, level: -1, cfg: container.DefaultExtractConfig()}, nil

	default:
		return nil, errs.ErrInvalidState
	}
}

func (a *Archive) loadEntries() error {
	size, err := a.f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	eocd, err := container.FindEOCD(a.f, size)
	if err != nil {
		return err
	}
	cdBuf := make([]byte, eocd.CDSize)
	if _, err := a.f.ReadAt(cdBuf, int64(eocd.CDOffset)); err != nil {
		return err
	}
	entries, err := container.ParseCentralDirectory(cdBuf, eocd)
	if err != nil {
		return err
	}
	a.entries = entries
	return nil
}

func (a *Archive) currentCDOffset() (int64, error) {
	size, err := a.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	eocd, err := container.FindEOCD(a.f, size)
	if err != nil {
		return 0, err
	}
	return int64(eocd.CDOffset), nil
}

// SetExtractConfig installs the zipbomb/strict-CRC policy used by OpenIndex.
func (a *Archive) SetExtractConfig(cfg container.ExtractConfig) { a.cfg = cfg }

// SetDefaultMethod makes Add and Replace use method in place of the one they
// would otherwise use (Add's method argument, Replace's existing entry
// method).
func (a *Archive) SetDefaultMethod(method uint16) {
	m := method
	a.defaultMethod = &m
}

// SetLevel sets the compression level (zlib convention) Add uses.
func (a *Archive) SetLevel(level int) { a.level = level }

// Close finalizes a write-mode archive (emitting the Central Directory and
// EOCD) and releases the file handle. It is idempotent.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.mode == ModeReadOnly {
		return a.f.Close()
	}

	if _, err := a.f.Seek(a.writeOffset, io.SeekStart); err != nil {
		_ = a.f.Close()
		return err
	}
	cdOffset := a.writeOffset
	if uint64(cdOffset) > 0xFFFFFFFF {
		_ = a.f.Close()
		return errs.SizeExceededError{Field: "cd_offset", Value: uint64(cdOffset), Limit: 0xFFFFFFFF}
	}
	cdSize, err := container.WriteCentralDirectory(a.f, a.entries)
	if err != nil {
		_ = a.f.Close()
		return err
	}
	if err := container.WriteEOCD(a.f, uint16(len(a.entries)), cdSize, uint32(cdOffset)); err != nil {
		_ = a.f.Close()
		return err
	}
	if err := a.f.Truncate(a.writeOffset + int64(cdSize) + 22); err != nil {
		_ = a.f.Close()
		return err
	}
	return a.f.Close()
}

// NumEntries returns how many entries the archive currently holds.
func (a *Archive) NumEntries() int { return len(a.entries) }

// Locate returns the index of the first entry named name, or ErrNotFound.
func (a *Archive) Locate(name string, mode MatchMode) (int, error) {
	for i, e := range a.entries {
		if mode == MatchCaseInsensitive {
			if strings.EqualFold(e.Name, name) {
				return i, nil
			}
		} else if e.Name == name {
			return i, nil
		}
	}
	return -1, errs.ErrNotFound
}

// GetName returns the name of the entry at index.
func (a *Archive) GetName(index int) (string, error) {
	if index < 0 || index >= len(a.entries) {
		return "", errs.ErrNotFound
	}
	return a.entries[index].Name, nil
}

// Stat returns the metadata record for the entry at index.
func (a *Archive) Stat(index int) (Stat, error) {
	if index < 0 || index >= len(a.entries) {
		return Stat{}, errs.ErrNotFound
	}
	e := a.entries[index]
	return Stat{
		Name:             e.Name,
		DecodedName:      e.DecodeName(),
		Index:            index,
		UncompressedSize: uint64(e.UncompressedSize),
		CompressedSize:   uint64(e.CompressedSize),
		CRC32:            e.CRC32,
		Method:           e.Method,
		ModTime:          container.FromDOSTime(e.DOSTime, e.DOSDate),
	}, nil
}

// OpenedFile is a fully-decoded entry payload with a read cursor, matching
// the "open_index decodes entirely into memory" contract this module uses
// throughout.
type OpenedFile struct {
	data []byte
	pos  int
}

// Read copies up to len(buf) bytes from the current cursor.
func (o *OpenedFile) Read(buf []byte) (int, error) {
	if o.pos >= len(o.data) {
		return 0, io.EOF
	}
	n := copy(buf, o.data[o.pos:])
	o.pos += n
	return n, nil
}

// Close releases the buffer. Idempotent.
func (o *OpenedFile) Close() error {
	o.data = nil
	return nil
}

// Bytes returns the entry's full decoded payload without copying.
func (o *OpenedFile) Bytes() []byte { return o.data }

// OpenIndex decodes the entry at index into memory, applying this archive's
// extraction policy (zipbomb guard, strict CRC).
func (a *Archive) OpenIndex(index int) (*OpenedFile, error) {
	if index < 0 || index >= len(a.entries) {
		return nil, errs.ErrNotFound
	}
	size, err := a.f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	data, err := container.ExtractEntry(a.f, size, &a.entries[index], a.cfg)
	if err != nil {
		return nil, err
	}
	return &OpenedFile{data: data}, nil
}

// Source supplies the uncompressed bytes for Add/Replace.
type Source interface {
	Bytes() ([]byte, error)
}

// bufferSource is the in-memory Source every caller in this module uses;
// "owns" has no separate meaning in a garbage-collected runtime, so it's
// accepted to record the transfer of ownership and otherwise ignored.
type bufferSource struct{ data []byte }

func (b bufferSource) Bytes() ([]byte, error) { return b.data, nil }

// SourceFromBuffer wraps data as a Source. owns records whether the caller
// hands the buffer over; it doesn't change behavior under GC.
func SourceFromBuffer(data []byte, owns bool) Source {
	return bufferSource{data: data}
}

// Add compresses src's bytes and appends a new entry. method is used unless
// the archive has a default method set via SetDefaultMethod.
func (a *Archive) Add(name string, src Source, method uint16) (int, error) {
	if a.mode == ModeReadOnly {
		return -1, errs.ErrInvalidState
	}
	data, err := src.Bytes()
	if err != nil {
		return -1, err
	}
	effectiveMethod := method
	if a.defaultMethod != nil {
		effectiveMethod = *a.defaultMethod
	}

	entry, compressed, err := container.ComposeEntry(name, data, effectiveMethod, a.level, time.Now())
	if err != nil {
		return -1, err
	}
	if uint64(a.writeOffset) > 0xFFFFFFFF {
		return -1, errs.SizeExceededError{Field: "lfh_offset", Value: uint64(a.writeOffset), Limit: 0xFFFFFFFF}
	}
	entry.LFHOffset = uint32(a.writeOffset)

	if _, err := a.f.Seek(a.writeOffset, io.SeekStart); err != nil {
		return -1, err
	}
	n, err := container.WriteLFH(a.f, &entry)
	if err != nil {
		return -1, err
	}
	if _, err := a.f.Write(compressed); err != nil {
		return -1, err
	}
	a.writeOffset += int64(n) + int64(len(compressed))

	a.entries = append(a.entries, entry)
	return len(a.entries) - 1, nil
}

// SetMethod checks that index exists and otherwise has no effect: every
// entry is committed to disk by Add, and this module never rewrites a
// payload in place. It records nothing; Replace re-encodes with the entry's
// existing method, or the default set by SetDefaultMethod.
func (a *Archive) SetMethod(index int, method uint16) error {
	if index < 0 || index >= len(a.entries) {
		return errs.ErrNotFound
	}
	return nil
}

// Replace writes src's bytes as a new payload at the current end of file and
// repoints index's entry at it; the old payload becomes unreachable garbage
// in the file.
func (a *Archive) Replace(index int, src Source) error {
	if a.mode == ModeReadOnly {
		return errs.ErrInvalidState
	}
	if index < 0 || index >= len(a.entries) {
		return errs.ErrNotFound
	}
	data, err := src.Bytes()
	if err != nil {
		return err
	}
	method := a.entries[index].Method
	if a.defaultMethod != nil {
		method = *a.defaultMethod
	}

	entry, compressed, err := container.ComposeEntry(a.entries[index].Name, data, method, a.level, time.Now())
	if err != nil {
		return err
	}
	entry.LFHOffset = uint32(a.writeOffset)

	if _, err := a.f.Seek(a.writeOffset, io.SeekStart); err != nil {
		return err
	}
	n, err := container.WriteLFH(a.f, &entry)
	if err != nil {
		return err
	}
	if _, err := a.f.Write(compressed); err != nil {
		return err
	}
	a.writeOffset += int64(n) + int64(len(compressed))
	a.entries[index] = entry
	return nil
}

// MethodSupported reports whether method has a codec backend registered, so
// callers like the CLI can validate a requested method before issuing Add.
func MethodSupported(method uint16) bool {
	return codec.Registered(codec.Method(method))
}
