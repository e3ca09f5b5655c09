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

// Package codec defines the streaming compressor/decompressor contract
// shared by every backend (store, deflate, zstd, lzma, brotli, lz4) and the
// registry that the container engine uses to dispatch by ZIP method code.
package codec

import "fmt"

// FlushMode selects how a Step call should treat the input it is given.
type FlushMode int

const (
	// FlushNone means more input may follow; the codec should buffer
	// whatever it needs to and must not emit a terminal block yet.
	FlushNone FlushMode = iota

	// FlushFinish means this is the last call: the codec must either
	// produce the terminal block now, or, if input remains, treat the
	// current input as the final chunk of the stream.
	FlushFinish
)

// StepResult reports what happened during a single Step call.
type StepResult int

const (
	// StepProgress means the call consumed and/or produced bytes and more
	// calls are expected.
	StepProgress StepResult = iota

	// StepStreamEnd means the codec reached the natural end of the stream
	// and will not produce further output.
	StepStreamEnd

	// StepNeedsMoreOutput means the output buffer was exhausted mid-symbol;
	// the caller must call Step again with a fresh output buffer.
	StepNeedsMoreOutput

	// StepNeedsMoreInput means the input was exhausted mid-symbol and no
	// more output can be produced until more input arrives. Only returned
	// when FlushMode is FlushNone; under FlushFinish a truncated stream is
	// malformed input instead.
	StepNeedsMoreInput
)

func (r StepResult) String() string {
	switch r {
	case StepProgress:
		return "progress"
	case StepStreamEnd:
		return "stream-end"
	case StepNeedsMoreOutput:
		return "needs-more-output"
	case StepNeedsMoreInput:
		return "needs-more-input"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// Compressor is a resumable compression stream. Callers drive it by
// repeatedly calling Step with fresh input/output slices until it reports
// StepStreamEnd. End releases any internal state and must be safe to call
// from any point in the stream's lifetime, including after an error.
type Compressor interface {
	// Step consumes a prefix of src and writes a prefix of dst, returning
	// how many bytes of each it used.
	Step(src, dst []byte, flush FlushMode) (consumed, produced int, result StepResult, err error)

	// End releases internal state. Idempotent after the first successful
	// call.
	End() error
}

// Decompressor is the decoding counterpart of Compressor.
type Decompressor interface {
	Step(src, dst []byte, flush FlushMode) (consumed, produced int, result StepResult, err error)
	End() error
}

// Codec is a compression backend keyed by ZIP method code. Level follows
// the zlib convention: -1 selects the backend's default, 0..9 request a
// specific effort/ratio tradeoff; backends that have no notion of level
// ignore it.
type Codec interface {
	// Name is a short human-readable identifier, e.g. "deflate".
	Name() string

	// NewCompressor starts a fresh compression stream.
	NewCompressor(level int) (Compressor, error)

	// NewDecompressor starts a fresh decompression stream.
	NewDecompressor() (Decompressor, error)
}

// RunCompressor drives a Compressor to completion over an in-memory buffer,
// the common case for ZIP entries, whose whole payload is held in memory.
// dstCap is the initial capacity of the output buffer; the output grows
// past it when the codec produces more.
func RunCompressor(c Compressor, src []byte, dstCap int) ([]byte, error) {
	out := make([]byte, 0, dstCap)
	buf := make([]byte, 32*1024)
	srcOff := 0
	for {
		flush := FlushNone
		if srcOff >= len(src) {
			flush = FlushFinish
		}
		consumed, produced, result, err := c.Step(src[srcOff:], buf, flush)
		if err != nil {
			return nil, err
		}
		srcOff += consumed
		out = append(out, buf[:produced]...)
		switch result {
		case StepStreamEnd:
			return out, nil
		case StepNeedsMoreInput:
			if flush == FlushFinish {
				return nil, fmt.Errorf("codec: needs-more-input while flushing")
			}
			return out, nil
		case StepNeedsMoreOutput, StepProgress:
			if consumed == 0 && produced == 0 && flush != FlushFinish {
				return out, nil
			}
		}
	}
}

// RunDecompressor drives a Decompressor to completion over an in-memory
// buffer, matching how the container engine feeds an entry's entire
// compressed slice at once.
func RunDecompressor(d Decompressor, src []byte, dstCap int) ([]byte, error) {
	out := make([]byte, 0, dstCap)
	buf := make([]byte, 32*1024)
	srcOff := 0
	for {
		flush := FlushNone
		if srcOff >= len(src) {
			flush = FlushFinish
		}
		consumed, produced, result, err := d.Step(src[srcOff:], buf, flush)
		if err != nil {
			return nil, err
		}
		srcOff += consumed
		out = append(out, buf[:produced]...)
		switch result {
		case StepStreamEnd:
			return out, nil
		case StepNeedsMoreInput:
			return nil, fmt.Errorf("codec: truncated stream")
		case StepNeedsMoreOutput, StepProgress:
			if consumed == 0 && produced == 0 {
				return out, nil
			}
		}
	}
}
