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

package codec

import "github.com/gozipkit/gozipkit/deflate"

func init() {
	RegisterCodec(MethodDeflate, deflateCodec{})
}

// deflateCodec wires method 8 to the hand-written RFC 1951 implementation
// in package deflate.
type deflateCodec struct{}

func (deflateCodec) Name() string { return "deflate" }

func (deflateCodec) NewCompressor(level int) (Compressor, error) {
	return deflateCompressorAdapter{deflate.NewEncoder(level)}, nil
}

func (deflateCodec) NewDecompressor() (Decompressor, error) {
	return deflateDecompressorAdapter{deflate.NewDecoder()}, nil
}

// deflateCompressorAdapter and deflateDecompressorAdapter translate between
// package codec's FlushMode/StepResult and package deflate's equivalents,
// which exist separately to avoid an import cycle (package codec imports
// package deflate to register it).
type deflateCompressorAdapter struct{ e *deflate.Encoder }

func (a deflateCompressorAdapter) Step(src, dst []byte, flush FlushMode) (int, int, StepResult, error) {
	consumed, produced, result, err := a.e.Step(src, dst, toDeflateFlush(flush))
	return consumed, produced, fromDeflateResult(result), err
}

func (a deflateCompressorAdapter) End() error { return a.e.End() }

type deflateDecompressorAdapter struct{ d *deflate.Decoder }

func (a deflateDecompressorAdapter) Step(src, dst []byte, flush FlushMode) (int, int, StepResult, error) {
	consumed, produced, result, err := a.d.Step(src, dst, toDeflateFlush(flush))
	return consumed, produced, fromDeflateResult(result), err
}

func (a deflateDecompressorAdapter) End() error { return a.d.End() }

func toDeflateFlush(f FlushMode) deflate.FlushMode {
	if f == FlushFinish {
		return deflate.FlushFinish
	}
	return deflate.FlushNone
}

func fromDeflateResult(r deflate.StepResult) StepResult {
	switch r {
	case deflate.StepStreamEnd:
		return StepStreamEnd
	case deflate.StepNeedsMoreOutput:
		return StepNeedsMoreOutput
	case deflate.StepNeedsMoreInput:
		return StepNeedsMoreInput
	default:
		return StepProgress
	}
}
