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

func init() {
	RegisterCodec(MethodStore, storeCodec{})
}

// storeCodec implements method 0: the payload is copied verbatim, no
// compression at all.
type storeCodec struct{}

func (storeCodec) Name() string { return "store" }

func (storeCodec) NewCompressor(level int) (Compressor, error) {
	return &storeStream{}, nil
}

func (storeCodec) NewDecompressor() (Decompressor, error) {
	return &storeStream{}, nil
}

// storeStream is its own compressor and decompressor: both directions are
// a byte-for-byte copy bounded by whichever buffer is smaller.
type storeStream struct {
	ended bool
}

func (s *storeStream) Step(src, dst []byte, flush FlushMode) (consumed, produced int, result StepResult, err error) {
	n := copy(dst, src)
	if n == len(src) {
		if flush == FlushFinish {
			return n, n, StepStreamEnd, nil
		}
		return n, n, StepProgress, nil
	}
	return n, n, StepNeedsMoreOutput, nil
}

func (s *storeStream) End() error {
	s.ended = true
	return nil
}
