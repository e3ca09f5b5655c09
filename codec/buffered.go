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

// bufferedCompressor adapts a whole-buffer transform function (the shape
// every third-party backend here exposes: zstd.Encoder.EncodeAll, xz/lzma's
// writer, brotli's reader/writer, lz4's reader/writer) to the Step/flush
// contract; the backends use it for decompression too. It accumulates its input
// across calls and runs transform once FlushFinish arrives, then serves the
// result out through whatever dst slices the caller supplies — the same
// whole-entry approach package deflate uses, appropriate here since every
// caller in this module already holds a ZIP entry's full payload in memory.
type bufferedCompressor struct {
	transform func([]byte) ([]byte, error)
	pending   []byte
	out       []byte
	outPos    int
	done      bool
}

func (b *bufferedCompressor) Step(src, dst []byte, flush FlushMode) (consumed, produced int, result StepResult, err error) {
	if b.out == nil && !b.done {
		b.pending = append(b.pending, src...)
		consumed = len(src)
		if flush != FlushFinish {
			return consumed, 0, StepProgress, nil
		}
		out, transformErr := b.transform(b.pending)
		if transformErr != nil {
			return consumed, 0, StepProgress, transformErr
		}
		b.out = out
		b.pending = nil
	}

	n := copy(dst, b.out[b.outPos:])
	b.outPos += n
	if b.outPos >= len(b.out) {
		b.done = true
		return consumed, n, StepStreamEnd, nil
	}
	return consumed, n, StepNeedsMoreOutput, nil
}

func (b *bufferedCompressor) End() error {
	b.pending = nil
	b.out = nil
	return nil
}

func newBufferedCompressor(transform func([]byte) ([]byte, error)) *bufferedCompressor {
	return &bufferedCompressor{transform: transform}
}
