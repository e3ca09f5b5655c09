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

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/gozipkit/gozipkit/errs"
)

func init() {
	RegisterCodec(MethodLZ4, lz4ZipCodec{})
}

// lz4ZipCodec wires method 94 (the LZ4 extension some archivers assign) to
// pierrec/lz4/v4, using the library's standard frame format.
type lz4ZipCodec struct{}

func (lz4ZipCodec) Name() string { return "lz4" }

func (lz4ZipCodec) NewCompressor(level int) (Compressor, error) {
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if level >= 1 {
			if level > 9 {
				level = 9
			}
			// lz4's CompressionLevel constants are powers of two:
			// Level1 == 1<<9, Level2 == 1<<10, up to Level9.
			if err := w.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(1 << (8 + level)))); err != nil {
				return nil, fmt.Errorf("lz4 configure: %w", err)
			}
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 encode: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 encode close: %w", err)
		}
		return buf.Bytes(), nil
	}), nil
}

func (lz4ZipCodec) NewDecompressor() (Decompressor, error) {
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		r := lz4.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 decode: %v", errs.ErrMalformedPayload, err)
		}
		return out, nil
	}), nil
}
