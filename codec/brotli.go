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

	"github.com/andybalholm/brotli"

	"github.com/gozipkit/gozipkit/errs"
)

func init() {
	RegisterCodec(MethodBrotli, brotliZipCodec{})
}

// brotliZipCodec wires method 97 (WinZip's unofficial Brotli extension) to
// andybalholm/brotli, using the library's standard stream format.
type brotliZipCodec struct{}

func (brotliZipCodec) Name() string { return "brotli" }

func (brotliZipCodec) NewCompressor(level int) (Compressor, error) {
	if level < 0 {
		level = brotli.DefaultCompression
	}
	if level > 11 {
		level = 11
	}
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, level)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("brotli encode: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("brotli encode close: %w", err)
		}
		return buf.Bytes(), nil
	}), nil
}

func (brotliZipCodec) NewDecompressor() (Decompressor, error) {
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		r := brotli.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: brotli decode: %v", errs.ErrMalformedPayload, err)
		}
		return out, nil
	}), nil
}
