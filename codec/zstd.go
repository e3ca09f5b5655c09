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
	"fmt"

	"github.com/klauspost/compress/zstd"
)

func init() {
	RegisterCodec(MethodZstd, zstdZipCodec{})
}

// zstdZipCodec wires method 93 (unofficial, WinZip-originated Zstandard) to
// klauspost/compress/zstd, using the library's standard frame format.
type zstdZipCodec struct{}

func (zstdZipCodec) Name() string { return "zstd" }

func (zstdZipCodec) NewCompressor(level int) (Compressor, error) {
	el := zstd.SpeedDefault
	switch {
	case level >= 0 && level <= 2:
		el = zstd.SpeedFastest
	case level >= 8:
		el = zstd.SpeedBestCompression
	}
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(el))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder init: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
	}), nil
}

func (zstdZipCodec) NewDecompressor() (Decompressor, error) {
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder init: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	}), nil
}
