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

	"github.com/ulikunitz/xz/lzma"

	"github.com/gozipkit/gozipkit/errs"
)

func init() {
	RegisterCodec(MethodLZMA, lzmaZipCodec{})
}

// lzmaZipCodec wires method 14 to ulikunitz/xz/lzma, emitting the small
// LZMA SDK header APPNOTE.TXT §4.4.5/5.8 prescribes for ZIP entries: a
// 2-byte SDK version, a 2-byte properties length (always 5), and the
// 5-byte properties block itself, ahead of the raw LZMA stream.
type lzmaZipCodec struct{}

func (lzmaZipCodec) Name() string { return "lzma" }

const lzmaSDKVersionMajor, lzmaSDKVersionMinor = 9, 20

func (lzmaZipCodec) NewCompressor(level int) (Compressor, error) {
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		var classic bytes.Buffer
		w, err := lzma.NewWriter(&classic)
		if err != nil {
			return nil, fmt.Errorf("lzma encoder init: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lzma encode: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lzma encode close: %w", err)
		}

		raw := classic.Bytes()
		if len(raw) < 13 {
			return nil, fmt.Errorf("lzma encode: short classic stream")
		}
		props := raw[0:5] // properties byte + 4-byte dict size, classic header layout
		body := raw[13:]

		out := make([]byte, 0, 9+len(body))
		out = append(out, byte(lzmaSDKVersionMajor), byte(lzmaSDKVersionMinor))
		out = append(out, 5, 0) // properties size, little-endian uint16
		out = append(out, props...)
		out = append(out, body...)
		return out, nil
	}), nil
}

func (lzmaZipCodec) NewDecompressor() (Decompressor, error) {
	return newBufferedCompressor(func(data []byte) ([]byte, error) {
		if len(data) < 4 {
			return nil, errs.ErrMalformedPayload
		}
		propsLen := int(data[2]) | int(data[3])<<8
		if propsLen != 5 || len(data) < 4+propsLen {
			return nil, errs.ErrMalformedPayload
		}
		props := data[4 : 4+propsLen]
		body := data[4+propsLen:]

		// Reconstruct the classic 13-byte LZMA header: properties byte +
		// dict size (4 bytes, copied as-is) + unknown uncompressed size
		// (all-ones), relying on the stream's end-of-stream marker.
		header := make([]byte, 13)
		copy(header[0:5], props)
		for i := 5; i < 13; i++ {
			header[i] = 0xFF
		}

		r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("lzma decoder init: %w", err)
		}
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lzma decode: %v", errs.ErrMalformedPayload, err)
		}
		return out, nil
	}), nil
}
