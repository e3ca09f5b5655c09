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

package deflate

import (
	"github.com/gozipkit/gozipkit/errs"
	"github.com/gozipkit/gozipkit/leio"
)

// Decoder inflates a raw DEFLATE stream (RFC 1951, no zlib/gzip wrapper).
//
// ZIP entries are read fully into memory before decompression throughout
// this module, so Decoder accumulates the source across Step calls, inflates
// it in one pass once FlushFinish arrives, and then serves the result out
// through whatever dst slices the caller supplies. This keeps the Step/flush contract honest for callers while
// avoiding a mid-symbol-resumable state machine that the in-memory entry
// model never actually exercises.
type Decoder struct {
	pending []byte // accumulated input, across calls, until flush=Finish
	out     []byte // fully inflated output, computed once input is complete
	outPos  int
	done    bool
}

// NewDecoder returns a ready-to-use raw DEFLATE decoder.
func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Step(src, dst []byte, flush stepFlush) (consumed, produced int, result stepResultT, err error) {
	if d.out == nil && !d.done {
		d.pending = append(d.pending, src...)
		consumed = len(src)
		if flush != flushFinish {
			return consumed, 0, resultProgress, nil
		}
		out, inflateErr := Inflate(d.pending)
		if inflateErr != nil {
			return consumed, 0, resultProgress, inflateErr
		}
		d.out = out
		d.pending = nil
	} else {
		consumed = 0
	}

	n := copy(dst, d.out[d.outPos:])
	d.outPos += n
	if d.outPos >= len(d.out) {
		d.done = true
		return consumed, n, resultStreamEnd, nil
	}
	return consumed, n, resultNeedsMoreOutput, nil
}

func (d *Decoder) End() error {
	d.pending = nil
	d.out = nil
	return nil
}

// Inflate decompresses a complete raw DEFLATE stream in one call, the core
// algorithm Decoder's Step drives. blockType values and the overall loop
// follow RFC 1951 §3.2.3.
func Inflate(data []byte) ([]byte, error) {
	br := leio.NewBitReader(data)
	window := make([]byte, 0, len(data)*3+64)

	for {
		final, ok := br.ReadBit()
		if !ok {
			return nil, errs.ErrMalformedPayload
		}
		btype, ok := br.ReadBits(2)
		if !ok {
			return nil, errs.ErrMalformedPayload
		}

		var err error
		switch btype {
		case 0:
			window, err = inflateStored(br, window)
		case 1:
			window, err = inflateBlock(br, window, fixedLitLenTable(), fixedDistTable())
		case 2:
			var litLen, dist *decodeTable
			litLen, dist, err = readDynamicTables(br)
			if err == nil {
				window, err = inflateBlock(br, window, litLen, dist)
			}
		default:
			err = errs.ErrMalformedPayload
		}
		if err != nil {
			return nil, err
		}
		if final == 1 {
			break
		}
	}
	return window, nil
}

var cachedFixedLitLen *decodeTable
var cachedFixedDist *decodeTable

func fixedLitLenTable() *decodeTable {
	if cachedFixedLitLen == nil {
		cachedFixedLitLen = newDecodeTable(fixedLitLenLengths())
	}
	return cachedFixedLitLen
}

func fixedDistTable() *decodeTable {
	if cachedFixedDist == nil {
		cachedFixedDist = newDecodeTable(fixedDistLengths())
	}
	return cachedFixedDist
}

// inflateStored copies a stored (uncompressed) block, after discarding the
// bits needed to reach the next byte boundary (RFC 1951 §3.2.4).
func inflateStored(br *leio.BitReader, out []byte) ([]byte, error) {
	br.AlignByte()
	lenBytes, ok := br.ReadAlignedBytes(4)
	if !ok {
		return nil, errs.ErrMalformedPayload
	}
	length := uint16(lenBytes[0]) | uint16(lenBytes[1])<<8
	nlength := uint16(lenBytes[2]) | uint16(lenBytes[3])<<8
	if length != ^nlength {
		return nil, errs.ErrMalformedPayload
	}
	payload, ok := br.ReadAlignedBytes(int(length))
	if !ok {
		return nil, errs.ErrMalformedPayload
	}
	return append(out, payload...), nil
}

// inflateBlock decodes a Huffman-coded (fixed or dynamic) block's literals
// and back-references into out, RFC 1951 §3.2.5.
func inflateBlock(br *leio.BitReader, out []byte, litLen, dist *decodeTable) ([]byte, error) {
	for {
		sym, ok := litLen.decode(br)
		if !ok {
			return nil, errs.ErrMalformedPayload
		}
		switch {
		case sym < 256:
			out = append(out, byte(sym))
		case sym == endOfBlockSymbol:
			return out, nil
		default:
			idx := sym - 257
			if idx >= len(lengthBase) {
				return nil, errs.ErrMalformedPayload
			}
			length := lengthBase[idx]
			if extra := lengthExtraBits[idx]; extra > 0 {
				v, ok := br.ReadBits(extra)
				if !ok {
					return nil, errs.ErrMalformedPayload
				}
				length += int(v)
			}

			distSym, ok := dist.decode(br)
			if !ok || distSym >= len(distBase) {
				return nil, errs.ErrMalformedPayload
			}
			distance := distBase[distSym]
			if extra := distExtraBits[distSym]; extra > 0 {
				v, ok := br.ReadBits(extra)
				if !ok {
					return nil, errs.ErrMalformedPayload
				}
				distance += int(v)
			}
			if distance > len(out) {
				return nil, errs.ErrMalformedPayload
			}
			start := len(out) - distance
			for i := 0; i < length; i++ {
				out = append(out, out[start+i])
			}
		}
	}
}

// readDynamicTables parses a dynamic block header (RFC 1951 §3.2.7): the
// code-length alphabet's own Huffman table, then the RLE-compressed literal/
// length and distance code lengths it decodes.
func readDynamicTables(br *leio.BitReader) (litLen, dist *decodeTable, err error) {
	hlit, ok := br.ReadBits(5)
	if !ok {
		return nil, nil, errs.ErrMalformedPayload
	}
	hdist, ok := br.ReadBits(5)
	if !ok {
		return nil, nil, errs.ErrMalformedPayload
	}
	hclen, ok := br.ReadBits(4)
	if !ok {
		return nil, nil, errs.ErrMalformedPayload
	}
	numLitLen := int(hlit) + 257
	numDist := int(hdist) + 1
	numCodeLen := int(hclen) + 4

	clLengths := make([]int, maxCodeLenSymbols)
	for i := 0; i < numCodeLen; i++ {
		v, ok := br.ReadBits(3)
		if !ok {
			return nil, nil, errs.ErrMalformedPayload
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}
	if err := validateLengths(clLengths, 7); err != nil {
		return nil, nil, err
	}
	clTable := newDecodeTable(clLengths)

	allLengths := make([]int, 0, numLitLen+numDist)
	for len(allLengths) < numLitLen+numDist {
		sym, ok := clTable.decode(br)
		if !ok {
			return nil, nil, errs.ErrMalformedPayload
		}
		switch {
		case sym <= 15:
			allLengths = append(allLengths, sym)
		case sym == 16:
			if len(allLengths) == 0 {
				return nil, nil, errs.ErrMalformedPayload
			}
			n, ok := br.ReadBits(2)
			if !ok {
				return nil, nil, errs.ErrMalformedPayload
			}
			prev := allLengths[len(allLengths)-1]
			for i := 0; i < int(n)+3; i++ {
				allLengths = append(allLengths, prev)
			}
		case sym == 17:
			n, ok := br.ReadBits(3)
			if !ok {
				return nil, nil, errs.ErrMalformedPayload
			}
			for i := 0; i < int(n)+3; i++ {
				allLengths = append(allLengths, 0)
			}
		case sym == 18:
			n, ok := br.ReadBits(7)
			if !ok {
				return nil, nil, errs.ErrMalformedPayload
			}
			for i := 0; i < int(n)+11; i++ {
				allLengths = append(allLengths, 0)
			}
		default:
			return nil, nil, errs.ErrMalformedPayload
		}
	}
	if len(allLengths) != numLitLen+numDist {
		return nil, nil, errs.ErrMalformedPayload
	}

	litLenLengths := allLengths[:numLitLen]
	distLengths := allLengths[numLitLen:]
	if err := validateLengths(litLenLengths, 15); err != nil {
		return nil, nil, err
	}
	if err := validateLengths(distLengths, 15); err != nil {
		return nil, nil, err
	}

	return newDecodeTable(litLenLengths), newDecodeTable(distLengths), nil
}
