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

// decodeTable is a canonical Huffman decode table. Symbols are decoded one
// bit at a time, comparing the running code value against the first code of
// each length — the incremental scheme used by reference DEFLATE decoders.
type decodeTable struct {
	counts  []int // counts[n] = number of symbols with code length n
	symbols []int // symbols ordered by (length, symbol value)
	maxBits int
}

// newDecodeTable builds a decode table from a length-per-symbol array;
// lengths[i] == 0 means symbol i is unused.
func newDecodeTable(lengths []int) *decodeTable {
	maxBits := 0
	for _, l := range lengths {
		if l > maxBits {
			maxBits = l
		}
	}
	counts := make([]int, maxBits+1)
	for _, l := range lengths {
		if l > 0 {
			counts[l]++
		}
	}

	offsets := make([]int, maxBits+2)
	for i := 1; i <= maxBits; i++ {
		offsets[i+1] = offsets[i] + counts[i]
	}
	symbols := make([]int, offsets[maxBits+1])
	for sym, l := range lengths {
		if l > 0 {
			symbols[offsets[l]] = sym
			offsets[l]++
		}
	}

	return &decodeTable{counts: counts, symbols: symbols, maxBits: maxBits}
}

// decode reads one symbol from br. ok is false if the stream ran out of bits
// before a valid code was matched, or if no code of up to maxBits bits
// matches the bits read.
func (dt *decodeTable) decode(br *leio.BitReader) (symbol int, ok bool) {
	var code, first, index int
	for length := 1; length <= dt.maxBits; length++ {
		bit, got := br.ReadBit()
		if !got {
			return 0, false
		}
		code = (code << 1) | int(bit)
		count := dt.counts[length]
		if code-first < count {
			return dt.symbols[index+(code-first)], true
		}
		index += count
		first += count
		first <<= 1
	}
	return 0, false
}

// buildCanonicalCodes assigns canonical Huffman codes to each symbol from
// its code length, the standard algorithm of RFC 1951 §3.2.2. codes[i] is
// meaningless where lengths[i] == 0.
func buildCanonicalCodes(lengths []int) []uint16 {
	maxBits := 0
	for _, l := range lengths {
		if l > maxBits {
			maxBits = l
		}
	}
	blCount := make([]int, maxBits+1)
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
		}
	}

	nextCode := make([]int, maxBits+1)
	code := 0
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	codes := make([]uint16, len(lengths))
	for sym, l := range lengths {
		if l > 0 {
			codes[sym] = uint16(nextCode[l])
			nextCode[l]++
		}
	}
	return codes
}

// writeSymbol emits a Huffman code MSB-first, the bit order RFC 1951
// requires for Huffman codes specifically (as opposed to the LSB-first
// packing used for every other field).
func writeSymbol(bw *leio.BitWriter, code uint16, length int) {
	for i := length - 1; i >= 0; i-- {
		bw.WriteBits(uint32((code>>uint(i))&1), 1)
	}
}

// validateLengths rejects an over-subscribed or structurally invalid code
// length set before it's used to build a decode table.
func validateLengths(lengths []int, maxBits int) error {
	counts := make([]int, maxBits+1)
	for _, l := range lengths {
		if l < 0 || l > maxBits {
			return errs.ErrMalformedPayload
		}
		if l > 0 {
			counts[l]++
		}
	}
	left := 1
	for bits := 1; bits <= maxBits; bits++ {
		left <<= 1
		left -= counts[bits]
		if left < 0 {
			return errs.ErrMalformedPayload
		}
	}
	return nil
}
