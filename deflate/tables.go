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

// Package deflate implements the RFC 1951 DEFLATE codec used by ZIP method
// 8: LZ77 back-references combined with canonical Huffman coding, built from
// scratch over a 32 KiB sliding window.
package deflate

// lengthBase and lengthExtraBits give the base value and extra-bit count
// for length codes 257..285 (RFC 1951 §3.2.5).
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
	15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [29]int{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase and distExtraBits give the base value and extra-bit count for
// distance codes 0..29.
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = [30]int{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// codeLengthOrder is the order in which code-length code lengths appear in
// a dynamic Huffman block header (RFC 1951 §3.2.7).
var codeLengthOrder = [19]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

const (
	maxLitLenSymbols  = 288
	maxDistSymbols    = 32
	maxCodeLenSymbols = 19
	endOfBlockSymbol  = 256
	minMatchLen       = 3
	maxMatchLen       = 258
	windowSize        = 32 * 1024
)

// fixedLitLenLengths builds the fixed literal/length code lengths specified
// in RFC 1951 §3.2.6.
func fixedLitLenLengths() []int {
	lens := make([]int, maxLitLenSymbols)
	for i := 0; i < 144; i++ {
		lens[i] = 8
	}
	for i := 144; i < 256; i++ {
		lens[i] = 9
	}
	for i := 256; i < 280; i++ {
		lens[i] = 7
	}
	for i := 280; i < 288; i++ {
		lens[i] = 8
	}
	return lens
}

// fixedDistLengths builds the fixed distance code lengths: all 5 bits.
func fixedDistLengths() []int {
	lens := make([]int, maxDistSymbols)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}
