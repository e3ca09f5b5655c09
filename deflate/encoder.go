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

import "github.com/gozipkit/gozipkit/leio"

// Encoder produces a raw DEFLATE stream (RFC 1951, no zlib/gzip wrapper).
//
// Like Decoder, Encoder buffers its entire input across calls and does the
// actual compression once FlushFinish arrives, since every caller in this
// module hands over a whole in-memory ZIP entry body. Level 0 always emits
// stored blocks; levels 1-9 run greedy LZ77 against a single most-recent-
// match hash chain and pack the result with the fixed Huffman tables —
// dynamic per-block tables are left to the decoder side of this package,
// since a single fixed-table pass already gets most of the ratio for the
// structured archive payloads this module targets.
type Encoder struct {
	level   int
	pending []byte
	out     []byte
	outPos  int
	done    bool
}

// NewEncoder returns a raw DEFLATE encoder at the given level (0-9, zlib
// convention: 0 is store-only, -1 selects a default mid-range level).
func NewEncoder(level int) *Encoder {
	if level < 0 {
		level = 6
	}
	if level > 9 {
		level = 9
	}
	return &Encoder{level: level}
}

func (e *Encoder) Step(src, dst []byte, flush stepFlush) (consumed, produced int, result stepResultT, err error) {
	if e.out == nil && !e.done {
		e.pending = append(e.pending, src...)
		consumed = len(src)
		if flush != flushFinish {
			return consumed, 0, resultProgress, nil
		}
		if e.level == 0 {
			e.out = deflateStored(e.pending)
		} else {
			e.out = deflateCompressed(e.pending, e.level)
		}
		e.pending = nil
	} else {
		consumed = 0
	}

	n := copy(dst, e.out[e.outPos:])
	e.outPos += n
	if e.outPos >= len(e.out) {
		e.done = true
		return consumed, n, resultStreamEnd, nil
	}
	return consumed, n, resultNeedsMoreOutput, nil
}

func (e *Encoder) End() error {
	e.pending = nil
	e.out = nil
	return nil
}

// maxStoredBlockLen is the 16-bit length field's ceiling for a stored block.
const maxStoredBlockLen = 65535

// deflateStored packs data as one or more stored (uncompressed) blocks.
func deflateStored(data []byte) []byte {
	bw := leio.NewBitWriter()
	if len(data) == 0 {
		bw.WriteBits(1, 1) // final
		bw.WriteBits(0, 2) // stored
		bw.AlignByte()
		bw.WriteBits(0, 16)
		bw.WriteBits(0xFFFF, 16)
		return bw.Flush()
	}
	for off := 0; off < len(data); {
		chunk := data[off:]
		if len(chunk) > maxStoredBlockLen {
			chunk = chunk[:maxStoredBlockLen]
		}
		final := off+len(chunk) >= len(data)
		if final {
			bw.WriteBits(1, 1)
		} else {
			bw.WriteBits(0, 1)
		}
		bw.WriteBits(0, 2)
		bw.AlignByte()
		length := uint16(len(chunk))
		bw.WriteBits(uint32(length), 16)
		bw.WriteBits(uint32(^length), 16)
		bw.WriteRawBytes(chunk)
		off += len(chunk)
	}
	return bw.Flush()
}

// hashBits sizes the LZ77 match-finding hash table; 3-byte prefixes are
// hashed into a table of 2^hashBits single-candidate chains.
const hashBits = 15
const hashSize = 1 << hashBits

func hash3(b0, b1, b2 byte) uint32 {
	return ((uint32(b0) << 16) | (uint32(b1) << 8) | uint32(b2)) * 2654435761 >> (32 - hashBits)
}

// deflateCompressed runs greedy LZ77 over data and packs the result as one
// fixed-Huffman block.
func deflateCompressed(data []byte, level int) []byte {
	litLenLengths := fixedLitLenLengths()
	distLengths := fixedDistLengths()
	litLenCodes := buildCanonicalCodes(litLenLengths)
	distCodes := buildCanonicalCodes(distLengths)

	niceLen := maxMatchLen
	if level < 9 {
		niceLen = 32 + level*20
		if niceLen > maxMatchLen {
			niceLen = maxMatchLen
		}
	}

	bw := leio.NewBitWriter()
	bw.WriteBits(1, 1) // final, single block
	bw.WriteBits(1, 2) // fixed Huffman

	head := make([]int32, hashSize)
	for i := range head {
		head[i] = -1
	}

	i := 0
	n := len(data)
	for i < n {
		var bestLen, bestDist int
		if i+minMatchLen <= n {
			h := hash3(data[i], data[i+1], data[i+2])
			cand := head[h]
			if cand >= 0 {
				dist := i - int(cand)
				if dist > 0 && dist <= windowSize {
					matchLen := matchLength(data, int(cand), i, n, niceLen)
					if matchLen >= minMatchLen {
						bestLen = matchLen
						bestDist = dist
					}
				}
			}
			head[h] = int32(i)
		}

		if bestLen >= minMatchLen {
			lengthSym, lengthExtra, lengthExtraBitsN := encodeLength(bestLen)
			writeSymbol(bw, litLenCodes[lengthSym], litLenLengths[lengthSym])
			if lengthExtraBitsN > 0 {
				bw.WriteBits(lengthExtra, lengthExtraBitsN)
			}
			distSym, distExtra, distExtraBitsN := encodeDistance(bestDist)
			writeSymbol(bw, distCodes[distSym], distLengths[distSym])
			if distExtraBitsN > 0 {
				bw.WriteBits(distExtra, distExtraBitsN)
			}

			end := i + bestLen
			for i++; i < end && i+minMatchLen <= n; i++ {
				h := hash3(data[i], data[i+1], data[i+2])
				head[h] = int32(i)
			}
			i = end
		} else {
			writeSymbol(bw, litLenCodes[data[i]], litLenLengths[data[i]])
			i++
		}
	}
	writeSymbol(bw, litLenCodes[endOfBlockSymbol], litLenLengths[endOfBlockSymbol])

	return bw.Flush()
}

// matchLength returns how many bytes at data[cur:] repeat data[cand:],
// capped by the end of the buffer and by niceLen.
func matchLength(data []byte, cand, cur, n, niceLen int) int {
	max := n - cur
	if max > niceLen {
		max = niceLen
	}
	l := 0
	for l < max && data[cand+l] == data[cur+l] {
		l++
	}
	return l
}

// encodeLength maps a match length to its length-code symbol and extra bits.
func encodeLength(length int) (symbol int, extra uint32, extraBits int) {
	for idx := len(lengthBase) - 1; idx >= 0; idx-- {
		if length >= lengthBase[idx] {
			return 257 + idx, uint32(length - lengthBase[idx]), lengthExtraBits[idx]
		}
	}
	return 257, 0, 0
}

// encodeDistance maps a match distance to its distance-code symbol and
// extra bits.
func encodeDistance(dist int) (symbol int, extra uint32, extraBits int) {
	for idx := len(distBase) - 1; idx >= 0; idx-- {
		if dist >= distBase[idx] {
			return idx, uint32(dist - distBase[idx]), distExtraBits[idx]
		}
	}
	return 0, 0, 0
}

// CompressBound returns a size that fits the worst-case output of
// deflateStored for n input bytes: the ceiling when compression cannot help
// (incompressible or tiny input), used by callers sizing an output buffer.
func CompressBound(n int) int {
	blocks := n/maxStoredBlockLen + 1
	return n + blocks*5 + 16
}
