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

// stepFlush and stepResultT mirror package codec's FlushMode/StepResult
// without importing it: codec's deflate backend imports this package, so
// this package cannot import codec back. codec/deflate.go translates
// between the two vocabularies at the boundary.
type stepFlush int

const (
	flushNone stepFlush = iota
	flushFinish
)

type stepResultT int

const (
	resultProgress stepResultT = iota
	resultStreamEnd
	resultNeedsMoreOutput
	resultNeedsMoreInput
)

// FlushMode and StepResult are the exported spellings other packages in
// this module use to drive Decoder/Encoder without reaching into
// unexported names.
type FlushMode = stepFlush
type StepResult = stepResultT

const (
	FlushNone   = flushNone
	FlushFinish = flushFinish
)

const (
	StepProgress        = resultProgress
	StepStreamEnd       = resultStreamEnd
	StepNeedsMoreOutput = resultNeedsMoreOutput
	StepNeedsMoreInput  = resultNeedsMoreInput
)
