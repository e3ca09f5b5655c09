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
	"sync"

	"github.com/gozipkit/gozipkit/errs"
)

// Method is a ZIP "compression method" field value (APPNOTE 4.4.5).
type Method uint16

// Method codes this module is aware of. Not every one has a registered
// backend; MethodLZFSE in particular is recognized by the container parser
// but has no decoder, since no maintained Go implementation exists.
const (
	MethodStore   Method = 0
	MethodDeflate Method = 8
	MethodLZMA    Method = 14
	MethodLZ4     Method = 94
	MethodBrotli  Method = 97
	MethodZstd    Method = 93
	MethodLZFSE   Method = 100
)

var (
	registryMu sync.RWMutex
	registry   = make(map[Method]Codec)
)

// RegisterCodec makes a codec available under a method code. Backend files
// call this from an init func so that importing the codec package (or any
// package that imports a backend) is enough to make the method available.
func RegisterCodec(method Method, c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[method] = c
}

// GetCodec looks up the codec registered for method, returning
// errs.ErrUnsupportedMethod if none is registered.
func GetCodec(method Method) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[method]
	if !ok {
		return nil, errs.ErrUnsupportedMethod
	}
	return c, nil
}

// Registered reports whether method has a backend compiled in, without
// allocating a codec instance.
func Registered(method Method) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[method]
	return ok
}
