// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch holds the architecture-specific constants the renderer
// needs to lay out an address column. Adapted from the pointer-width
// and byte-order table this module's teacher (golang.org/x/debug)
// keeps for its ptrace register decoding, trimmed to the one field
// (PointerSize) a live stack renderer needs and to the architectures
// this module targets.
package arch

// Architecture describes the pointer width of the machine a trace was
// captured on.
type Architecture struct {
	// PointerSize is the size of a pointer, in bytes.
	PointerSize int
}

// HexWidth is the number of characters render should reserve for a
// hex-formatted address on this architecture: "0x" plus two hex
// digits per byte.
func (a Architecture) HexWidth() int {
	return 2 + 2*a.PointerSize
}

var AMD64 = Architecture{PointerSize: 8}
var ARM64 = Architecture{PointerSize: 8}
