// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symbolize resolves addresses to best-effort symbol names.
package symbolize

import "runtime"

const unknown = "(unknown)"

// Symbolizer resolves an address to a symbol name, never failing:
// an unresolved address yields "(unknown)".
type Symbolizer interface {
	Resolve(address uint64) string
}

// Default resolves addresses against the running binary's own symbol
// table via runtime.FuncForPC.
var Default Symbolizer = runtimeSymbolizer{}

type runtimeSymbolizer struct{}

// Resolve tries address directly, then address-1 to compensate for
// frames where the captured PC is a return address one byte past the
// call site, then gives up.
func (runtimeSymbolizer) Resolve(address uint64) string {
	if name, ok := lookup(address); ok {
		return name
	}
	if name, ok := lookup(address - 1); ok {
		return name
	}
	return unknown
}

func lookup(address uint64) (string, bool) {
	fn := runtime.FuncForPC(uintptr(address))
	if fn == nil {
		return "", false
	}
	return fn.Name(), true
}
