// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symbolize

import (
	"runtime"
	"testing"
)

func callerPC() uintptr {
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:])
	return pcs[0]
}

func TestResolveDirectHit(t *testing.T) {
	pc := callerPC()
	name := Default.Resolve(uint64(pc))
	if name == unknown {
		t.Fatalf("Resolve(%x) = %q, want a real symbol", pc, name)
	}
}

func TestResolveAddressPastReturnAddress(t *testing.T) {
	pc := callerPC()
	// pc is a return address inside this function; pc+1 still lies
	// inside it, so Resolve must find a real symbol for it too.
	name := Default.Resolve(uint64(pc) + 1)
	if name == unknown {
		t.Fatalf("Resolve(%x) = %q, want a real symbol", pc+1, name)
	}
}

func TestResolveUnknown(t *testing.T) {
	if got := Default.Resolve(0); got != unknown {
		t.Fatalf("Resolve(0) = %q, want %q", got, unknown)
	}
}
