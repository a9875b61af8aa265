// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import "testing"

func TestHexWidth(t *testing.T) {
	if got, want := AMD64.HexWidth(), 18; got != want {
		t.Fatalf("AMD64.HexWidth() = %d, want %d", got, want)
	}
	if got, want := ARM64.HexWidth(), 18; got != want {
		t.Fatalf("ARM64.HexWidth() = %d, want %d", got, want)
	}
}
