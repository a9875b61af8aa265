// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package threadstack

import "testing"

func TestAddFrameBounds(t *testing.T) {
	s := New(123)
	for i := 0; i < MaxDepth; i++ {
		if !s.AddFrame(uint64(i), 0) {
			t.Fatalf("AddFrame(%d) returned false before MaxDepth", i)
		}
	}
	if s.AddFrame(999, 0) {
		t.Fatal("AddFrame succeeded past MaxDepth")
	}
	if s.Depth != MaxDepth {
		t.Fatalf("Depth = %d, want %d", s.Depth, MaxDepth)
	}
}

func TestVisitOrder(t *testing.T) {
	s := New(1)
	s.AddFrame(0x10, 8)
	s.AddFrame(0x20, 16)

	var got []uint64
	s.Visit(func(i int, f Frame) { got = append(got, f.Address) })
	if len(got) != 2 || got[0] != 0x10 || got[1] != 0x20 {
		t.Fatalf("Visit order = %v, want callee-first [0x10 0x20]", got)
	}
}

type fakeSymbolizer struct{}

func (fakeSymbolizer) Resolve(addr uint64) string { return "fn" }

func TestVisitWithSymbol(t *testing.T) {
	s := New(1)
	s.AddFrame(0x10, 0)
	var names []string
	s.VisitWithSymbol(fakeSymbolizer{}, func(i int, f Frame, name string) {
		names = append(names, name)
	})
	if len(names) != 1 || names[0] != "fn" {
		t.Fatalf("VisitWithSymbol names = %v", names)
	}
}

func TestEqualIgnoresSize(t *testing.T) {
	a := New(1)
	a.AddFrame(0x10, 8)
	b := New(2)
	b.AddFrame(0x10, 999)
	if !a.Equal(&b) {
		t.Fatal("Equal should ignore Size and TID")
	}

	c := New(3)
	c.AddFrame(0x11, 8)
	if a.Equal(&c) {
		t.Fatal("Equal should compare addresses")
	}
}

func TestEqualDifferentDepth(t *testing.T) {
	a := New(1)
	a.AddFrame(0x10, 0)
	b := New(2)
	b.AddFrame(0x10, 0)
	b.AddFrame(0x20, 0)
	if a.Equal(&b) {
		t.Fatal("stacks of different depth must not be Equal")
	}
}
