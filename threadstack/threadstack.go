// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package threadstack holds the fixed-size stack trace of a single
// thread. Its storage is inline and append-only so that it can be
// filled in from a thread's own signal-dispatch path without
// allocating.
package threadstack

// MaxDepth bounds the number of frames a ThreadStack can hold.
const MaxDepth = 100

// Frame is one activation record: an instruction pointer and,
// when known, the byte size of the record. Size is informational
// only and is zero when the unwinder producing the frame doesn't
// expose it.
type Frame struct {
	Address uint64
	Size    int64
}

// ThreadStack is the stack trace of one thread, identified by TID. In
// a worker snapshot TID is the goroutine's 1-based position in profile
// order, not a kernel thread id. Frames are stored callee-first: index 0 is the
// innermost frame. Only the first Depth entries are meaningful.
type ThreadStack struct {
	TID    int
	frames [MaxDepth]Frame
	Depth  int
}

// New returns a ThreadStack for tid with Depth 0.
func New(tid int) ThreadStack {
	return ThreadStack{TID: tid}
}

// AddFrame appends a frame. It returns false and drops the frame if
// the stack is already at MaxDepth. Safe to call with no locking and
// no allocation.
func (s *ThreadStack) AddFrame(address uint64, size int64) bool {
	if s.Depth >= MaxDepth {
		return false
	}
	s.frames[s.Depth] = Frame{Address: address, Size: size}
	s.Depth++
	return true
}

// Reset clears the stack back to Depth 0, keeping TID.
func (s *ThreadStack) Reset() {
	s.Depth = 0
}

// Frame returns the frame at index i, which must be in [0, Depth).
func (s *ThreadStack) Frame(i int) Frame {
	return s.frames[i]
}

// Visit calls f for each frame in order, innermost first.
func (s *ThreadStack) Visit(f func(i int, frame Frame)) {
	for i := 0; i < s.Depth; i++ {
		f(i, s.frames[i])
	}
}

// Symbolizer resolves an address to a best-effort symbol name. It is
// satisfied by symbolize.Symbolizer; declared here too so ThreadStack
// doesn't need to import symbolize.
type Symbolizer interface {
	Resolve(address uint64) string
}

// VisitWithSymbol is like Visit but also resolves each frame's symbol.
func (s *ThreadStack) VisitWithSymbol(sym Symbolizer, f func(i int, frame Frame, symbol string)) {
	for i := 0; i < s.Depth; i++ {
		frame := s.frames[i]
		f(i, frame, sym.Resolve(frame.Address))
	}
}

// Equal reports whether s and other have pointwise-equal address
// arrays up to their shared depth; Size never participates.
func (s *ThreadStack) Equal(other *ThreadStack) bool {
	if s.Depth != other.Depth {
		return false
	}
	for i := 0; i < s.Depth; i++ {
		if s.frames[i].Address != other.frames[i].Address {
			return false
		}
	}
	return true
}

// Less provides a total order over stacks (depth, then addresses); it
// is not part of the equality contract, and collector's grouping does
// not use it.
func (s *ThreadStack) Less(other *ThreadStack) bool {
	if s.Depth != other.Depth {
		return s.Depth < other.Depth
	}
	for i := 0; i < s.Depth; i++ {
		if s.frames[i].Address != other.frames[i].Address {
			return s.frames[i].Address < other.frames[i].Address
		}
	}
	return false
}
