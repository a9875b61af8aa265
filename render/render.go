// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render formats thread stacks into the human-readable report
// text written to a process's error stream.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/isabella232/threadstacks/arch"
	"github.com/isabella232/threadstacks/symbolize"
	"github.com/isabella232/threadstacks/threadstack"
)

// Writer is anything that accepts rendered text. Any type satisfying
// io.Writer works; the interface is named separately so callers that
// only have a "write this string somewhere" capability (e.g. a
// closure, matching spec's original write-function collaborator) can
// wrap it trivially.
type Writer interface {
	Write(p []byte) (int, error)
}

// Group is one set of threads sharing an identical stack trace.
type Group struct {
	Trace threadstack.ThreadStack
	TIDs  []int
}

// Stack renders a single ThreadStack's frames, one per line, using sym
// to resolve symbols and a the architecture's pointer width for the
// hex address column. The first line is prefixed "PC:"; subsequent
// lines are indented four spaces.
func Stack(w Writer, s *threadstack.ThreadStack, sym symbolize.Symbolizer, a arch.Architecture) {
	width := a.HexWidth()
	s.VisitWithSymbol(sym, func(i int, f threadstack.Frame, name string) {
		prefix := "    "
		if i == 0 {
			prefix = "PC: "
		}
		size := "(unknown)"
		if f.Size > 0 {
			size = strconv.FormatInt(f.Size, 10)
		}
		addr := fmt.Sprintf("0x%0*x", width-2, f.Address)
		fmt.Fprintf(w, "%s@ %s  %s  %s\n", prefix, addr, size, name)
	})
}

// Groups renders a list of Groups in the order given, one "Threads:"
// block per group, matching the framing spec.md describes for a
// CollectionResult list.
func Groups(w Writer, groups []Group, sym symbolize.Symbolizer, a arch.Architecture) {
	for _, g := range groups {
		if len(g.TIDs) == 0 {
			fmt.Fprintln(w, "No Threads")
			continue
		}
		tids := make([]string, len(g.TIDs))
		for i, tid := range g.TIDs {
			tids[i] = strconv.Itoa(tid)
		}
		fmt.Fprintf(w, "Threads: %s\n", strings.Join(tids, ", "))
		fmt.Fprintln(w, "Stack trace:")
		trace := g.Trace
		Stack(w, &trace, sym, a)
		fmt.Fprintln(w)
	}
}
