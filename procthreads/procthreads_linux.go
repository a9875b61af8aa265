// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package procthreads lists the kernel thread ids of the current
// process. It is the default implementation of the thread-enumeration
// collaborator spec.md names but deliberately keeps out of scope:
// the collector only depends on the Lister interface, so a caller may
// substitute any source of tids (e.g. a test double) in its place.
package procthreads

import (
	"os"
	"strconv"
)

// Lister returns the set of live thread ids of the current process.
type Lister interface {
	ListThreads() ([]int, error)
}

// Default lists threads via /proc/self/task, the standard Linux way
// to enumerate the kernel threads of the calling process.
var Default Lister = procLister{}

type procLister struct{}

func (procLister) ListThreads() ([]int, error) {
	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		return nil, err
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			// /proc/self/task only ever contains numeric tids; skip
			// anything else rather than fail the whole listing.
			continue
		}
		tids = append(tids, tid)
	}
	return tids, nil
}
