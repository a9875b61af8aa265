// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package signum names the two real-time signals this module reserves
// and installs the os/signal plumbing that keeps delivering them from
// terminating the process.
package signum

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

const (
	// Internal is the signal the coordinator queues to one or more
	// target threads to trigger a process-wide stack capture. It is
	// handled by package worker.
	//
	// spec.md calls this SIGRTMIN. Glibc and the Go runtime both
	// reserve the two lowest kernel real-time signals (32 and 33) on
	// Linux, so this module uses 34, the first number known to be free
	// on every glibc the corpus this port is grounded on targets,
	// rather than computing SIGRTMIN at runtime and risking a collision.
	Internal = syscall.Signal(34)

	// External is the signal an outside operator (e.g. `kill`) sends
	// to request a full-process dump. It is handled by package
	// dumpservice.
	External = syscall.Signal(35)
)

var (
	internalOnce sync.Once
	internalCh   chan os.Signal

	externalOnce sync.Once
	externalCh   chan os.Signal
)

// InstallInternal registers Internal with the Go runtime's signal
// dispatcher and returns the channel it will arrive on. A real-time
// signal nobody has called signal.Notify for terminates the process
// under its OS default disposition; tgkill still delivers it to the
// exact target thread (interrupting a blocking syscall with EINTR),
// but in this port the actual capture runs in package worker's own
// goroutine reading this channel, not on the interrupted thread. Only
// the first call starts the registration; every call, first or not,
// returns the same channel.
func InstallInternal() <-chan os.Signal {
	internalOnce.Do(func() {
		internalCh = make(chan os.Signal, 8)
		signal.Notify(internalCh, Internal)
	})
	return internalCh
}

// InstallExternal registers External with the Go runtime's signal
// dispatcher and returns the channel it will arrive on. Only the first
// call starts the registration; every call, first or not, returns the
// same channel.
func InstallExternal() <-chan os.Signal {
	externalOnce.Do(func() {
		externalCh = make(chan os.Signal, 1)
		signal.Notify(externalCh, External)
	})
	return externalCh
}
