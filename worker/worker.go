// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package worker performs the stack capture triggered by the
// coordinator's internal signal. Go gives user code no way to run
// handler logic on the specific OS thread a signal interrupted (see
// SPEC_FULL.md §0), so unlike the C implementation this package is
// modeled on, it never tries to fill in one thread's stack per
// delivery. Instead, the first delivery of the internal signal during
// a collection captures every live goroutine in the process in one
// runtime.GoroutineProfile call — the structured, Frame{Address,Size}
// shaped analogue of the pack's own SIGUSR1-triggers-a-dump handlers
// (other_examples' moby-moby__stackdump.go and
// couchbase-sync_gateway__stack_trace_handler_uinx.go both use
// signal.Notify plus an unconditional runtime.Stack(buf, true) dump of
// every goroutine, with no per-goroutine opt-in). This is the Go-native
// substitute for spec.md's async-signal-safe InternalHandler: it
// requires no call-site instrumentation and captures real, unmodified
// goroutines, not only ones a caller remembered to register.
package worker

import (
	"log"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/isabella232/threadstacks/signum"
	"github.com/isabella232/threadstacks/threadstack"
)

// Capture is one pending process-wide snapshot request: where the
// resulting stacks land and the borrowed ack descriptor used to signal
// completion. It plays spec.md's TraceSlot role, owned by the
// coordinator exactly as TraceSlot is: created and armed before any
// signal is queued, read only after the ack arrives.
type Capture struct {
	// Stacks is filled in by the signal delivery that claims this
	// Capture. It must not be read before ack has fired.
	Stacks []threadstack.ThreadStack

	ack int
}

// NewCapture returns a Capture that acks on the write end of ack.
func NewCapture(ack int) *Capture {
	return &Capture{ack: ack}
}

var (
	mu      sync.Mutex
	pending *Capture
	once    sync.Once
)

// Arm publishes c as the capture the next internal-signal delivery
// should perform, and, on first use, starts the goroutine that
// consumes that signal. Only one Capture is pending at a time: Arm
// replaces any Capture still pending, and the replaced one is never
// performed and never acks.
func Arm(c *Capture) {
	once.Do(start)
	mu.Lock()
	pending = c
	mu.Unlock()
}

// Signal queues the internal signal to tid via tgkill, the exact-thread
// kernel primitive spec.md §6 requires ("not the process-group-wide
// one"). In this port that primitive's job is reduced to nudging a
// thread that might be parked in a blocking syscall back to userspace
// (spec.md's rationale for using tgkill at all): the capture itself
// does not depend on which thread, if any, is interrupted, because
// runtime.GoroutineProfile walks every goroutine's saved state
// regardless of which OS thread happens to be running it at the
// moment. Signal reports whether the kernel accepted the signal; false
// is the tolerated DeliveryFailure of spec.md §4.5 step 3 — typically
// because the thread died between enumeration and signalling.
func Signal(pid, tid int) bool {
	return unix.Tgkill(pid, tid, signum.Internal) == nil
}

func start() {
	ch := signum.InstallInternal()
	go func() {
		for range ch {
			consume()
		}
	}()
}

// consume runs the capture for at most one Capture per delivery:
// whichever delivery of the internal signal observes a non-nil
// pending Capture claims it, performs the single process-wide
// snapshot, and acks. Every other delivery during the same collection
// (tgkill was queued to several tids; each acceptance raises its own
// signal) finds pending already cleared and is a no-op — a process-
// wide snapshot already covers every thread in a single pass, so only
// one delivery needs to do any work.
func consume() {
	mu.Lock()
	c := pending
	pending = nil
	mu.Unlock()
	if c == nil {
		return
	}
	c.Stacks = snapshot()
	n, err := unix.Write(c.ack, []byte{'y'})
	if err != nil || n != 1 {
		log.Printf("threadstacks: short or failed ack write: n=%d err=%v", n, err)
	}
}

// snapshot captures every live goroutine's program counters via
// runtime.GoroutineProfile, growing the buffer until it's large enough
// — the same retry-until-it-fits idiom the runtime's own profile
// handlers use. Go assigns no externally visible id to an arbitrary
// goroutine snapshot, so each ThreadStack's TID here is its own
// position in profile order: stable and unique for the one collection
// that produced it, which is all spec.md's equality and grouping
// operate over.
func snapshot() []threadstack.ThreadStack {
	n := runtime.NumGoroutine()
	var records []runtime.StackRecord
	for {
		records = make([]runtime.StackRecord, n+16)
		var ok bool
		n, ok = runtime.GoroutineProfile(records)
		if ok {
			records = records[:n]
			break
		}
	}

	stacks := make([]threadstack.ThreadStack, len(records))
	for i, r := range records {
		stacks[i] = threadstack.New(i + 1)
		for _, pc := range r.Stack() {
			if !stacks[i].AddFrame(uint64(pc), 0) {
				break
			}
		}
	}
	return stacks
}
