// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dumpservice is the external-signal path of spec.md §4.6: a
// signal handler that cannot itself allocate, lock, or block hands the
// actual work off to a long-lived service goroutine, grounded in the
// teacher's own dedicated-goroutine-over-channel idiom
// (program/server/ptrace.go's ptraceRun) and in the corpus's many
// SIGUSR1-triggers-a-goroutine-dump handlers.
package dumpservice

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/isabella232/threadstacks/arch"
	"github.com/isabella232/threadstacks/collector"
	"github.com/isabella232/threadstacks/render"
	"github.com/isabella232/threadstacks/signum"
	"github.com/isabella232/threadstacks/symbolize"
)

var (
	installOnce sync.Once
	serverTGID  int
	requestCh   chan int
	requestCnt  int64
)

// requestQueueDepth bounds how many external signals can be pending
// service at once; a full queue means a dump request is dropped,
// matching spec.md's "write fails or is short ⇒ close and return".
const requestQueueDepth = 8

// Install idempotently starts the service goroutine and registers the
// external signal handler. It is safe to call from multiple
// goroutines; only the first call has any effect, matching spec.md's
// once-only ExternalHandlerState construction.
func Install() {
	installOnce.Do(func() {
		serverTGID = unix.Getpid()
		requestCh = make(chan int, requestQueueDepth)

		go serviceLoop()

		sigCh := signum.InstallExternal()
		go func() {
			for range sigCh {
				if err := Dump(); err != nil {
					log.Printf("threadstacks: external dump request dropped: %v", err)
				}
			}
		}()
	})
}

// Dump fires a dump request and discards the reply descriptor once
// opened, the fire-and-forget shape of the real external-signal
// handler (spec.md §4.6 steps 2–4): a true OS signal handler has no
// way to hand the descriptor back to whatever sent the signal.
func Dump() error {
	r, err := DumpAndWait()
	if err != nil {
		return err
	}
	return r.Close()
}

// DumpAndWait fires a dump request and returns the read end of its
// reply pipe instead of closing it. It stands in for spec.md's "the
// original sender, if it had opened the corresponding reply descriptor
// before signalling" — the one piece of the external path that, across
// real process boundaries, would need an out-of-band channel the spec
// leaves to the implementer; in-process (and in tests) this is that
// channel. Reading it to EOF blocks until the dump has been rendered
// and flushed.
func DumpAndWait() (*os.File, error) {
	if requestCh == nil {
		return nil, fmt.Errorf("threadstacks: dumpservice not installed")
	}
	if unix.Getpid() != serverTGID {
		return nil, fmt.Errorf("threadstacks: not contacting stack trace server started in a different thread group")
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], 0); err != nil {
		return nil, fmt.Errorf("threadstacks: failed to create reply pipe: %w", err)
	}
	readFD, writeFD := fds[0], fds[1]

	select {
	case requestCh <- writeFD:
	default:
		unix.Close(readFD)
		unix.Close(writeFD)
		return nil, fmt.Errorf("threadstacks: stack trace service request queue full")
	}
	return os.NewFile(uintptr(readFD), "threadstacks-reply"), nil
}

func serviceLoop() {
	runtime.LockOSThread()
	for writeFD := range requestCh {
		handleRequest(writeFD)
	}
}

func handleRequest(writeFD int) {
	defer unix.Close(writeFD)

	count := atomic.AddInt64(&requestCnt, 1)

	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		"=============================================\n"+
			"%d) Stack traces - Start \n"+
			"=============================================\n\n", count)

	results, err := collector.New().Collect()
	if err != nil {
		fmt.Fprintf(&buf, "StackTrace collection failed: %v\n", err)
	} else {
		groups := make([]render.Group, len(results))
		for i, r := range results {
			groups[i] = render.Group{Trace: r.Trace, TIDs: r.TIDs}
		}
		render.Groups(&buf, groups, symbolize.Default, arch.AMD64)
	}
	fmt.Fprintf(&buf,
		"============================================\n"+
			"%d) Stack traces - End \n"+
			"============================================\n", count)

	// Write before the deferred close (os.Stderr is unbuffered, so the
	// write is also the flush): readers of the reply fd may assert the
	// report is already in stderr once their read observes EOF.
	os.Stderr.Write(buf.Bytes())
}
