// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package worker

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func waitAck(t *testing.T, fd int) {
	t.Helper()
	buf := make([]byte, 1)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := unix.Read(fd, buf)
		if n == 1 {
			return
		}
		if err != nil && err != unix.EAGAIN {
			continue
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("ack not received within deadline")
}

func TestArmAndSignalCapturesEveryGoroutine(t *testing.T) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	blocked := make(chan struct{})
	go func() {
		close(blocked)
		<-stop
	}()
	<-blocked

	c := NewCapture(fds[1])
	Arm(c)
	if !Signal(os.Getpid(), unix.Gettid()) {
		t.Fatal("Signal reported failure for the calling thread")
	}

	waitAck(t, fds[0])

	if len(c.Stacks) < 2 {
		t.Fatalf("Stacks has %d entries, want at least 2 (this goroutine plus the blocked one)", len(c.Stacks))
	}
	for _, s := range c.Stacks {
		if s.Depth == 0 {
			t.Fatalf("goroutine %d has an empty stack", s.TID)
		}
	}
}

func TestSignalDeadTidFails(t *testing.T) {
	// A tid that does not exist in this process.
	if Signal(os.Getpid(), 1<<30) {
		t.Fatal("Signal succeeded against a nonexistent tid")
	}
}

func TestOnlyOneDeliveryPerformsTheCapture(t *testing.T) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}

	c := NewCapture(fds[1])
	Arm(c)

	pid, tid := os.Getpid(), unix.Gettid()
	for i := 0; i < 5; i++ {
		Signal(pid, tid)
	}

	waitAck(t, fds[0])
	if len(c.Stacks) == 0 {
		t.Fatal("expected a non-empty capture")
	}

	// consume() clears pending on the first delivery it services, so
	// the other redundant deliveries raised above must have been
	// no-ops: no further ack bytes should show up for this Capture.
	time.Sleep(50 * time.Millisecond)
	buf := make([]byte, 8)
	n, _ := unix.Read(fds[0], buf)
	if n != 0 {
		t.Fatalf("expected no further acks for this Capture, got %d bytes", n)
	}
}
