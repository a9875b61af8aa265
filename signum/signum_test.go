// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signum

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestInstallInternalSurvivesDelivery(t *testing.T) {
	ch := InstallInternal()
	if err := unix.Tgkill(unix.Getpid(), unix.Gettid(), Internal); err != nil {
		t.Fatalf("Tgkill: %v", err)
	}
	// If InstallInternal had not registered a handler, the process
	// would already be dead by the time this line runs.
	<-ch
}

func TestInstallInternalReturnsStableChannel(t *testing.T) {
	a := InstallInternal()
	b := InstallInternal()
	if a != b {
		t.Fatal("InstallInternal returned different channels across calls")
	}
}

func TestInstallExternalReturnsStableChannel(t *testing.T) {
	a := InstallExternal()
	b := InstallExternal()
	if a != b {
		t.Fatal("InstallExternal returned different channels across calls")
	}
}
