// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/isabella232/threadstacks/signum"
)

func newDumpCmd() *cobra.Command {
	var pid int
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Ask a running process to write a stack trace report to its stderr",
		Long: `dump sends the module's external dump signal to a target process.
The target must have called dumpservice.Install(); the report appears
on the target's own stderr, bracketed by "N) Stack traces - Start/End".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid <= 0 {
				return fmt.Errorf("--pid is required and must be positive")
			}
			if err := unix.Kill(pid, signum.External); err != nil {
				return fmt.Errorf("signalling pid %d: %w", pid, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pid, "pid", 0, "target process id")
	return cmd
}
