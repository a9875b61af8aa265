// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/isabella232/threadstacks/collector"
)

func newWatchCmd() *cobra.Command {
	var deadline int
	var workers int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactively re-run a collection on each Enter press",
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := spinDemoGoroutines(workers)
			defer stop()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "threadstacks> ",
				HistoryFile: "",
			})
			if err != nil {
				return fmt.Errorf("starting readline: %w", err)
			}
			defer rl.Close()

			c := &collector.Collector{Config: collector.Config{DeadlineSeconds: deadline}}
			fmt.Fprintln(cmd.OutOrStdout(), "press Enter to collect, Ctrl-D to quit")
			for {
				_, err := rl.Readline()
				if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
					return nil
				}
				if err != nil {
					return err
				}
				report, err := collectReport(c)
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), err)
					continue
				}
				fmt.Fprint(cmd.OutOrStdout(), report)
			}
		},
	}
	cmd.Flags().IntVar(&deadline, "deadline-seconds", 5, "how long to wait for all threads to ack")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of demo goroutines to spin up before collecting")
	return cmd
}
