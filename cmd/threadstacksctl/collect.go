// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isabella232/threadstacks/collector"
)

func newCollectCmd() *cobra.Command {
	var deadline int
	var workers int
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one in-process stack collection and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			stop := spinDemoGoroutines(workers)
			defer stop()

			c := &collector.Collector{Config: collector.Config{DeadlineSeconds: deadline}}
			report, err := collectReport(c)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().IntVar(&deadline, "deadline-seconds", 5, "how long to wait for all threads to ack")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of demo goroutines to spin up before collecting")
	return cmd
}
