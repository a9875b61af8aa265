// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command threadstacksctl is a small command-line front end for the
// threadstacks collector, in the same subcommand-dispatch shape as the
// teacher's own viewcore tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "threadstacksctl",
		Short: "Inspect and trigger in-process stack trace collection",
	}
	root.AddCommand(newDumpCmd())
	root.AddCommand(newCollectCmd())
	root.AddCommand(newWatchCmd())
	return root
}
