// Copyright 2024 The Threadstacks Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"time"

	"github.com/isabella232/threadstacks/arch"
	"github.com/isabella232/threadstacks/collector"
	"github.com/isabella232/threadstacks/render"
	"github.com/isabella232/threadstacks/symbolize"
)

// spinDemoGoroutines starts n goroutines sitting in a busy loop, so a
// same-process collect/watch has more than just the CLI's own
// goroutine to show in its report. The capture itself (package worker)
// sees every goroutine in the process regardless, demo or not; these
// exist only to make the rendered output more interesting.
func spinDemoGoroutines(n int) (stop func()) {
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			for {
				select {
				case <-done:
					return
				default:
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}
	return func() { close(done) }
}

// collectReport runs one collection against this process and renders
// it the same way dumpservice's service thread does.
func collectReport(c *collector.Collector) (string, error) {
	results, err := c.Collect()
	if err != nil {
		return "", err
	}
	groups := make([]render.Group, len(results))
	for i, r := range results {
		groups[i] = render.Group{Trace: r.Trace, TIDs: r.TIDs}
	}
	var sb strings.Builder
	render.Groups(&sb, groups, symbolize.Default, arch.AMD64)
	return sb.String(), nil
}
