// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/dacapoday/memtrack/heap"
)

// Report writes the allocations made at or after bookmark since that are still live.
func (t *Tracker) Report(w io.Writer, since uint64) error {
	leaks := t.Leaks(since)

	var total uint64
	for _, a := range leaks {
		total += a.Bytes
	}
	if _, err := fmt.Fprintf(w, "session %s: %d live allocations, %s\n",
		t.session, len(leaks), humanize.IBytes(total)); err != nil {
		return err
	}
	if len(leaks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "HEAP\tBLOCK\tSIZE\tSITE\tFUNCTION\tBOOKMARK\tSTATE")
	for _, a := range leaks {
		state := "ok"
		if !a.Intact {
			state = "corrupted"
		}
		fmt.Fprintf(tw, "%s\t%#x\t%s\t%s\t%s\t%d\t%s\n",
			a.Heap, uint64(a.Block), humanize.IBytes(a.Bytes), orDash(site(a)), orDash(a.Function), a.Bookmark, state)
	}
	return tw.Flush()
}

func site(a heap.Allocation) string {
	if a.File == "" {
		if a.Line == 0 {
			return ""
		}
		return ":" + strconv.FormatUint(uint64(a.Line), 10)
	}
	if a.Line == 0 {
		return filepath.Base(a.File)
	}
	return filepath.Base(a.File) + ":" + strconv.FormatUint(uint64(a.Line), 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
