// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// memtrack inspects allocation header layouts.
//
// Usage:
//
//	memtrack layout --fields all --arch 64        # offset table
//	memtrack layout --fields required,line --aligned
//	memtrack demo --fields all --allocs 16        # allocate, free some, report leaks
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
	"github.com/dacapoday/memtrack/tracker"
)

var layoutFlags = []cli.Flag{
	&cli.StringFlag{Name: "fields", Value: "all", Usage: "Comma separated header fields, or `required` / `all`", EnvVars: []string{"MEMTRACK_FIELDS"}},
	&cli.StringFlag{Name: "arch", Value: "native", Usage: "Value widths: 32, 64 or native", EnvVars: []string{"MEMTRACK_ARCH"}},
	&cli.BoolFlag{Name: "aligned", Usage: "Align each field to its own size", EnvVars: []string{"MEMTRACK_ALIGNED"}},
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	app := &cli.App{
		Name:  "memtrack",
		Usage: "Allocation header layout tool",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				return errors.Wrap(err, "parse log level")
			}
			logrus.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "layout",
				Usage: "Print the header offset table",
				Flags: layoutFlags,
				Action: func(c *cli.Context) error {
					cfg, err := parseConfig(c)
					if err != nil {
						return err
					}
					t := tracker.New(cfg)
					if err := t.Initialize(); err != nil {
						return err
					}
					printLayout(os.Stdout, t.Layout(), termWidth())
					return nil
				},
			},
			{
				Name:  "demo",
				Usage: "Allocate through a tracker and print the leak report",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "allocs", Value: 8, Usage: "Number of allocations"},
					&cli.IntFlag{Name: "size", Value: 48, Usage: "Bytes per allocation"},
					&cli.IntFlag{Name: "capacity", Value: tracker.DefaultHeapCapacity, Usage: "Heap arena capacity in bytes"},
				}, layoutFlags...),
				Action: runDemo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func parseConfig(c *cli.Context) (tracker.Config, error) {
	fields, err := memtrack.ParseFieldSet(c.String("fields"))
	if err != nil {
		return tracker.Config{}, errors.Wrap(err, "parse --fields")
	}
	// a zero Config.FieldSet means Required, so an empty selection stops here
	if fields == 0 {
		return tracker.Config{}, errors.Wrapf(memtrack.ErrMissingRequired, "--fields %q selects nothing", c.String("fields"))
	}

	var arch header.Platform
	switch c.String("arch") {
	case "native", "":
		arch = header.Native
	case "64":
		arch = header.Platform64
	case "32":
		arch = header.Platform32
	default:
		return tracker.Config{}, errors.Wrapf(memtrack.ErrInvalidPlatform, "--arch %q", c.String("arch"))
	}

	return tracker.Config{
		FieldSet: fields,
		Align:    c.Bool("aligned"),
		Capacity: c.Int("capacity"),
		Log:      logrus.StandardLogger(),
		Arch:     &arch,
	}, nil
}

func runDemo(c *cli.Context) error {
	cfg, err := parseConfig(c)
	if err != nil {
		return err
	}
	t := tracker.New(cfg)
	if err := t.Initialize(); err != nil {
		return err
	}
	h, err := t.NewHeap("demo")
	if err != nil {
		return err
	}

	size := c.Int("size")
	var blocks []memtrack.Addr
	for i := range c.Int("allocs") {
		if i == c.Int("allocs")/2 {
			t.Bookmark()
		}
		block, err := h.Allocate(size+i, 8, memtrack.Caller(0))
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}
	// leave every third block live
	for i, block := range blocks {
		if i%3 != 0 {
			if err := h.Deallocate(block); err != nil {
				return err
			}
		}
	}
	if err := t.Verify(); err != nil {
		return err
	}

	stats := h.Stats()
	fmt.Printf("header %d bytes, arena %s of %s used\n",
		t.Layout().Size(), humanize.IBytes(uint64(stats.Used)), humanize.IBytes(uint64(stats.Capacity)))
	if err := t.Report(os.Stdout, 0); err != nil {
		return err
	}
	return t.Terminate()
}

// printLayout writes one row per enabled field with a bar scaled to width.
func printLayout(w io.Writer, layout *header.Layout, width int) {
	size := layout.Size()
	fmt.Fprintf(w, "fields %s, %d bytes", layout.Fields(), size)
	if layout.Aligned() {
		fmt.Fprint(w, ", aligned")
	}
	fmt.Fprintln(w)

	const label = 32 // "%-16s %6d %6d  " plus margin
	scale := float64(max(width-label, 8)) / float64(size)
	for _, f := range layout.Fields().Fields() {
		off, n := layout.Offset(f), layout.FieldSize(f)
		pad := int(float64(off) * scale)
		bar := max(int(float64(off+n)*scale)-pad, 1)
		fmt.Fprintf(w, "%-16s %6d %6d  %s%s\n", f, off, n,
			strings.Repeat(" ", pad), strings.Repeat("#", bar))
	}
}

func termWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return 80
}
