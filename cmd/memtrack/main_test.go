package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
)

func TestPrintLayout(t *testing.T) {
	layout := header.New(header.Platform64)
	require.True(t, layout.Initialize(memtrack.Required))

	var buf bytes.Buffer
	// 40 columns for a 40 byte header: one column per byte
	printLayout(&buf, layout, 72)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"fields required, 40 bytes",
		"memory_block          0      8  ########",
		"memory_bytes          8      8          ########",
		"heap                 16      8                  ########",
		"next                 24      8                          ########",
		"prev                 32      8                                  ########",
	}, lines)
}

func TestPrintLayoutAligned(t *testing.T) {
	layout := header.New(header.Platform64, header.WithAlignment())
	require.True(t, layout.Initialize(memtrack.All))

	var buf bytes.Buffer
	printLayout(&buf, layout, 0)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Equal(t, "fields all, 96 bytes, aligned", lines[0])
	require.Len(t, lines, 1+memtrack.NumFields)
	for _, line := range lines[1:] {
		require.Contains(t, line, "#")
	}
}

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range layoutFlags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(newContext(t, "--fields", "required,line", "--arch", "32", "--aligned"))
	require.NoError(t, err)
	require.Equal(t, memtrack.Required|memtrack.Bit(memtrack.Line), cfg.Fields())
	require.Equal(t, header.Platform32, cfg.Platform())
	require.True(t, cfg.Aligned())

	cfg, err = parseConfig(newContext(t))
	require.NoError(t, err)
	require.Equal(t, memtrack.All, cfg.Fields())
	require.Equal(t, header.Native, cfg.Platform())

	_, err = parseConfig(newContext(t, "--fields", "nope"))
	require.ErrorIs(t, err, memtrack.ErrUnknownField)

	for _, fields := range []string{"", " , "} {
		_, err = parseConfig(newContext(t, "--fields", fields))
		require.ErrorIs(t, err, memtrack.ErrMissingRequired, "%q", fields)
	}

	_, err = parseConfig(newContext(t, "--arch", "16"))
	require.ErrorIs(t, err, memtrack.ErrInvalidPlatform)
}
