//go:build debug

package header

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/memtrack"
)

func TestAssertDisabledField(t *testing.T) {
	h := newView(t, Platform64, memtrack.Required)

	require.NotPanics(t, func() { h.SetBlock(1) })
	require.Panics(t, func() { h.FileName() })
	require.Panics(t, func() { h.SetSignature(memtrack.CorruptionSignature) })
}

func TestAssertTerminated(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.Required))
	h := layout.View(make([]byte, layout.Size()))
	layout.Terminate()

	require.Panics(t, func() { h.Block() })
}

func TestAssertShortSegment(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.Required))

	require.Panics(t, func() { layout.View(make([]byte, 8)) })
}
