package header

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/memtrack"
)

// optional is every field outside Required.
var optional = memtrack.All.Without(memtrack.Required)

// supersets enumerates every FieldSet that contains Required.
func supersets() []memtrack.FieldSet {
	var sets []memtrack.FieldSet
	for sub := optional; ; sub = (sub - 1) & optional {
		sets = append(sets, memtrack.Required|sub)
		if sub == 0 {
			break
		}
	}
	return sets
}

func TestSupersets(t *testing.T) {
	require.Len(t, supersets(), 1<<optional.Len())
}

func TestLayoutDefault(t *testing.T) {
	layout := New(Platform64)

	require.Equal(t, 0, layout.Size())
	require.False(t, layout.Ready())
	require.Equal(t, memtrack.Required, layout.Fields())
	for f := range memtrack.Field(memtrack.NumFields) {
		require.Zero(t, layout.Offset(f), f.String())
	}
}

func TestLayoutRequired(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.Required))

	want := map[memtrack.Field]int{
		memtrack.MemoryBlock: 0,
		memtrack.MemoryBytes: 8,
		memtrack.Heap:        16,
		memtrack.Next:        24,
		memtrack.Prev:        32,
	}
	for f, off := range want {
		require.Equal(t, off, layout.Offset(f), f.String())
	}
	require.Equal(t, 40, layout.Size())
}

func TestLayoutAll(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.All))

	// the signature slot is pointer wide, its value is 32 bits
	sizes := []int{8, 8, 8, 4, 8, 8, 8, 8, 8, 8, 8, 8}
	off := 0
	for f := range memtrack.Field(memtrack.NumFields) {
		require.Equal(t, sizes[f], layout.FieldSize(f), f.String())
		require.Equal(t, off, layout.Offset(f), f.String())
		off += sizes[f]
	}
	require.Equal(t, 56, layout.Offset(memtrack.Signature))
	require.Equal(t, 64, layout.Offset(memtrack.Bookmark))
	require.Equal(t, 92, layout.Size())
}

func TestLayoutSignatureSlot(t *testing.T) {
	for _, platform := range []Platform{Platform64, Platform32} {
		require.Equal(t, platform.PointerSize, platform.FieldSize(memtrack.Signature))
		require.Equal(t, 4, platform.ValueSize(memtrack.Signature))
		require.Equal(t, 4, platform.ValueSize(memtrack.Line))
		require.Equal(t, platform.SizeSize, platform.ValueSize(memtrack.Bookmark))
	}

	layout := New(Platform32)
	require.True(t, layout.Initialize(memtrack.All))
	require.Equal(t, 48, layout.Size())
}

func TestLayoutAllAligned(t *testing.T) {
	layout := New(Platform64, WithAlignment())
	require.True(t, layout.Initialize(memtrack.All))

	want := []int{0, 8, 16, 24, 32, 40, 48, 56, 64, 72, 80, 88}
	for f := range memtrack.Field(memtrack.NumFields) {
		require.Equal(t, want[f], layout.Offset(f), f.String())
		require.Zero(t, layout.Offset(f)%layout.FieldSize(f), f.String())
	}
	require.Equal(t, 96, layout.Size())
}

func TestLayoutAlignedTailPadding(t *testing.T) {
	layout := New(Platform64, WithAlignment())
	require.True(t, layout.Initialize(memtrack.Required|memtrack.Bit(memtrack.Signature)))

	// signature sits between bytes and heap and forces 4 bytes of padding
	require.Equal(t, 16, layout.Offset(memtrack.Signature))
	require.Equal(t, 24, layout.Offset(memtrack.Heap))
	require.Equal(t, 48, layout.Size())
}

func TestLayoutPlatform32(t *testing.T) {
	layout := New(Platform32)
	require.True(t, layout.Initialize(memtrack.Required))

	require.Equal(t, 0, layout.Offset(memtrack.MemoryBlock))
	require.Equal(t, 4, layout.Offset(memtrack.MemoryBytes))
	require.Equal(t, 8, layout.Offset(memtrack.Heap))
	require.Equal(t, 12, layout.Offset(memtrack.Next))
	require.Equal(t, 16, layout.Offset(memtrack.Prev))
	require.Equal(t, 20, layout.Size())
}

func TestLayoutValidity(t *testing.T) {
	for _, platform := range []Platform{Platform64, Platform32, Native} {
		layout := New(platform)
		for _, set := range supersets() {
			require.True(t, layout.Initialize(set), set.String())
			require.Equal(t, set, layout.Fields())

			sum, end := 0, 0
			for _, f := range set.Fields() {
				off := layout.Offset(f)
				// strictly increasing and non-overlapping
				require.Equal(t, end, off, "%s in %s", f, set)
				end = off + layout.FieldSize(f)
				sum += layout.FieldSize(f)
			}
			require.Equal(t, sum, layout.Size(), set.String())
			require.Zero(t, layout.Offset(memtrack.MemoryBlock))
		}
	}
}

func TestLayoutAlignedValidity(t *testing.T) {
	layout := New(Platform64, WithAlignment())
	for _, set := range supersets() {
		require.True(t, layout.Initialize(set))

		end := 0
		for _, f := range set.Fields() {
			off := layout.Offset(f)
			require.GreaterOrEqual(t, off, end)
			require.Zero(t, off%layout.FieldSize(f))
			end = off + layout.FieldSize(f)
		}
		require.GreaterOrEqual(t, layout.Size(), end)
		require.Zero(t, layout.Size()%8)
	}
}

func TestLayoutRejectEmpty(t *testing.T) {
	layout := New(Platform64)
	require.False(t, layout.Initialize(0))

	require.Equal(t, 0, layout.Size())
	require.Equal(t, memtrack.Required, layout.Fields())
	for f := range memtrack.Field(memtrack.NumFields) {
		require.Zero(t, layout.Offset(f))
	}
}

func TestLayoutRejectKeepsState(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.All))

	size := layout.Size()
	var offsets [memtrack.NumFields]int
	for f := range memtrack.Field(memtrack.NumFields) {
		offsets[f] = layout.Offset(f)
	}

	for _, f := range memtrack.Required.Fields() {
		require.False(t, layout.Initialize(memtrack.All.Without(memtrack.Bit(f))), f.String())

		require.Equal(t, size, layout.Size())
		require.Equal(t, memtrack.All, layout.Fields())
		for g := range memtrack.Field(memtrack.NumFields) {
			require.Equal(t, offsets[g], layout.Offset(g))
		}
	}
}

func TestLayoutTerminate(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.All))
	layout.Terminate()

	require.Equal(t, 0, layout.Size())
	require.False(t, layout.Ready())
	for f := range memtrack.Field(memtrack.NumFields) {
		require.Zero(t, layout.Offset(f))
	}

	// Required still reads as enabled after Terminate.
	require.True(t, layout.IsEnabled(memtrack.Required))
	require.False(t, layout.IsEnabled(memtrack.Bit(memtrack.FileName)))

	require.True(t, layout.Initialize(memtrack.Required))
	require.Equal(t, 40, layout.Size())
}

func TestLayoutIsEnabledAny(t *testing.T) {
	layout := New(Platform64)
	require.True(t, layout.Initialize(memtrack.Required|memtrack.Bit(memtrack.Line)))

	require.True(t, layout.IsEnabled(memtrack.Bit(memtrack.Line)))
	// any bit is enough
	require.True(t, layout.IsEnabled(memtrack.Fields(memtrack.Line, memtrack.FileName)))
	require.False(t, layout.IsEnabled(memtrack.Fields(memtrack.FileName, memtrack.DateTime)))
	require.False(t, layout.IsEnabled(0))
}

func TestPlatformValidate(t *testing.T) {
	require.NoError(t, Native.Validate())
	require.NoError(t, Platform32.Validate())
	require.ErrorIs(t, Platform{PointerSize: 8, SizeSize: 2, TimeSize: 8}.Validate(), memtrack.ErrInvalidPlatform)
}
