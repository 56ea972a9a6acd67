package memtrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldBits(t *testing.T) {
	// bit positions are part of the header ABI
	require.Equal(t, 12, NumFields)
	require.Equal(t, FieldSet(0b1110_0000_0011), Required)
	require.Equal(t, FieldSet(0xfff), All)
	require.Equal(t, FieldSet(1<<7), Bit(Signature))
	require.Equal(t, []Field{MemoryBlock, MemoryBytes, Heap, Next, Prev}, Required.Fields())
}

func TestFieldSetOps(t *testing.T) {
	set := Fields(Line, FileName)

	require.True(t, set.Has(Line))
	require.False(t, set.Has(Heap))
	require.True(t, set.Any(Fields(Line, Heap)))
	require.False(t, set.Any(Required))
	require.True(t, All.Contains(set))
	require.False(t, set.Contains(All))
	require.Equal(t, 2, set.Len())
	require.Equal(t, Bit(Line), set.Intersect(Fields(Line, Heap)))
	require.Equal(t, Bit(FileName), set.Without(Bit(Line)))
	require.Equal(t, Required|set, Required.Union(set))
	require.Equal(t, []Field{FileName, Line}, set.Fields())
}

func TestFieldSetString(t *testing.T) {
	require.Equal(t, "none", FieldSet(0).String())
	require.Equal(t, "all", All.String())
	require.Equal(t, "required", Required.String())
	require.Equal(t, "file_name,line", Fields(Line, FileName).String())
	require.Equal(t, "back_trace_hash", BackTraceHash.String())
	require.Equal(t, "field(12)", Field(12).String())
}

func TestParseFieldSet(t *testing.T) {
	for in, want := range map[string]FieldSet{
		"":                       0,
		"all":                    All,
		"required":               Required,
		"Required, line":         Required | Bit(Line),
		"file-name,functionname": Fields(FileName, FunctionName),
		"signature,,bookmark":    Fields(Signature, Bookmark),
		"required,memory_block":  Required,
		"back_trace_hash,all":    All,
	} {
		got, err := ParseFieldSet(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseFieldSet("line,stack")
	require.ErrorIs(t, err, ErrUnknownField)
	require.Contains(t, err.Error(), "stack")
}

func TestFieldSetRoundTrip(t *testing.T) {
	for set := FieldSet(0); set <= All; set += 37 {
		got, err := ParseFieldSet(set.String())
		if set == 0 {
			// "none" is not a field name
			require.ErrorIs(t, err, ErrUnknownField)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, set, got)
	}
}
