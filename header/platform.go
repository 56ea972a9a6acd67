// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package header

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/dacapoday/memtrack"
)

// Platform holds the widths of the native value types stored in headers.
// Every width is 4 or 8 bytes.
type Platform struct {
	PointerSize int // addresses and handles
	SizeSize    int // sizes, hashes and bookmarks
	TimeSize    int // seconds since the Unix epoch
}

var (
	// Native describes the running process.
	Native = Platform{
		PointerSize: int(unsafe.Sizeof(uintptr(0))),
		SizeSize:    int(unsafe.Sizeof(uint(0))),
		TimeSize:    8,
	}
	Platform64 = Platform{PointerSize: 8, SizeSize: 8, TimeSize: 8}
	Platform32 = Platform{PointerSize: 4, SizeSize: 4, TimeSize: 4}
)

// Validate reports ErrInvalidPlatform if a width is not 4 or 8.
func (p Platform) Validate() error {
	for _, w := range [...]int{p.PointerSize, p.SizeSize, p.TimeSize} {
		if w != 4 && w != 8 {
			return errors.Wrapf(memtrack.ErrInvalidPlatform, "%+v", p)
		}
	}
	return nil
}

// FieldSize returns the number of bytes field f occupies on p.
// The Signature slot is pointer wide even though its value is 32 bits.
func (p Platform) FieldSize(f memtrack.Field) int {
	switch f {
	case memtrack.MemoryBlock, memtrack.FileName, memtrack.FunctionName,
		memtrack.Signature, memtrack.Heap, memtrack.Next, memtrack.Prev:
		return p.PointerSize
	case memtrack.MemoryBytes, memtrack.BackTraceHash, memtrack.Bookmark:
		return p.SizeSize
	case memtrack.Line:
		return 4
	case memtrack.DateTime:
		return p.TimeSize
	}
	return 0
}

// ValueSize returns the number of bytes of the value stored in field f.
// It differs from FieldSize only for Signature, whose 32-bit value sits at
// the start of its slot.
func (p Platform) ValueSize(f memtrack.Field) int {
	if f == memtrack.Signature {
		return 4
	}
	return p.FieldSize(f)
}
