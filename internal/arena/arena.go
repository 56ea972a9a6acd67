// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package arena manages a fixed-capacity byte region with a first-fit free list.
package arena

import "slices"

// Reserved bytes at the start of every arena, so that offset 0 is never handed out.
const Reserved = 16

// Span is a contiguous byte range of the arena.
type Span struct {
	Off int
	Len int
}

func (span Span) End() int { return span.Off + span.Len }

// Arena is not safe for concurrent use.
type Arena struct {
	mem  []byte
	free []Span // sorted by Off, never adjacent
	used int
}

func New(capacity int) *Arena {
	capacity = max(capacity, Reserved)
	arena := &Arena{mem: make([]byte, capacity)}
	if capacity > Reserved {
		arena.free = []Span{{Off: Reserved, Len: capacity - Reserved}}
	}
	return arena
}

// Alloc carves size bytes from the first free span that fits.
// The returned offset at satisfies (at+prefix)%align == 0, and the span covers
// any padding in front of at. align must be a power of two.
func (arena *Arena) Alloc(size, align, prefix int) (span Span, at int, ok bool) {
	if size < 0 || prefix < 0 || size > arena.Capacity() {
		return Span{}, 0, false
	}
	for i, free := range arena.free {
		if size > free.Len {
			continue
		}
		at = alignUp(free.Off+prefix, align) - prefix
		end := at + size
		if end > free.End() {
			continue
		}

		span = Span{Off: free.Off, Len: end - free.Off}
		if end == free.End() {
			arena.free = slices.Delete(arena.free, i, i+1)
		} else {
			arena.free[i] = Span{Off: end, Len: free.End() - end}
		}
		arena.used += span.Len
		return span, at, true
	}
	return Span{}, 0, false
}

// Free returns span to the free list, merging it with adjacent free spans.
func (arena *Arena) Free(span Span) {
	if span.Len <= 0 {
		return
	}
	arena.used -= span.Len

	i, _ := slices.BinarySearchFunc(arena.free, span.Off, func(s Span, off int) int {
		return s.Off - off
	})
	arena.free = slices.Insert(arena.free, i, span)

	if i+1 < len(arena.free) && arena.free[i].End() == arena.free[i+1].Off {
		arena.free[i].Len += arena.free[i+1].Len
		arena.free = slices.Delete(arena.free, i+1, i+2)
	}
	if i > 0 && arena.free[i-1].End() == arena.free[i].Off {
		arena.free[i-1].Len += arena.free[i].Len
		arena.free = slices.Delete(arena.free, i, i+1)
	}
}

// Bytes returns n bytes at off, capped so appends cannot spill into neighbours.
func (arena *Arena) Bytes(off, n int) []byte {
	return arena.mem[off : off+n : off+n]
}

func (arena *Arena) Capacity() int { return len(arena.mem) - Reserved }

// Used returns the bytes held by live spans, padding included.
func (arena *Arena) Used() int { return arena.used }

func (arena *Arena) Available() int { return arena.Capacity() - arena.used }

// Spans returns a copy of the free list.
func (arena *Arena) Spans() []Span { return slices.Clone(arena.free) }

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
