// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package header computes the byte layout shared by every allocation header
// of a tracking session and provides typed access to header fields.
//
// A Layout is configured once with Initialize and is read-only afterwards.
// It performs no synchronization: Initialize and Terminate must not run
// concurrently with any other use of the Layout or of the headers built on it.
package header

import (
	"github.com/dacapoday/memtrack"
)

// Layout maps every enabled field to a byte offset inside a header.
type Layout struct {
	platform Platform
	aligned  bool

	enabled memtrack.FieldSet
	offsets [memtrack.NumFields]int
	size    int
	align   int
}

// LayoutOption configures a Layout at construction.
type LayoutOption func(*Layout)

// WithAlignment places every field at a multiple of its own size and rounds
// the header size up to the widest enabled field.
// The default layout is packed.
func WithAlignment() LayoutOption {
	return func(layout *Layout) { layout.aligned = true }
}

// New returns an uninitialized layout for platform.
// Until Initialize succeeds the header size is 0 and Required is reported as enabled.
func New(platform Platform, opts ...LayoutOption) *Layout {
	layout := &Layout{
		platform: platform,
		enabled:  memtrack.Required,
		align:    1,
	}
	for _, opt := range opts {
		opt(layout)
	}
	return layout
}

// Initialize computes offsets for the requested fields in canonical order.
// It returns false and leaves the layout untouched if requested lacks any
// Required field.
func (layout *Layout) Initialize(requested memtrack.FieldSet) bool {
	if !requested.Contains(memtrack.Required) {
		return false
	}

	layout.size = 0
	layout.align = 1
	layout.offsets = [memtrack.NumFields]int{}

	for f := range memtrack.Field(memtrack.NumFields) {
		if !requested.Has(f) {
			continue
		}
		fieldSize := layout.platform.FieldSize(f)
		if layout.aligned {
			layout.size = alignUp(layout.size, fieldSize)
			layout.align = max(layout.align, fieldSize)
		}
		layout.offsets[f] = layout.size
		layout.size += fieldSize
	}
	if layout.aligned {
		layout.size = alignUp(layout.size, layout.align)
	}

	layout.enabled = requested
	return true
}

// Terminate zeroes the size and every offset and restores enabled to Required.
//
// The terminated layout still reports Required fields through IsEnabled even
// though none of its offsets are valid. Callers must check Ready, or call
// Initialize again, before touching headers.
func (layout *Layout) Terminate() {
	layout.size = 0
	layout.align = 1
	layout.offsets = [memtrack.NumFields]int{}
	layout.enabled = memtrack.Required
}

// IsEnabled reports whether ANY field of query is enabled.
func (layout *Layout) IsEnabled(query memtrack.FieldSet) bool {
	return layout.enabled.Any(query)
}

// Offset returns the byte offset of field.
// The result is meaningless for a disabled field: it reads as 0, which
// aliases MemoryBlock.
func (layout *Layout) Offset(field memtrack.Field) int {
	return layout.offsets[field]
}

// Size returns the total header size in bytes.
func (layout *Layout) Size() int {
	return layout.size
}

// Ready reports whether a successful Initialize has produced a usable layout.
func (layout *Layout) Ready() bool {
	return layout.size > 0
}

// Fields returns the enabled field set.
func (layout *Layout) Fields() memtrack.FieldSet {
	return layout.enabled
}

// FieldSize returns the width of field on this layout's platform,
// regardless of whether it is enabled.
func (layout *Layout) FieldSize(field memtrack.Field) int {
	return layout.platform.FieldSize(field)
}

func (layout *Layout) Platform() Platform {
	return layout.platform
}

// Aligned reports whether fields are naturally aligned.
func (layout *Layout) Aligned() bool {
	return layout.aligned
}

// View returns the header stored at the start of mem.
// mem must hold at least Size bytes.
func (layout *Layout) View(mem []byte) Header {
	assertSegment("header.View", layout, len(mem))
	return Header{layout: layout, mem: mem}
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
