// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"time"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
)

// Allocation is a decoded header.
// Fields disabled in the layout are left at their zero value.
type Allocation struct {
	Heap          string
	Block         Addr
	Bytes         uint64
	File          string
	Line          uint32
	Function      string
	Time          time.Time
	BackTraceHash uint64
	Bookmark      uint64
	Intact        bool // signature matches, or signature disabled
}

// Allocation decodes the header of block.
func (heap *Heap) Allocation(block Addr) (a Allocation, err error) {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	addr, _, err := heap.lookup(block)
	if err != nil {
		return
	}
	return heap.decode(heap.view(addr)), nil
}

// Allocations returns the live allocations stamped with a bookmark of at
// least since, oldest first. Without the Bookmark field every live
// allocation is returned.
func (heap *Heap) Allocations(since uint64) (list []Allocation) {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	filter := heap.layout.IsEnabled(memtrack.Bit(memtrack.Bookmark))
	heap.walk(func(_ Addr, h header.Header) bool {
		if filter && h.Bookmark() < since {
			return true
		}
		list = append(list, heap.decode(h))
		return true
	})
	return
}

func (heap *Heap) decode(h header.Header) Allocation {
	layout := heap.layout
	a := Allocation{
		Heap:   heap.name,
		Block:  h.Block(),
		Bytes:  h.Bytes(),
		Intact: true,
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.FileName)) {
		a.File = heap.names.lookup(h.FileName())
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.Line)) {
		a.Line = h.Line()
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.FunctionName)) {
		a.Function = heap.names.lookup(h.FunctionName())
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.DateTime)) {
		a.Time = h.Time()
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.BackTraceHash)) {
		a.BackTraceHash = h.BackTraceHash()
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.Signature)) {
		a.Intact = h.Intact()
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.Bookmark)) {
		a.Bookmark = h.Bookmark()
	}
	return a
}
