// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package heap implements a tracking heap whose allocations carry a header
// laid out by a shared header.Layout.
//
// Each allocation is carved from a fixed-capacity arena as one header segment
// immediately followed by the user block. Headers are threaded into a doubly
// linked live list through their Next and Prev fields.
package heap

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
	"github.com/dacapoday/memtrack/internal/arena"
)

type Addr = memtrack.Addr

// Heap is safe for concurrent use. The layout it was created with must not be
// reinitialized while the heap holds live allocations.
type Heap struct {
	mutex sync.Mutex

	id     Addr
	name   string
	layout *header.Layout
	arena  *arena.Arena
	spans  map[Addr]arena.Span // header address -> carved span
	names  strtab

	head, tail Addr
	live       int
	liveBytes  uint64
	bookmark   uint64

	log logrus.FieldLogger
	now func() time.Time
}

// Option configures a Heap.
type Option func(*Heap)

// WithLogger sets the logger used to report corruption.
func WithLogger(log logrus.FieldLogger) Option {
	return func(heap *Heap) { heap.log = log }
}

// WithClock replaces time.Now for the DateTime field.
func WithClock(now func() time.Time) Option {
	return func(heap *Heap) { heap.now = now }
}

// New creates a heap of capacity bytes identified by id.
// layout must have been initialized.
func New(layout *header.Layout, id Addr, name string, capacity int, opts ...Option) (*Heap, error) {
	if !layout.Ready() {
		return nil, errors.Wrapf(memtrack.ErrNotInitialized, "heap %s", name)
	}
	if capacity <= 0 || !fits(uint64(capacity)+arena.Reserved, layout.Platform().PointerSize) {
		return nil, errors.Wrapf(memtrack.ErrInvalidSize, "heap %s: capacity %d", name, capacity)
	}

	heap := &Heap{
		id:     id,
		name:   name,
		layout: layout,
		arena:  arena.New(capacity + arena.Reserved),
		spans:  make(map[Addr]arena.Span),
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(heap)
	}
	heap.log = heap.log.WithField("heap", name)
	return heap, nil
}

func (heap *Heap) ID() Addr     { return heap.id }
func (heap *Heap) Name() string { return heap.name }

// Layout returns the layout shared by every header of the heap.
func (heap *Heap) Layout() *header.Layout { return heap.layout }

// Allocate carves a block of bytes aligned to alignment and records site in
// its header. It returns the address of the user block.
func (heap *Heap) Allocate(bytes, alignment int, site memtrack.Site) (block Addr, err error) {
	if bytes < 0 {
		return 0, errors.Wrapf(memtrack.ErrInvalidSize, "heap %s: %d bytes", heap.name, bytes)
	}
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		return 0, errors.Wrapf(memtrack.ErrInvalidAlignment, "heap %s: %d", heap.name, alignment)
	}

	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	layout := heap.layout
	if !layout.Ready() {
		return 0, errors.Wrapf(memtrack.ErrNotInitialized, "heap %s", heap.name)
	}

	if !fits(uint64(bytes), layout.Platform().SizeSize) {
		return 0, errors.Wrapf(memtrack.ErrInvalidSize, "heap %s: %d bytes exceed the size width", heap.name, bytes)
	}
	size := layout.Size()
	if bytes > heap.arena.Capacity()-size {
		return 0, errors.Wrapf(memtrack.ErrOutOfSpace, "heap %s: %d bytes, capacity %d",
			heap.name, bytes, heap.arena.Capacity())
	}
	span, at, ok := heap.arena.Alloc(size+bytes, alignment, size)
	if !ok {
		return 0, errors.Wrapf(memtrack.ErrOutOfSpace, "heap %s: %d bytes, %d available",
			heap.name, bytes, heap.arena.Available())
	}

	addr := Addr(at)
	block = addr + Addr(size)
	clear(heap.arena.Bytes(int(block), bytes))

	h := heap.view(addr)
	h.Reset()
	h.SetBlock(block)
	h.SetBytes(uint64(bytes))
	h.SetHeap(heap.id)
	heap.stamp(h, site)

	heap.link(h, addr)
	heap.spans[addr] = span
	heap.live++
	heap.liveBytes += uint64(bytes)
	return
}

// stamp fills the optional debug fields enabled in the layout.
func (heap *Heap) stamp(h header.Header, site memtrack.Site) {
	layout := heap.layout
	if layout.IsEnabled(memtrack.Bit(memtrack.FileName)) {
		h.SetFileName(heap.names.intern(site.File))
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.Line)) {
		h.SetLine(site.Line)
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.FunctionName)) {
		h.SetFunctionName(heap.names.intern(site.Function))
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.DateTime)) {
		h.SetDateTime(heap.now().Unix())
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.BackTraceHash)) {
		h.SetBackTraceHash(backTraceHash(site.PCs))
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.Signature)) {
		h.SetSignature(memtrack.CorruptionSignature)
	}
	if layout.IsEnabled(memtrack.Bit(memtrack.Bookmark)) {
		h.SetBookmark(heap.bookmark)
	}
}

// Deallocate releases block.
// A block whose header fails the corruption check stays allocated.
func (heap *Heap) Deallocate(block Addr) error {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	addr, span, err := heap.lookup(block)
	if err != nil {
		return err
	}

	h := heap.view(addr)
	if err = heap.check(h, block); err != nil {
		heap.log.WithError(err).Warn("deallocate rejected")
		return err
	}

	heap.unlink(h, addr)
	delete(heap.spans, addr)
	heap.arena.Free(span)
	heap.live--
	heap.liveBytes -= h.Bytes()
	return nil
}

// Block returns the user memory of block.
func (heap *Heap) Block(block Addr) ([]byte, error) {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	addr, _, err := heap.lookup(block)
	if err != nil {
		return nil, err
	}
	return heap.arena.Bytes(int(block), int(heap.view(addr).Bytes())), nil
}

// Header returns the header of block.
// The view stays valid until block is deallocated. It is not guarded by the
// heap lock: Allocate and Deallocate rewrite the Next and Prev fields of
// neighbouring headers, so reads may race with them and writes must go
// through Update.
func (heap *Heap) Header(block Addr) (header.Header, error) {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	addr, _, err := heap.lookup(block)
	if err != nil {
		return header.Header{}, err
	}
	return heap.view(addr), nil
}

// Update calls fn with the header of block while holding the heap lock.
func (heap *Heap) Update(block Addr, fn func(h header.Header)) error {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	addr, _, err := heap.lookup(block)
	if err != nil {
		return err
	}
	fn(heap.view(addr))
	return nil
}

// Walk calls fn for each live header, oldest first, until fn returns false.
// The heap is locked during the walk: fn must not call back into the heap.
func (heap *Heap) Walk(fn func(h header.Header) bool) {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()
	heap.walk(func(_ Addr, h header.Header) bool { return fn(h) })
}

func (heap *Heap) walk(fn func(addr Addr, h header.Header) bool) {
	if !heap.layout.Ready() {
		return
	}
	// bounded by live so a corrupted link cannot loop forever
	addr := heap.head
	for range heap.live {
		if _, ok := heap.spans[addr]; !ok {
			return
		}
		h := heap.view(addr)
		if !fn(addr, h) {
			return
		}
		addr = h.Next()
	}
}

// Verify checks every live header and reports the number of corrupted ones.
func (heap *Heap) Verify() error {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()

	if !heap.layout.Ready() {
		return errors.Wrapf(memtrack.ErrNotInitialized, "heap %s", heap.name)
	}

	var bad int
	var first Addr
	var visited int
	size := Addr(heap.layout.Size())
	heap.walk(func(addr Addr, h header.Header) bool {
		visited++
		if heap.check(h, addr+size) != nil {
			if bad == 0 {
				first = addr + size
			}
			bad++
		}
		return true
	})
	if visited != heap.live {
		return errors.Wrapf(memtrack.ErrCorrupted, "heap %s: live list reaches %d of %d headers",
			heap.name, visited, heap.live)
	}
	if bad > 0 {
		return errors.Wrapf(memtrack.ErrCorrupted, "heap %s: %d headers, first block %#x",
			heap.name, bad, uint64(first))
	}
	return nil
}

// SetBookmark sets the value stamped into subsequent allocations.
func (heap *Heap) SetBookmark(mark uint64) {
	heap.mutex.Lock()
	heap.bookmark = mark
	heap.mutex.Unlock()
}

func (heap *Heap) Bookmark() uint64 {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()
	return heap.bookmark
}

// Stats is a snapshot of heap usage.
type Stats struct {
	Live      int    // live allocations
	LiveBytes uint64 // bytes requested by live allocations
	Capacity  int    // arena capacity
	Used      int    // arena bytes held, headers and padding included
}

func (heap *Heap) Stats() Stats {
	heap.mutex.Lock()
	defer heap.mutex.Unlock()
	return Stats{
		Live:      heap.live,
		LiveBytes: heap.liveBytes,
		Capacity:  heap.arena.Capacity(),
		Used:      heap.arena.Used(),
	}
}

func (heap *Heap) view(addr Addr) header.Header {
	return heap.layout.View(heap.arena.Bytes(int(addr), heap.layout.Size()))
}

func (heap *Heap) lookup(block Addr) (addr Addr, span arena.Span, err error) {
	if !heap.layout.Ready() {
		err = errors.Wrapf(memtrack.ErrNotInitialized, "heap %s", heap.name)
		return
	}
	size := Addr(heap.layout.Size())
	if block < size {
		err = errors.Wrapf(memtrack.ErrInvalidAddr, "heap %s: %#x", heap.name, uint64(block))
		return
	}
	addr = block - size
	span, ok := heap.spans[addr]
	if !ok {
		err = errors.Wrapf(memtrack.ErrInvalidAddr, "heap %s: %#x", heap.name, uint64(block))
	}
	return
}

// check validates the header of block against its own bookkeeping fields
// and against its neighbours in the live list.
func (heap *Heap) check(h header.Header, block Addr) error {
	if heap.layout.IsEnabled(memtrack.Bit(memtrack.Signature)) && !h.Intact() {
		return errors.Wrapf(memtrack.ErrCorrupted, "heap %s: block %#x signature %#x",
			heap.name, uint64(block), h.Signature())
	}
	if h.Block() != block || h.Heap() != heap.id {
		return errors.Wrapf(memtrack.ErrCorrupted, "heap %s: block %#x header names block %#x of heap %d",
			heap.name, uint64(block), uint64(h.Block()), uint64(h.Heap()))
	}

	addr := block - Addr(heap.layout.Size())
	prev, next := h.Prev(), h.Next()
	if (prev == 0) != (addr == heap.head) || (next == 0) != (addr == heap.tail) ||
		!heap.neighbour(prev, addr, header.Header.Next) ||
		!heap.neighbour(next, addr, header.Header.Prev) {
		return errors.Wrapf(memtrack.ErrCorrupted, "heap %s: block %#x links prev %#x next %#x",
			heap.name, uint64(block), uint64(prev), uint64(next))
	}
	return nil
}

// neighbour reports whether other is nil, or a live header other than addr
// whose link field points back at addr.
func (heap *Heap) neighbour(other, addr Addr, back func(header.Header) Addr) bool {
	if other == 0 {
		return true
	}
	if _, ok := heap.spans[other]; !ok || other == addr {
		return false
	}
	return back(heap.view(other)) == addr
}

// fits reports whether v can be stored in a field of width bytes.
func fits(v uint64, width int) bool {
	return width >= 8 || v <= math.MaxUint32
}
