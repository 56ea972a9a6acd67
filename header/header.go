// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package header

import (
	"encoding/binary"
	"time"

	"github.com/dacapoday/memtrack"
)

// Header is a typed view over one header segment.
//
// Every accessor reads or writes the field at Layout.Offset(field) with the
// platform width of its value. Accessing a field that was not enabled at the
// last successful Initialize is a precondition violation: the access is not
// checked and lands on offset 0. Build with -tags debug to panic instead.
type Header struct {
	layout *Layout
	mem    []byte
}

// Raw returns the header segment, Size bytes long.
func (h Header) Raw() []byte {
	return h.mem[:h.layout.size:h.layout.size]
}

// Layout returns the layout the view was created from.
func (h Header) Layout() *Layout {
	return h.layout
}

// Reset zeroes the header segment.
func (h Header) Reset() {
	clear(h.Raw())
}

// Block returns the address of the user block.
func (h Header) Block() memtrack.Addr {
	return memtrack.Addr(h.read("Header.Block", memtrack.MemoryBlock))
}

func (h Header) SetBlock(addr memtrack.Addr) {
	h.write("Header.SetBlock", memtrack.MemoryBlock, uint64(addr))
}

// Bytes returns the requested allocation size.
func (h Header) Bytes() uint64 {
	return h.read("Header.Bytes", memtrack.MemoryBytes)
}

func (h Header) SetBytes(n uint64) {
	h.write("Header.SetBytes", memtrack.MemoryBytes, n)
}

// FileName returns the handle of the allocating file name.
func (h Header) FileName() memtrack.Addr {
	return memtrack.Addr(h.read("Header.FileName", memtrack.FileName))
}

func (h Header) SetFileName(addr memtrack.Addr) {
	h.write("Header.SetFileName", memtrack.FileName, uint64(addr))
}

func (h Header) Line() uint32 {
	return uint32(h.read("Header.Line", memtrack.Line))
}

func (h Header) SetLine(line uint32) {
	h.write("Header.SetLine", memtrack.Line, uint64(line))
}

// FunctionName returns the handle of the allocating function name.
func (h Header) FunctionName() memtrack.Addr {
	return memtrack.Addr(h.read("Header.FunctionName", memtrack.FunctionName))
}

func (h Header) SetFunctionName(addr memtrack.Addr) {
	h.write("Header.SetFunctionName", memtrack.FunctionName, uint64(addr))
}

// DateTime returns the allocation time in seconds since the Unix epoch.
func (h Header) DateTime() int64 {
	v := h.read("Header.DateTime", memtrack.DateTime)
	if h.layout.platform.TimeSize == 4 {
		return int64(int32(v))
	}
	return int64(v)
}

func (h Header) SetDateTime(sec int64) {
	h.write("Header.SetDateTime", memtrack.DateTime, uint64(sec))
}

// Time returns DateTime as a time.Time.
func (h Header) Time() time.Time {
	return time.Unix(h.DateTime(), 0)
}

func (h Header) BackTraceHash() uint64 {
	return h.read("Header.BackTraceHash", memtrack.BackTraceHash)
}

func (h Header) SetBackTraceHash(hash uint64) {
	h.write("Header.SetBackTraceHash", memtrack.BackTraceHash, hash)
}

func (h Header) Signature() uint32 {
	return uint32(h.read("Header.Signature", memtrack.Signature))
}

func (h Header) SetSignature(sig uint32) {
	h.write("Header.SetSignature", memtrack.Signature, uint64(sig))
}

// Intact reports whether the signature still holds CorruptionSignature.
func (h Header) Intact() bool {
	return h.Signature() == memtrack.CorruptionSignature
}

func (h Header) Bookmark() uint64 {
	return h.read("Header.Bookmark", memtrack.Bookmark)
}

func (h Header) SetBookmark(mark uint64) {
	h.write("Header.SetBookmark", memtrack.Bookmark, mark)
}

// Heap returns the id of the owning heap.
func (h Header) Heap() memtrack.Addr {
	return memtrack.Addr(h.read("Header.Heap", memtrack.Heap))
}

func (h Header) SetHeap(id memtrack.Addr) {
	h.write("Header.SetHeap", memtrack.Heap, uint64(id))
}

// Next returns the address of the next header in the owning heap's live list.
func (h Header) Next() memtrack.Addr {
	return memtrack.Addr(h.read("Header.Next", memtrack.Next))
}

func (h Header) SetNext(addr memtrack.Addr) {
	h.write("Header.SetNext", memtrack.Next, uint64(addr))
}

// Prev returns the address of the previous header in the owning heap's live list.
func (h Header) Prev() memtrack.Addr {
	return memtrack.Addr(h.read("Header.Prev", memtrack.Prev))
}

func (h Header) SetPrev(addr memtrack.Addr) {
	h.write("Header.SetPrev", memtrack.Prev, uint64(addr))
}

func (h Header) read(method string, field memtrack.Field) uint64 {
	assertEnabled(method, h.layout, field)
	return readAt(h.mem, h.layout.offsets[field], h.layout.platform.ValueSize(field))
}

func (h Header) write(method string, field memtrack.Field, val uint64) {
	assertEnabled(method, h.layout, field)
	writeAt(h.mem, h.layout.offsets[field], h.layout.platform.ValueSize(field), val)
}

// readAt decodes a width-byte value at off in native byte order.
func readAt(mem []byte, off, width int) uint64 {
	if width == 4 {
		return uint64(binary.NativeEndian.Uint32(mem[off:]))
	}
	return binary.NativeEndian.Uint64(mem[off:])
}

// writeAt encodes the low width bytes of val at off in native byte order.
func writeAt(mem []byte, off, width int, val uint64) {
	if width == 4 {
		binary.NativeEndian.PutUint32(mem[off:], uint32(val))
		return
	}
	binary.NativeEndian.PutUint64(mem[off:], val)
}
