package heap

import "github.com/dacapoday/memtrack/header"

// link appends the header at addr to the tail of the live list.
func (heap *Heap) link(h header.Header, addr Addr) {
	h.SetNext(0)
	h.SetPrev(heap.tail)
	if heap.tail != 0 {
		heap.view(heap.tail).SetNext(addr)
	} else {
		heap.head = addr
	}
	heap.tail = addr
}

// unlink removes the header at addr from the live list.
func (heap *Heap) unlink(h header.Header, addr Addr) {
	prev, next := h.Prev(), h.Next()
	if prev != 0 {
		heap.view(prev).SetNext(next)
	} else {
		heap.head = next
	}
	if next != 0 {
		heap.view(next).SetPrev(prev)
	} else {
		heap.tail = prev
	}
	h.SetNext(0)
	h.SetPrev(0)
}
