// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package tracker owns the header layout of a tracking session and the heaps
// that allocate with it.
//
// A Tracker is initialized once before any allocation and terminated once
// after the last one. Initialize and Terminate are not meant to race with
// allocation traffic: the layout is read without locks by every heap.
package tracker

import (
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
	"github.com/dacapoday/memtrack/heap"
)

type phase uint8

const (
	idle phase = iota
	running
	terminated
)

type Tracker struct {
	mutex sync.Mutex

	opt    Option
	layout *header.Layout
	heaps  []*heap.Heap

	phase    phase
	bookmark uint64
	session  uuid.UUID
	log      logrus.FieldLogger
}

// New creates a tracker for opt. Nothing is configured until Initialize.
func New(opt Option) *Tracker {
	var layoutOpts []header.LayoutOption
	if getAligned(opt) {
		layoutOpts = append(layoutOpts, header.WithAlignment())
	}

	session := uuid.New()
	return &Tracker{
		opt:     opt,
		layout:  header.New(getPlatform(opt), layoutOpts...),
		session: session,
		log:     getLogger(opt).WithField("session", session.String()),
	}
}

// Initialize configures the header layout with the option's fields.
// A field set lacking Required fields is rejected with ErrMissingRequired
// and the tracker stays uninitialized.
func (t *Tracker) Initialize() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	switch t.phase {
	case running:
		return memtrack.ErrInitialized
	case terminated:
		return memtrack.ErrTerminated
	}

	if err := t.layout.Platform().Validate(); err != nil {
		return errors.Wrap(err, "tracker.Initialize")
	}

	fields := t.opt.Fields()
	if !t.layout.Initialize(fields) {
		return errors.Wrapf(memtrack.ErrMissingRequired, "tracker.Initialize: %s lacks %s",
			fields, memtrack.Required.Without(fields))
	}

	t.phase = running
	t.log.WithFields(logrus.Fields{
		"fields":      fields.String(),
		"header_size": t.layout.Size(),
		"aligned":     t.layout.Aligned(),
	}).Info("tracker initialized")
	return nil
}

// NewHeap creates a heap sharing the tracker's layout.
// Heap ids start at 1 and names must be unique.
func (t *Tracker) NewHeap(name string) (*heap.Heap, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.ready(); err != nil {
		return nil, err
	}
	for _, h := range t.heaps {
		if h.Name() == name {
			return nil, errors.Wrapf(memtrack.ErrDuplicateHeap, "%q", name)
		}
	}

	id := memtrack.Addr(len(t.heaps) + 1)
	h, err := heap.New(t.layout, id, name, getHeapCapacity(t.opt), heap.WithLogger(t.log))
	if err != nil {
		return nil, err
	}
	h.SetBookmark(t.bookmark)
	t.heaps = append(t.heaps, h)
	return h, nil
}

// Heaps returns the heaps created so far, in creation order.
func (t *Tracker) Heaps() []*heap.Heap {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]*heap.Heap(nil), t.heaps...)
}

// Bookmark advances the session bookmark and returns the new value.
// Allocations made afterwards carry it, so Leaks(mark) lists only them.
func (t *Tracker) Bookmark() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.bookmark++
	for _, h := range t.heaps {
		h.SetBookmark(t.bookmark)
	}
	return t.bookmark
}

// Leaks returns the live allocations of every heap made at or after bookmark since.
func (t *Tracker) Leaks(since uint64) (leaks []heap.Allocation) {
	for _, h := range t.Heaps() {
		leaks = append(leaks, h.Allocations(since)...)
	}
	return
}

// Verify checks the headers of every heap and returns the first failure.
func (t *Tracker) Verify() error {
	for _, h := range t.Heaps() {
		if err := h.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// Terminate logs remaining allocations and resets the layout.
//
// After Terminate the layout has size 0 but still reports Required fields
// as enabled. Heaps created by the tracker refuse further allocations.
func (t *Tracker) Terminate() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.ready(); err != nil {
		return err
	}

	var count int
	var bytes uint64
	for _, h := range t.heaps {
		for _, a := range h.Allocations(0) {
			count++
			bytes += a.Bytes
			t.log.WithFields(leakFields(a)).Debug("leak")
		}
	}
	if count > 0 {
		t.log.WithField("bytes", humanize.IBytes(bytes)).Warnf("%d allocations leaked", count)
	}

	t.layout.Terminate()
	t.phase = terminated
	t.log.Info("tracker terminated")
	return nil
}

func (t *Tracker) Layout() *header.Layout { return t.layout }

func (t *Tracker) Session() uuid.UUID { return t.session }

func (t *Tracker) ready() error {
	switch t.phase {
	case idle:
		return memtrack.ErrNotInitialized
	case terminated:
		return memtrack.ErrTerminated
	}
	return nil
}

func leakFields(a heap.Allocation) logrus.Fields {
	fields := logrus.Fields{
		"heap":  a.Heap,
		"block": uint64(a.Block),
		"bytes": a.Bytes,
	}
	if a.File != "" {
		fields["site"] = site(a)
	}
	if a.Function != "" {
		fields["func"] = a.Function
	}
	return fields
}
