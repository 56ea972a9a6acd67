// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"github.com/sirupsen/logrus"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
)

// DefaultHeapCapacity is the arena size of heaps created by a Tracker
// whose option does not implement HeapCapacity.
const DefaultHeapCapacity = 1 << 20

type Option interface {
	Fields() memtrack.FieldSet
}

type Aligned interface {
	Aligned() bool
}

type HeapCapacity interface {
	HeapCapacity() int
}

type Logger interface {
	Logger() logrus.FieldLogger
}

type PlatformOption interface {
	Platform() header.Platform
}

func getAligned(opt any) bool {
	if o, ok := opt.(Aligned); ok {
		return o.Aligned()
	}
	return false
}

func getHeapCapacity(opt any) int {
	if o, ok := opt.(HeapCapacity); ok && o.HeapCapacity() > 0 {
		return o.HeapCapacity()
	}
	return DefaultHeapCapacity
}

func getLogger(opt any) logrus.FieldLogger {
	if o, ok := opt.(Logger); ok && o.Logger() != nil {
		return o.Logger()
	}
	return logrus.StandardLogger()
}

func getPlatform(opt any) header.Platform {
	if o, ok := opt.(PlatformOption); ok {
		return o.Platform()
	}
	return header.Native
}

// Config implements Option and every optional capability.
// The zero Config tracks Required fields only, packed, on the native platform.
// A zero FieldSet therefore never reaches Initialize; use an Option whose
// Fields returns the set verbatim to have an empty selection rejected.
type Config struct {
	FieldSet memtrack.FieldSet
	Align    bool
	Capacity int
	Log      logrus.FieldLogger
	Arch     *header.Platform
}

func (c Config) Fields() memtrack.FieldSet {
	if c.FieldSet == 0 {
		return memtrack.Required
	}
	return c.FieldSet
}

func (c Config) Aligned() bool              { return c.Align }
func (c Config) HeapCapacity() int          { return c.Capacity }
func (c Config) Logger() logrus.FieldLogger { return c.Log }

func (c Config) Platform() header.Platform {
	if c.Arch == nil {
		return header.Native
	}
	return *c.Arch
}
