// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package memtrack defines the field schema shared by the allocation
// header layout, the tracking heaps and the tracker that owns them.
package memtrack

// Addr is a pointer-width handle stored in header fields.
// The zero Addr is nil.
type Addr uint64

// CorruptionSignature is written into every header that carries the Signature field
// and compared on deallocation to detect corruption.
const CorruptionSignature uint32 = 0xCDCDCDCD
