// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package memtrack

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Field identifies one piece of header metadata.
// The numeric value is both the canonical layout order and the bit index in FieldSet.
type Field uint8

const (
	MemoryBlock   Field = iota // address of the user block
	MemoryBytes                // requested size
	FileName                   // allocation site file
	Line                       // allocation site line
	FunctionName               // allocation site function
	DateTime                   // allocation time
	BackTraceHash              // hash of the call stack
	Signature                  // corruption signature
	Bookmark                   // bookmark at allocation time
	Heap                       // owning heap
	Next                       // next header in the live list
	Prev                       // previous header in the live list

	NumFields = int(iota)
)

var fieldNames = [NumFields]string{
	"memory_block",
	"memory_bytes",
	"file_name",
	"line",
	"function_name",
	"date_time",
	"back_trace_hash",
	"signature",
	"bookmark",
	"heap",
	"next",
	"prev",
}

func (f Field) String() string {
	if int(f) < NumFields {
		return fieldNames[f]
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// FieldSet is a bitmask over Field values.
type FieldSet uint16

const (
	// Required is the minimum a heap needs to manage and walk allocations.
	Required = FieldSet(1<<MemoryBlock | 1<<MemoryBytes | 1<<Heap | 1<<Next | 1<<Prev)
	// All enables every field.
	All = FieldSet(1<<NumFields - 1)
)

// Bit returns the set containing only f.
func Bit(f Field) FieldSet { return 1 << f }

// Fields builds a set from individual fields.
func Fields(fields ...Field) (set FieldSet) {
	for _, f := range fields {
		set |= Bit(f)
	}
	return
}

func (set FieldSet) Has(f Field) bool { return set&Bit(f) != 0 }

// Any reports whether set and other share at least one field.
func (set FieldSet) Any(other FieldSet) bool { return set&other != 0 }

// Contains reports whether every field of other is in set.
func (set FieldSet) Contains(other FieldSet) bool { return set&other == other }

func (set FieldSet) Union(other FieldSet) FieldSet     { return set | other }
func (set FieldSet) Intersect(other FieldSet) FieldSet { return set & other }
func (set FieldSet) Without(other FieldSet) FieldSet   { return set &^ other }

// Len returns the number of fields in set.
func (set FieldSet) Len() int { return bits.OnesCount16(uint16(set & All)) }

// Fields returns the members of set in canonical order.
func (set FieldSet) Fields() []Field {
	fields := make([]Field, 0, set.Len())
	for f := range Field(NumFields) {
		if set.Has(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func (set FieldSet) String() string {
	switch set {
	case 0:
		return "none"
	case All:
		return "all"
	case Required:
		return "required"
	}
	fields := set.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}

// ParseFieldSet parses a comma separated list of field names.
// The names "required" and "all" expand to the corresponding sets.
func ParseFieldSet(s string) (set FieldSet, err error) {
	for name := range strings.SplitSeq(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
			continue
		case "required":
			set |= Required
			continue
		case "all":
			set |= All
			continue
		}
		f, ok := lookupField(name)
		if !ok {
			return 0, errors.Wrapf(ErrUnknownField, "%q", name)
		}
		set |= Bit(f)
	}
	return
}

func lookupField(name string) (Field, bool) {
	name = strings.ReplaceAll(name, "-", "_")
	for i, n := range fieldNames {
		if n == name || strings.ReplaceAll(n, "_", "") == name {
			return Field(i), true
		}
	}
	return 0, false
}
