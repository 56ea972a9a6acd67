// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package memtrack

import "runtime"

// maxDepth bounds the number of frames captured per allocation.
const maxDepth = 32

// Site describes where an allocation was requested.
type Site struct {
	File     string
	Function string
	Line     uint32
	PCs      []uintptr
}

// Caller captures the call site skip frames above the caller of Caller.
// Caller(0) describes the function that called Caller.
func Caller(skip int) (site Site) {
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return
	}
	site.PCs = append([]uintptr(nil), pcs[:n]...)

	frame, _ := runtime.CallersFrames(site.PCs[:1]).Next()
	site.File = frame.File
	site.Function = frame.Function
	site.Line = uint32(frame.Line)
	return
}
