//go:build !debug

package header

import "github.com/dacapoday/memtrack"

// assertEnabled is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertEnabled(string, *Layout, memtrack.Field) {}

// assertSegment is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertSegment(string, *Layout, int) {}
