//go:build debug

package header

import (
	"fmt"

	"github.com/dacapoday/memtrack"
)

// assertEnabled panics if field is not part of the initialized layout.
// Only enabled with -tags debug.
func assertEnabled(method string, layout *Layout, field memtrack.Field) {
	if layout.size == 0 {
		panic(fmt.Sprintf("%s: layout not initialized", method))
	}
	if !layout.enabled.Has(field) {
		panic(fmt.Sprintf("%s: field %s disabled in %s", method, field, layout.enabled))
	}
}

// assertSegment panics if the header segment is shorter than the layout.
// Only enabled with -tags debug.
func assertSegment(method string, layout *Layout, size int) {
	if size < layout.size {
		panic(fmt.Sprintf("%s: segment %d < header size %d", method, size, layout.size))
	}
}
