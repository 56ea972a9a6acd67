package header_test

import (
	"fmt"

	"github.com/dacapoday/memtrack"
	"github.com/dacapoday/memtrack/header"
)

func Example() {
	layout := header.New(header.Platform64)
	if !layout.Initialize(memtrack.Required | memtrack.Bit(memtrack.Line)) {
		panic("missing required fields")
	}

	for _, f := range layout.Fields().Fields() {
		fmt.Printf("%-12s %2d\n", f, layout.Offset(f))
	}
	fmt.Println("size", layout.Size())

	h := layout.View(make([]byte, layout.Size()))
	h.SetLine(42)
	fmt.Println("line", h.Line())

	// Output:
	// memory_block  0
	// memory_bytes  8
	// line         16
	// heap         20
	// next         28
	// prev         36
	// size 44
	// line 42
}
