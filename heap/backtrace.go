package heap

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// backTraceHash folds the program counters of a call stack into one value.
func backTraceHash(pcs []uintptr) uint64 {
	if len(pcs) == 0 {
		return 0
	}
	d := xxhash.New()
	var buf [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[:], uint64(pc))
		d.Write(buf[:])
	}
	return d.Sum64()
}
