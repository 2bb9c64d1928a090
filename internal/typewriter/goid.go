package typewriter

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the current goroutine's id from its stack header
// ("goroutine 42 [running]:"). Dispose uses it to tell a call made from
// inside a subscriber apart from one racing it on another goroutine.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		// zero never matches a delivering goroutine
		return 0
	}
	return id
}
