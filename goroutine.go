package runloop

import "runtime"

// getGoroutineID parses the current goroutine's id out of runtime.Stack's
// header line ("goroutine 123 [running]:..."). Go deliberately exposes no
// public goroutine-id API; this is the same parse-the-stack-header trick
// used elsewhere in the ecosystem to detect "am I the loop's goroutine"
// without a native thread-local.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
