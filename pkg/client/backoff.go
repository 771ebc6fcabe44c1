package client

import "time"

// Backoff returns the reconnect delay after failures consecutive failures:
// min(ceiling, base*(failures+1)^2).
func Backoff(failures int, base, ceiling time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if failures < 0 {
		failures = 0
	}
	n := time.Duration(failures) + 1
	// Compare before multiplying so large failure counts cannot overflow.
	if n > 1<<20 || n*n > ceiling/base {
		return ceiling
	}
	return base * n * n
}
