package ledger

import "time"

// Clock supplies the current time to window calculations. Production code
// passes SystemClock; tests pass a fake they can advance deterministically.
type Clock func() time.Time

// SystemClock reads the wall clock.
func SystemClock() time.Time {
	return time.Now()
}
