package sale

import "time"

// Clock supplies the current time. Production code uses the system clock;
// tests inject a fake to drive boundary transitions deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
