package timelock

import "time"

// Clock provides authority time for the gate. Window checks MUST go through
// the injected clock so tests and deterministic hosts can control time.
type Clock interface {
	Now() time.Time
}

// wallClock is the default clock. Production code MAY inject a platform
// authority clock instead.
type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
