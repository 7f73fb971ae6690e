package services

import "time"

// nowFunc is the single time source for every service operation. Each
// logical operation reads it exactly once so expiry checks and persisted
// timestamps always agree. Tests swap it for a frozen clock.
var nowFunc = time.Now

// Now reads the service clock. Jobs use it so their queries agree with
// the transitions the services will apply.
func Now() time.Time {
	return nowFunc()
}

// SetClock overrides the service time source and returns a restore func.
func SetClock(now func() time.Time) func() {
	prev := nowFunc
	nowFunc = now
	return func() { nowFunc = prev }
}
