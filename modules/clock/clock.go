// Package clock lets modules/ratelimit's sliding-window limiter swap
// the wall clock for a fake one in tests without threading a
// time.Time through every call.
package clock

import (
	"sync"
	"time"
)

// Clock is the one method modules/ratelimit.SlidingWindowRateLimiter
// needs off time.Time.
type Clock interface {
	Now() time.Time
}

// RealClockProvider is memoized rather than constructed per call: a
// rate limiter built per request would otherwise allocate a RealClock
// on every request it serves.
var RealClockProvider = sync.OnceValue(func() Clock {
	return &RealClock{}
})

// RealClock delegates to time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
