// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var _ RateLimiter = (*LocalBurstLimiter)(nil)

// LocalBurstLimiter is a process-local RateLimiter backed by
// golang.org/x/time/rate, for routes that need a cheap first line of
// defense ahead of (or instead of) the Redis-backed
// SlidingWindowRateLimiter — e.g. an unauthenticated endpoint where
// paying for a round trip to the counter store on every request isn't
// worth it. It tracks one token bucket per Key, lazily created.
type LocalBurstLimiter struct {
	mu       sync.Mutex
	limiters map[Key]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// LocalBurstFactory adapts rate.NewLimiter into a LimiterFactory: burst
// caps how many requests a single Key may spend before refill catches
// up, independent of limit/window which only set the steady-state
// refill rate.
func LocalBurstFactory(burst int) LimiterFactory {
	return func(limit int64, window time.Duration) RateLimiter {
		return newLocalBurstLimiter(limit, window, burst)
	}
}

func newLocalBurstLimiter(limit int64, window time.Duration, burst int) *LocalBurstLimiter {
	if burst <= 0 {
		burst = 1
	}
	var r rate.Limit
	if window <= 0 || limit <= 0 {
		r = rate.Inf
	} else {
		r = rate.Limit(float64(limit) / window.Seconds())
	}
	return &LocalBurstLimiter{
		limiters: make(map[Key]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (l *LocalBurstLimiter) limiterFor(key Key) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

func (l *LocalBurstLimiter) Allow(ctx context.Context, key Key) (Result, error) {
	lim := l.limiterFor(key)
	res := lim.ReserveN(time.Now(), 1)
	if !res.OK() {
		return Result{Allowed: false}, nil
	}
	delay := res.Delay()
	if delay > 0 {
		res.Cancel()
		return Result{
			Allowed:    false,
			RetryAfter: delay,
			Limit:      int64(l.burst),
		}, nil
	}
	return Result{
		Allowed: true,
		Limit:   int64(l.burst),
	}, nil
}
