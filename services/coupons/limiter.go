package coupons

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MarcGrol/checkoutflow/lib/mytime"
)

// previewLimiter throttles coupon previews per customer to make guessing codes expensive.
// A customer's limiter is dropped once its bucket has refilled completely.
type previewLimiter struct {
	sync.Mutex
	nower     mytime.Nower
	interval  time.Duration
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	limiters  map[string]*customerLimiter
}

type customerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newPreviewLimiter(perMinute int, burst int, nower mytime.Nower) *previewLimiter {
	l := &previewLimiter{
		nower:    nower,
		burst:    burst,
		limiters: map[string]*customerLimiter{},
	}
	if perMinute > 0 {
		l.interval = time.Minute / time.Duration(perMinute)
		l.idleAfter = max(time.Duration(burst)*l.interval, time.Minute)
	}
	return l
}

func (l *previewLimiter) Allow(customerID string) bool {
	if l.interval <= 0 {
		return true
	}

	now := l.nower.Now()

	l.Lock()
	defer l.Unlock()

	if now.Sub(l.lastSweep) >= l.idleAfter {
		l.sweep(now)
	}
	entry, found := l.limiters[customerID]
	if !found {
		entry = &customerLimiter{limiter: rate.NewLimiter(rate.Every(l.interval), l.burst)}
		l.limiters[customerID] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func (l *previewLimiter) sweep(now time.Time) {
	for customerID, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idleAfter {
			delete(l.limiters, customerID)
		}
	}
	l.lastSweep = now
}

func (l *previewLimiter) size() int {
	l.Lock()
	defer l.Unlock()

	return len(l.limiters)
}
