package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedThrottle 每个 key 一个令牌桶，用于投票切换的突发保护
type KeyedThrottle struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*throttleEntry
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewKeyedThrottle(perSecond float64, burst int) *KeyedThrottle {
	return &KeyedThrottle{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*throttleEntry),
	}
}

// Allow 消耗一个令牌；返回 false 时附带建议的等待时间
func (t *KeyedThrottle) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	t.mu.Lock()
	e, ok := t.limiters[key]
	if !ok {
		if len(t.limiters) > sweepThreshold {
			for k, old := range t.limiters {
				if now.Sub(old.lastSeen) > time.Minute {
					delete(t.limiters, k)
				}
			}
		}
		e = &throttleEntry{lim: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = e
	}
	e.lastSeen = now
	t.mu.Unlock()

	r := e.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}
