// Package ratelimit 上传入口的滑动窗口限流与投票的令牌桶节流
package ratelimit

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Decision 一次限流判定
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter 在 window 内每个 key 至多 limit 次
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter 进程内滑动窗口；多实例部署时每个实例各自计数
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// 超过这个 key 数量时顺带清理空闲 key
const sweepThreshold = 4096

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	hits := prune(l.hits[key], cutoff)

	if len(hits) >= l.limit {
		l.hits[key] = hits
		return Decision{RetryAfter: hits[0].Add(l.window).Sub(now)}, nil
	}

	hits = append(hits, now)
	l.hits[key] = hits
	if len(l.hits) > sweepThreshold {
		l.sweep(cutoff)
	}
	return Decision{Allowed: true, Remaining: l.limit - len(hits)}, nil
}

func (l *MemoryLimiter) sweep(cutoff time.Time) {
	for k, hits := range l.hits {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(l.hits, k)
		} else {
			l.hits[k] = hits
		}
	}
}

// prune 丢弃不晚于 cutoff 的记录；hits 按时间升序
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// AddressKey 来源地址加盐哈希后再做 key，日志与 redis 中不出现原始 IP
func AddressKey(salt, addr string) string {
	var sum []byte
	if salt == "" {
		s := blake2b.Sum256([]byte(addr))
		sum = s[:]
	} else {
		k := []byte(salt)
		if len(k) > blake2b.Size {
			k = k[:blake2b.Size]
		}
		h, _ := blake2b.New256(k)
		h.Write([]byte(addr))
		sum = h.Sum(nil)
	}
	return hex.EncodeToString(sum[:16])
}
