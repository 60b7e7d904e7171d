// Package deadline 投稿与投票的截止时间判断
package deadline

import (
	"time"

	"github.com/d60-Lab/gin-contest/internal/apperr"
)

// ErrContestClosed 截止后拒绝一切写操作
var ErrContestClosed = apperr.New(apperr.KindContestClosed, "contest_closed", "活動已截止")

// IsClosed now 恰好等于截止时刻时视为已截止
func IsClosed(now, deadline time.Time) bool {
	return !now.Before(deadline)
}

// Gate 写路径在每次请求开始时调用 Check；不缓存结果
type Gate struct {
	Deadline time.Time
	Now      func() time.Time
}

func NewGate(deadline time.Time) *Gate {
	return &Gate{Deadline: deadline, Now: time.Now}
}

func (g *Gate) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// Check 已截止返回 ErrContestClosed
func (g *Gate) Check() error {
	if IsClosed(g.now(), g.Deadline) {
		return ErrContestClosed
	}
	return nil
}

// Closed 供页面展示使用
func (g *Gate) Closed() bool {
	return IsClosed(g.now(), g.Deadline)
}
