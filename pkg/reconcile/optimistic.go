package reconcile

import (
	"context"
	"sync"
)

// Optimistic 持有最后一次确认的值与当前展示的值
//
// Apply 之后到 Commit/Rollback 之前，第二次 Apply 会被拒绝。
type Optimistic[T any] struct {
	mu        sync.Mutex
	confirmed T
	shown     T
	pending   bool
}

func NewOptimistic[T any](v T) *Optimistic[T] {
	return &Optimistic[T]{confirmed: v, shown: v}
}

// Apply 立即把 f 的结果作为展示值
func (o *Optimistic[T]) Apply(f func(T) T) (T, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending {
		return o.shown, ErrInFlight
	}
	o.shown = f(o.confirmed)
	o.pending = true
	return o.shown, nil
}

// Commit 以服务端结果原样覆盖猜测值
func (o *Optimistic[T]) Commit(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.confirmed, o.shown, o.pending = v, v, false
}

// Rollback 精确恢复到 Apply 之前
func (o *Optimistic[T]) Rollback() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shown, o.pending = o.confirmed, false
	return o.shown
}

func (o *Optimistic[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shown
}

func (o *Optimistic[T]) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Save 先展示编辑结果再提交（作品编辑表单），失败回到编辑前
func Save[T any](ctx context.Context, o *Optimistic[T], edit func(T) T, save func(context.Context, T) (T, error)) (T, error) {
	draft, err := o.Apply(edit)
	if err != nil {
		return draft, err
	}
	saved, err := save(ctx, draft)
	if err != nil {
		return o.Rollback(), err
	}
	o.Commit(saved)
	return saved, nil
}
