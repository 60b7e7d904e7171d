package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// VoteState 客户端看到的某个作品的投票状态
type VoteState struct {
	HasVoted  bool
	VoteCount int64
}

func flip(s VoteState) VoteState {
	if s.HasVoted {
		s.VoteCount--
	} else {
		s.VoteCount++
	}
	s.HasVoted = !s.HasVoted
	return s
}

// Toggler 服务端的投票接口
type Toggler interface {
	Toggle(ctx context.Context, workID, idempotencyKey string) (VoteState, error)
	Fetch(ctx context.Context, workID string) (VoteState, error)
}

// Snapshot 某一时刻的只读视图
type Snapshot struct {
	WorkID string
	VoteState
	Phase Phase
	Err   error
}

type entry struct {
	phase Phase
	state *Optimistic[VoteState]
	err   error
	// gen 每次切换开始、落定或重新 Seed 时递增；Refresh 据此丢弃过期结果
	gen uint64
}

// Board 一个会话内所有作品的投票状态
type Board struct {
	mu     sync.Mutex
	client Toggler
	works  map[string]*entry
	newKey func() string
}

func NewBoard(client Toggler) *Board {
	return &Board{
		client: client,
		works:  make(map[string]*entry),
		newKey: func() string { return uuid.NewString() },
	}
}

// Seed 用画廊返回的 has_voted/vote_count 初始化
func (b *Board) Seed(workID string, s VoteState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.works[workID]
	if !ok {
		b.works[workID] = &entry{phase: PhaseIdle, state: NewOptimistic(s)}
		return
	}
	if e.phase.InFlight() {
		return
	}
	e.state.Commit(s)
	e.phase, e.err = PhaseIdle, nil
	e.gen++
}

// Toggle 乐观翻转后发出请求，成功采用服务端结果，失败精确回滚且不重试
func (b *Board) Toggle(ctx context.Context, workID string) (VoteState, error) {
	b.mu.Lock()
	e, ok := b.works[workID]
	if !ok {
		b.mu.Unlock()
		return VoteState{}, ErrUnknownWork
	}
	phase, err := next(e.phase, evApply)
	if err != nil {
		b.mu.Unlock()
		return e.state.Value(), err
	}
	if _, err := e.state.Apply(flip); err != nil {
		b.mu.Unlock()
		return e.state.Value(), err
	}
	e.phase, e.err = phase, nil
	e.phase, _ = next(e.phase, evSend)
	e.gen++
	key := b.newKey()
	b.mu.Unlock()

	server, err := b.client.Toggle(ctx, workID, key)

	b.mu.Lock()
	defer b.mu.Unlock()
	e.gen++
	switch {
	case err == nil:
		e.state.Commit(server)
		e.phase, _ = next(e.phase, evConfirm)
		return server, nil
	case abandoned(ctx, err):
		// 服务端可能已经生效，本地既不能确认也不能回滚
		e.state.Rollback()
		e.phase, _ = next(e.phase, evAbandon)
		e.err = err
		return e.state.Value(), err
	default:
		e.phase, _ = next(e.phase, evFail)
		e.err = err
		return e.state.Rollback(), err
	}
}

// Refresh 取服务端当前值；unknown 状态只能由此恢复
func (b *Board) Refresh(ctx context.Context, workID string) (VoteState, error) {
	b.mu.Lock()
	e, ok := b.works[workID]
	if !ok {
		e = &entry{phase: PhaseIdle, state: NewOptimistic(VoteState{})}
		b.works[workID] = e
	}
	if e.phase.InFlight() {
		b.mu.Unlock()
		return e.state.Value(), ErrInFlight
	}
	gen := e.gen
	b.mu.Unlock()

	server, err := b.client.Fetch(ctx, workID)
	if err != nil {
		return VoteState{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if e.gen != gen {
		// Fetch 期间有切换开始或落定，读到的值可能早于那次结果，丢弃
		switch {
		case e.phase.InFlight():
			return e.state.Value(), ErrInFlight
		case e.phase == PhaseUnknown:
			return e.state.Value(), ErrNeedsRefresh
		default:
			return e.state.Value(), nil
		}
	}
	phase, err := next(e.phase, evRefresh)
	if err != nil {
		return e.state.Value(), err
	}
	e.state.Commit(server)
	e.phase, e.err = phase, nil
	return server, nil
}

func (b *Board) Snapshot(workID string) (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.works[workID]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{WorkID: workID, VoteState: e.state.Value(), Phase: e.phase, Err: e.err}, true
}

func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
