// Package reconcile 客户端乐观更新与服务端真相的对账
package reconcile

import (
	"errors"
	"fmt"
)

// Phase 单个作品上一次操作所处的阶段
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseReconciling
	PhaseSettled
	PhaseRolledBack
	// PhaseUnknown 请求被放弃，本地状态不可信，必须先 Refresh
	PhaseUnknown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOptimistic:
		return "optimistic"
	case PhaseReconciling:
		return "reconciling"
	case PhaseSettled:
		return "settled"
	case PhaseRolledBack:
		return "rolled-back"
	case PhaseUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// InFlight 请求尚未落定，期间不接受新的切换
func (p Phase) InFlight() bool {
	return p == PhaseOptimistic || p == PhaseReconciling
}

type event int

const (
	evApply event = iota
	evSend
	evConfirm
	evFail
	evAbandon
	evRefresh
)

var (
	ErrInFlight     = errors.New("reconcile: previous action still in flight")
	ErrNeedsRefresh = errors.New("reconcile: state unknown, refresh first")
	ErrUnknownWork  = errors.New("reconcile: work not seeded")
)

// transitions 完整转移表；表外的组合一律非法
var transitions = map[Phase]map[event]Phase{
	PhaseIdle: {
		evApply:   PhaseOptimistic,
		evRefresh: PhaseSettled,
	},
	PhaseOptimistic: {
		evSend: PhaseReconciling,
		evFail: PhaseRolledBack,
	},
	PhaseReconciling: {
		evConfirm: PhaseSettled,
		evFail:    PhaseRolledBack,
		evAbandon: PhaseUnknown,
	},
	PhaseSettled: {
		evApply:   PhaseOptimistic,
		evRefresh: PhaseSettled,
	},
	PhaseRolledBack: {
		evApply:   PhaseOptimistic,
		evRefresh: PhaseSettled,
	},
	PhaseUnknown: {
		evRefresh: PhaseSettled,
	},
}

func next(p Phase, e event) (Phase, error) {
	if to, ok := transitions[p][e]; ok {
		return to, nil
	}
	switch {
	case p.InFlight():
		return p, ErrInFlight
	case p == PhaseUnknown:
		return p, ErrNeedsRefresh
	default:
		return p, fmt.Errorf("reconcile: illegal transition from %s", p)
	}
}
