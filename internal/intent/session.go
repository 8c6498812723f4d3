package intent

import (
	"context"
	"time"
)

// Phase 表示某个用户当前的会话阶段。
type Phase string

const (
	// PhaseIdle 表示该用户没有进行中的多步动作。
	PhaseIdle Phase = "idle"
	// PhaseAwaitingParameter 表示某个多步意图仍有必填槽位未收集。
	PhaseAwaitingParameter Phase = "awaiting_parameter"
)

// State 保存单个用户的待定动作。所有槽位集齐并派发成功后销毁；用户
// 发起新的无关指令时废弃。
type State struct {
	Phase     Phase      `json:"phase"`
	Intent    Intent     `json:"intent,omitempty"`
	Collected Parameters `json:"collected"`
	UpdatedAt int64      `json:"updated_at"`
}

// Idle 返回空闲状态。
func Idle() State {
	return State{Phase: PhaseIdle}
}

// Awaiting 构造一个待收集槽位的状态。
func Awaiting(it Intent, collected Parameters) State {
	return State{
		Phase:     PhaseAwaitingParameter,
		Intent:    it,
		Collected: collected,
		UpdatedAt: time.Now().Unix(),
	}
}

// IsAwaiting 判断该状态是否在等待指定意图的槽位。
func (s State) IsAwaiting(it Intent) bool {
	return s.Phase == PhaseAwaitingParameter && s.Intent == it
}

// SessionStore 按用户标识保存待定动作状态，保证并发用户互不干扰。
type SessionStore interface {
	Get(ctx context.Context, userID int64) (State, error)
	Put(ctx context.Context, userID int64, state State) error
	Clear(ctx context.Context, userID int64) error
	Close() error
}
