package intent

import (
	"context"
	"sync"
)

// MemorySessionStore 以内存方式保存会话状态，是默认驱动，同时用于测试。
type MemorySessionStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemorySessionStore 创建 MemorySessionStore。
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{states: make(map[int64]State)}
}

// Get 返回用户当前状态，未记录的用户视为空闲。
func (m *MemorySessionStore) Get(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[userID]
	if !ok {
		return Idle(), nil
	}
	return state, nil
}

// Put 覆盖用户状态。
func (m *MemorySessionStore) Put(_ context.Context, userID int64, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = state
	return nil
}

// Clear 将用户恢复到空闲。
func (m *MemorySessionStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// Close 对内存存储无需操作。
func (m *MemorySessionStore) Close() error {
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)
