package intent

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	state, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("读取未知用户失败: %v", err)
	}
	if state.Phase != PhaseIdle {
		t.Fatalf("未知用户应为空闲态: %+v", state)
	}

	pending := Awaiting(IntentSendToken, Parameters{Recipient: "0xaaa"})
	if err := store.Put(ctx, 1, pending); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	got, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !got.IsAwaiting(IntentSendToken) || got.Collected.Recipient != "0xaaa" {
		t.Fatalf("状态不符: %+v", got)
	}

	// 不同用户互不可见。
	other, _ := store.Get(ctx, 2)
	if other.Phase != PhaseIdle {
		t.Fatalf("用户隔离被破坏: %+v", other)
	}

	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("清除失败: %v", err)
	}
	cleared, _ := store.Get(ctx, 1)
	if cleared.Phase != PhaseIdle {
		t.Fatalf("清除后应回到空闲: %+v", cleared)
	}
}

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	store, err := NewRedisSessionStore(RedisSessionConfig{
		Address: srv.Addr(),
		TTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("连接 Redis 失败: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, srv
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	state, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("读取未知用户失败: %v", err)
	}
	if state.Phase != PhaseIdle {
		t.Fatalf("未知用户应为空闲态: %+v", state)
	}

	pending := Awaiting(IntentSendToken, Parameters{Recipient: "0xbbb", TokenSymbol: "USDC"})
	if err := store.Put(ctx, 42, pending); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	got, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !got.IsAwaiting(IntentSendToken) || got.Collected.Recipient != "0xbbb" {
		t.Fatalf("状态不符: %+v", got)
	}

	if err := store.Clear(ctx, 42); err != nil {
		t.Fatalf("清除失败: %v", err)
	}
	cleared, _ := store.Get(ctx, 42)
	if cleared.Phase != PhaseIdle {
		t.Fatalf("清除后应回到空闲: %+v", cleared)
	}
}

func TestRedisSessionStoreCorruptedValue(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()

	srv.Set("rodeo:session:42", "{not json")

	state, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("损坏的状态应降级而不是报错: %v", err)
	}
	if state.Phase != PhaseIdle {
		t.Fatalf("损坏的状态应降级为空闲: %+v", state)
	}
}
