package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	xerrors "Rodeo-Bot/internal/errors"
)

// RedisSessionConfig 描述 Redis 会话存储的连接参数。
type RedisSessionConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisSessionStore 将会话状态以 JSON 形式存放在 Redis，多实例部署时
// 共享待定动作。状态带 TTL，长时间无后续输入的收集流自动过期。
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore 创建 Redis 会话存储。
func NewRedisSessionStore(cfg RedisSessionConfig) (*RedisSessionStore, error) {
	if cfg.Address == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "Redis address 不能为空")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "rodeo:session"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 Redis 失败")
	}
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *RedisSessionStore) key(userID int64) string {
	return fmt.Sprintf("%s:%d", r.prefix, userID)
}

// Get 读取用户状态，键不存在视为空闲。
func (r *RedisSessionStore) Get(ctx context.Context, userID int64) (State, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return Idle(), nil
	}
	if err != nil {
		return Idle(), xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取会话状态失败")
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// 损坏的状态按空闲处理，用户最多重新发起一次收集流。
		return Idle(), nil
	}
	return state, nil
}

// Put 覆盖用户状态并刷新 TTL。
func (r *RedisSessionStore) Put(ctx context.Context, userID int64, state State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化会话状态失败")
	}
	if err := r.client.Set(ctx, r.key(userID), encoded, r.ttl).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入会话状态失败")
	}
	return nil
}

// Clear 删除用户状态。
func (r *RedisSessionStore) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "清除会话状态失败")
	}
	return nil
}

// Close 关闭 Redis 连接。
func (r *RedisSessionStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

var _ SessionStore = (*RedisSessionStore)(nil)
