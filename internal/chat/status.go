package chat

import (
	"context"
	"log/slog"
	"sync"

	"Rodeo-Bot/pkg/logger"
)

// StatusPhase 是状态消息的生命周期阶段。同一回合的状态消息只会沿
// Acknowledged -> Processing -> Resolved 单向推进，Resolved 之后的任何
// 编辑都会被拒绝，避免迟到的回合覆盖已定稿的回复。
type StatusPhase int

const (
	StatusAcknowledged StatusPhase = iota
	StatusProcessing
	StatusResolved
)

// Reporter 为每个回合维护唯一一条对用户可见的状态消息。
type Reporter struct {
	transport Transport
	log       *slog.Logger
}

// NewReporter 构造状态上报器。
func NewReporter(transport Transport) *Reporter {
	return &Reporter{
		transport: transport,
		log:       logger.Named("status"),
	}
}

// Status 绑定某条具体的状态消息，所有后续转换都作用在它上面。
type Status struct {
	mu       sync.Mutex
	reporter *Reporter
	ref      MessageRef
	phase    StatusPhase
}

// Acknowledge 发出初始的确认消息并返回其句柄。发送失败不会中断回合：
// 返回的句柄不持有消息引用，后续 Advance/Finalize 自动退化为发送新消息。
func (r *Reporter) Acknowledge(ctx context.Context, chatID int64, text string) *Status {
	status := &Status{reporter: r, phase: StatusAcknowledged}
	ref, err := r.transport.Send(ctx, chatID, text, ModePlain)
	if err != nil {
		r.log.Warn("发送确认消息失败", slog.Any("error", err), slog.Int64("chat_id", chatID))
		status.ref = MessageRef{ChatID: chatID}
		return status
	}
	status.ref = ref
	return status
}

// Advance 将状态消息原地改写为下一阶段的文案，绝不产生第二条消息。
// 编辑失败时吞掉错误并补发一条新消息，用户不应看到无声的停滞。
func (s *Status) Advance(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == StatusResolved {
		return
	}
	s.phase = StatusProcessing
	s.editOrResend(ctx, text, ModePlain)
}

// Finalize 写入终局文案并锁定状态，之后的编辑一律拒绝。
func (s *Status) Finalize(ctx context.Context, text, parseMode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == StatusResolved {
		return
	}
	s.phase = StatusResolved
	s.editOrResend(ctx, text, parseMode)
}

// Discard 删除状态消息并锁定状态。当下游处理器会渲染自己的完整回复
// 时使用，避免残留一条过时的占位消息。
func (s *Status) Discard(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == StatusResolved {
		return
	}
	s.phase = StatusResolved
	if s.ref.MessageID == 0 {
		return
	}
	if err := s.reporter.transport.Delete(ctx, s.ref); err != nil {
		s.reporter.log.Warn("删除状态消息失败", slog.Any("error", err),
			slog.Int64("chat_id", s.ref.ChatID), slog.Int("message_id", s.ref.MessageID))
	}
}

// Resolved 返回该回合是否已定稿。
func (s *Status) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == StatusResolved
}

// Ref 返回底层消息引用，仅供测试与日志使用。
func (s *Status) Ref() MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

func (s *Status) editOrResend(ctx context.Context, text, parseMode string) {
	if s.ref.MessageID != 0 {
		err := s.reporter.transport.Edit(ctx, s.ref, text, parseMode)
		if err == nil {
			return
		}
		s.reporter.log.Warn("编辑状态消息失败，改为补发", slog.Any("error", err),
			slog.Int64("chat_id", s.ref.ChatID), slog.Int("message_id", s.ref.MessageID))
	}
	ref, err := s.reporter.transport.Send(ctx, s.ref.ChatID, text, parseMode)
	if err != nil {
		s.reporter.log.Error("补发状态消息失败", slog.Any("error", err), slog.Int64("chat_id", s.ref.ChatID))
		return
	}
	s.ref = ref
}
