package chat

import "context"

// ParseMode 常量与 Telegram Bot API 对齐，其他传输实现可以忽略。
const (
	ModePlain    = ""
	ModeMarkdown = "Markdown"
	ModeHTML     = "HTML"
)

// MessageRef 唯一标识一条已发出的消息。
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero 判断引用是否有效。
func (r MessageRef) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

// Turn 表示一次用户输入及其归属的会话，调度管线的基本处理单元。
type Turn struct {
	ChatID int64
	UserID int64
	Text   string
}

// Transport 抽象聊天平台的三个基础操作：发送、编辑、删除。实现方负责
// 同平台 API 打交道，管线层只依赖该接口。
type Transport interface {
	Send(ctx context.Context, chatID int64, text, parseMode string) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text, parseMode string) error
	Delete(ctx context.Context, ref MessageRef) error
}
