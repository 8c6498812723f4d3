// Package bot 负责 Telegram 更新循环：命令路由、合约地址速查与自由
// 文本到调度管线的接入。
package bot

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"Rodeo-Bot/internal/chat"
	"Rodeo-Bot/internal/chat/telegram"
	"Rodeo-Bot/internal/intent"
	"Rodeo-Bot/pkg/logger"
)

const msgComingSoon = "🚧 Buy/Sell is coming soon. Stay tuned!"

// contractAddressPattern 匹配独立发送的以太坊合约地址。
var contractAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Bot 驱动 Telegram 更新循环，把每条更新分派给对应的处理入口。
type Bot struct {
	client     *telegram.Client
	cfg        telegram.Config
	dispatcher *intent.Dispatcher
	handlers   *Handlers
	sessions   intent.SessionStore
	log        *slog.Logger
}

// New 构造 Bot。
func New(client *telegram.Client, cfg telegram.Config, dispatcher *intent.Dispatcher, handlers *Handlers, sessions intent.SessionStore) *Bot {
	return &Bot{
		client:     client,
		cfg:        cfg,
		dispatcher: dispatcher,
		handlers:   handlers,
		sessions:   sessions,
		log:        logger.Named("bot"),
	}
}

// Run 启动长轮询循环，阻塞直到 ctx 取消。每条更新在独立协程中处理。
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("Telegram Bot 已启动", slog.String("username", b.client.Username()))
	updates := b.client.Updates(b.cfg)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("更新处理 panic", slog.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	turn := chat.Turn{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		Text:   strings.TrimSpace(msg.Text),
	}
	if turn.Text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, turn, msg.Command())
		return
	}

	// 独立发送的合约地址不走意图抽取，直接渲染代币信息卡片。处于
	// 收集流中的用户除外：此时地址是收款人答复，必须交给调度器。
	if contractAddressPattern.MatchString(turn.Text) && !b.awaitingParameter(ctx, turn.UserID) {
		b.run(ctx, turn, func() error {
			return b.handlers.TokenInfo(ctx, turn, turn.Text)
		})
		return
	}

	b.dispatcher.HandleText(ctx, turn)
}

func (b *Bot) handleCommand(ctx context.Context, turn chat.Turn, command string) {
	switch command {
	case "start", "help":
		b.run(ctx, turn, func() error { return b.handlers.Greet(ctx, turn) })
	case "wallet", "deposit":
		b.run(ctx, turn, func() error { return b.handlers.ShowAddress(ctx, turn) })
	case "balance":
		b.run(ctx, turn, func() error { return b.handlers.ShowBalance(ctx, turn) })
	case "withdraw":
		b.beginWithdraw(ctx, turn)
	case "settings":
		b.run(ctx, turn, func() error { return b.handlers.ShowSettings(ctx, turn) })
	case "buy", "sell":
		b.reply(ctx, turn.ChatID, msgComingSoon)
	default:
		b.run(ctx, turn, func() error { return b.handlers.Greet(ctx, turn) })
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.From == nil {
		return
	}
	turn := chat.Turn{
		ChatID: callback.Message.Chat.ID,
		UserID: callback.From.ID,
	}

	switch callback.Data {
	case "check_balance":
		b.run(ctx, turn, func() error { return b.handlers.ShowBalance(ctx, turn) })
	case "deposit":
		b.run(ctx, turn, func() error { return b.handlers.ShowAddress(ctx, turn) })
	case "withdraw":
		b.beginWithdraw(ctx, turn)
	case "buy_token":
		b.reply(ctx, turn.ChatID, msgComingSoon)
	}
}

// awaitingParameter 判断用户是否处于槽位收集流中。
func (b *Bot) awaitingParameter(ctx context.Context, userID int64) bool {
	state, err := b.sessions.Get(ctx, userID)
	if err != nil {
		return false
	}
	return state.IsAwaiting(intent.IntentSendToken)
}

// beginWithdraw 显式进入转账收集流，效果等同于一条缺少全部槽位的
// send_token 意图。
func (b *Bot) beginWithdraw(ctx context.Context, turn chat.Turn) {
	if err := b.sessions.Put(ctx, turn.UserID, intent.Awaiting(intent.IntentSendToken, intent.Parameters{})); err != nil {
		b.log.Warn("写入会话状态失败", slog.Any("error", err), slog.Int64("user_id", turn.UserID))
	}
	b.run(ctx, turn, func() error { return b.handlers.Begin(ctx, turn) })
}

func (b *Bot) run(ctx context.Context, turn chat.Turn, fn func() error) {
	if err := fn(); err != nil {
		b.log.Error("处理入口执行失败",
			slog.Any("error", err),
			slog.Int64("user_id", turn.UserID))
		b.reply(ctx, turn.ChatID, msgGenericError)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.handlers.transport.Send(ctx, chatID, text, chat.ModePlain); err != nil {
		b.log.Warn("发送消息失败", slog.Any("error", err), slog.Int64("chat_id", chatID))
	}
}
