// Package telegram 通过 Telegram Bot API 实现 chat.Transport。
package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"Rodeo-Bot/internal/chat"
	xerrors "Rodeo-Bot/internal/errors"
)

// Config 描述 Telegram 连接参数。
type Config struct {
	Token         string
	UpdateTimeout int
	Debug         bool
}

// Client 封装 *tgbotapi.BotAPI，提供统一的消息发送、编辑与删除。
type Client struct {
	api *tgbotapi.BotAPI
}

var _ chat.Transport = (*Client)(nil)

// New 连接 Telegram 并验证 Token。
func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置 Telegram Bot Token")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeTransportFailure, err, "创建 Telegram Bot 失败")
	}
	api.Debug = cfg.Debug
	return &Client{api: api}, nil
}

// Username 返回 Bot 的用户名。
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Updates 返回长轮询的更新通道。
func (c *Client) Updates(cfg Config) tgbotapi.UpdatesChannel {
	timeout := cfg.UpdateTimeout
	if timeout <= 0 {
		timeout = 60
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return c.api.GetUpdatesChan(u)
}

// Send 发送一条新消息并返回其引用。
func (c *Client) Send(ctx context.Context, chatID int64, text, parseMode string) (chat.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	sent, err := c.api.Send(msg)
	if err != nil {
		return chat.MessageRef{}, xerrors.Wrap(xerrors.CodeTransportFailure, err, "发送消息失败")
	}
	return chat.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// SendKeyboard 发送带内联键盘的消息。
func (c *Client) SendKeyboard(ctx context.Context, chatID int64, text, parseMode string, keyboard tgbotapi.InlineKeyboardMarkup) (chat.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	msg.ReplyMarkup = keyboard
	sent, err := c.api.Send(msg)
	if err != nil {
		return chat.MessageRef{}, xerrors.Wrap(xerrors.CodeTransportFailure, err, "发送消息失败")
	}
	return chat.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit 原地修改已发送的消息。
func (c *Client) Edit(ctx context.Context, ref chat.MessageRef, text, parseMode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = parseMode
	if _, err := c.api.Send(edit); err != nil {
		return xerrors.Wrap(xerrors.CodeTransportFailure, err, "编辑消息失败")
	}
	return nil
}

// Delete 删除已发送的消息。
func (c *Client) Delete(ctx context.Context, ref chat.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return xerrors.Wrap(xerrors.CodeTransportFailure, err, "删除消息失败")
	}
	return nil
}

// Close 停止接收更新。
func (c *Client) Close() {
	if c != nil && c.api != nil {
		c.api.StopReceivingUpdates()
	}
}
