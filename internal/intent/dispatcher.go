package intent

import (
	"context"
	"log/slog"

	"Rodeo-Bot/internal/chat"
	xerrors "Rodeo-Bot/internal/errors"
	"Rodeo-Bot/pkg/logger"
)

// 用户可见文案，与历史版本保持逐字一致。
const (
	msgThinking   = "💡 Thinking..."
	msgProcessing = "⏳ Processing instruction..."
	msgRephrase   = "❌ Unable to fetch data for your query. Please try rephrasing."
)

// CodeUnresolved 表示意图抽取没有得到可用结果（网络失败、超时或载荷
// 不合法），调用方统一按 rephrase 出口处理。
const CodeUnresolved xerrors.Code = "NLU_UNRESOLVED"

func init() {
	xerrors.Register(CodeUnresolved, xerrors.Attributes{
		Message:   "intent extraction unresolved",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
	})
}

// ErrUnresolved 是意图抽取失败的哨兵错误。
var ErrUnresolved = xerrors.New(CodeUnresolved, "intent extraction unresolved")

// Extractor 是调度器对上游 AI 后端的全部依赖：意图抽取与兜底问答。
// 两个调用都不在本层重试，失败以 ErrUnresolved 返回。
type Extractor interface {
	ExtractIntent(ctx context.Context, text string) (*UserAction, error)
	AskGeneral(ctx context.Context, query string) (string, error)
}

// BalanceHandler 渲染余额总览，自行产出对用户可见的回复。
type BalanceHandler interface {
	ShowBalance(ctx context.Context, turn chat.Turn) error
}

// WalletHandler 渲染钱包地址（含按需建仓）。
type WalletHandler interface {
	ShowAddress(ctx context.Context, turn chat.Turn) error
}

// TransferHandler 承接转账意图的三个入口：从头收集、补问金额、全量
// 派发。前两个入口各自渲染提示语。
type TransferHandler interface {
	Begin(ctx context.Context, turn chat.Turn) error
	PromptAmount(ctx context.Context, turn chat.Turn, recipient string) error
	Execute(ctx context.Context, turn chat.Turn, params Parameters) error
}

// Handlers 汇总全部下游处理器。
type Handlers struct {
	Balance  BalanceHandler
	Wallet   WalletHandler
	Transfer TransferHandler
}

// Dispatcher 是意图解析与派发管线的编排者。每个回合：确认、抽取意图、
// 合并待定槽位、路由到唯一的下游出口。任何失败路径都会以某条用户可见
// 的消息收尾，绝不把 Processing 占位符留在屏幕上。
type Dispatcher struct {
	extractor Extractor
	sessions  SessionStore
	handlers  Handlers
	reporter  *chat.Reporter
	log       *slog.Logger
}

// NewDispatcher 构造调度器。
func NewDispatcher(extractor Extractor, sessions SessionStore, reporter *chat.Reporter, handlers Handlers) *Dispatcher {
	return &Dispatcher{
		extractor: extractor,
		sessions:  sessions,
		handlers:  handlers,
		reporter:  reporter,
		log:       logger.Named("dispatcher"),
	}
}

// HandleText 处理一条自由文本输入，实现单回合状态机。
func (d *Dispatcher) HandleText(ctx context.Context, turn chat.Turn) {
	status := d.reporter.Acknowledge(ctx, turn.ChatID, msgThinking)

	// 下游处理器抛出的任何 panic 都在此兜底，回合必须有终局文案。
	// 状态消息此时可能已被 Discard，统一走 failTurn 补发。
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("下游处理器 panic", slog.Any("panic", r), slog.Int64("user_id", turn.UserID))
			d.failTurn(ctx, turn, status)
		}
	}()

	status.Advance(ctx, msgProcessing)

	action, err := d.extractor.ExtractIntent(ctx, turn.Text)
	if err != nil || action == nil {
		// 抽取失败不清除进行中的收集流：偶发的上游抖动不应
		// 丢掉用户已经提供的槽位。
		d.log.Info("意图抽取未得出结果", slog.Any("error", err), slog.Int64("user_id", turn.UserID))
		status.Finalize(ctx, msgRephrase, chat.ModePlain)
		return
	}

	logger.Audit().Info("intent resolved",
		slog.Int64("user_id", turn.UserID),
		slog.String("intent", string(action.Intent)),
		slog.Float64("confidence", action.Confidence),
	)

	switch action.Intent {
	case IntentCheckBalance:
		d.clearPending(ctx, turn.UserID)
		status.Discard(ctx)
		d.invoke(ctx, turn, status, func() error {
			return d.handlers.Balance.ShowBalance(ctx, turn)
		})

	case IntentWalletAddress:
		d.clearPending(ctx, turn.UserID)
		status.Discard(ctx)
		d.invoke(ctx, turn, status, func() error {
			return d.handlers.Wallet.ShowAddress(ctx, turn)
		})

	case IntentOther:
		response, err := d.extractor.AskGeneral(ctx, turn.Text)
		if err != nil || response == "" {
			status.Finalize(ctx, msgRephrase, chat.ModePlain)
			return
		}
		status.Finalize(ctx, response, chat.ModePlain)

	case IntentSendToken:
		d.handleSendToken(ctx, turn, status, action.Parameters)

	case IntentSwapToken:
		// 预留分支：明确拒绝，绝不落入兜底问答。
		d.log.Info("收到预留意图 swap_token", slog.Int64("user_id", turn.UserID))
		status.Finalize(ctx, msgRephrase, chat.ModePlain)

	default:
		status.Finalize(ctx, msgRephrase, chat.ModePlain)
	}
}

// handleSendToken 处理多步的转账收集流。缺槽检查按固定顺序进行：
// recipient 先于 amount，两者都缺时只提示 recipient。
func (d *Dispatcher) handleSendToken(ctx context.Context, turn chat.Turn, status *chat.Status, incoming Parameters) {
	pending := d.pendingFor(ctx, turn.UserID, IntentSendToken)
	merged := Merge(pending, incoming)
	missing := Missing(IntentSendToken, merged)

	switch {
	case len(missing) == 0:
		d.clearPending(ctx, turn.UserID)
		status.Discard(ctx)
		d.invoke(ctx, turn, status, func() error {
			return d.handlers.Transfer.Execute(ctx, turn, merged)
		})

	case missing[0] == SlotRecipient:
		// 收款人未知时转账流程从头开始，由入口流程自己提问。
		d.putPending(ctx, turn.UserID, Awaiting(IntentSendToken, Parameters{}))
		status.Discard(ctx)
		d.invoke(ctx, turn, status, func() error {
			return d.handlers.Transfer.Begin(ctx, turn)
		})

	default:
		d.putPending(ctx, turn.UserID, Awaiting(IntentSendToken, Parameters{Recipient: merged.Recipient}))
		status.Discard(ctx)
		recipient := merged.Recipient
		d.invoke(ctx, turn, status, func() error {
			return d.handlers.Transfer.PromptAmount(ctx, turn, recipient)
		})
	}
}

// invoke 调用下游处理器并在失败时补出终局文案。状态消息可能已被删除，
// 此时补发一条新的失败消息。
func (d *Dispatcher) invoke(ctx context.Context, turn chat.Turn, status *chat.Status, fn func() error) {
	if err := fn(); err != nil {
		wrapped := xerrors.Wrap(xerrors.CodeHandlerFailure, err, "下游处理器执行失败")
		d.log.Error("下游处理器执行失败", slog.Any("error", wrapped), slog.Int64("user_id", turn.UserID))
		d.failTurn(ctx, turn, status)
	}
}

func (d *Dispatcher) failTurn(ctx context.Context, turn chat.Turn, status *chat.Status) {
	if status != nil && !status.Resolved() {
		status.Finalize(ctx, msgRephrase, chat.ModePlain)
		return
	}
	d.reporter.Acknowledge(ctx, turn.ChatID, msgRephrase)
}

// pendingFor 读取用户在指定意图下已收集的槽位，存储故障降级为空集。
func (d *Dispatcher) pendingFor(ctx context.Context, userID int64, it Intent) Parameters {
	state, err := d.sessions.Get(ctx, userID)
	if err != nil {
		d.log.Warn("读取会话状态失败", slog.Any("error", err), slog.Int64("user_id", userID))
		return Parameters{}
	}
	if !state.IsAwaiting(it) {
		return Parameters{}
	}
	return state.Collected
}

func (d *Dispatcher) putPending(ctx context.Context, userID int64, state State) {
	if err := d.sessions.Put(ctx, userID, state); err != nil {
		d.log.Warn("写入会话状态失败", slog.Any("error", err), slog.Int64("user_id", userID))
	}
}

func (d *Dispatcher) clearPending(ctx context.Context, userID int64) {
	if err := d.sessions.Clear(ctx, userID); err != nil {
		d.log.Warn("清除会话状态失败", slog.Any("error", err), slog.Int64("user_id", userID))
	}
}
