package transfer

import (
	"context"
	stdErrors "errors"
	"log/slog"

	xerrors "Rodeo-Bot/internal/errors"
	"Rodeo-Bot/internal/storage/mysql"
	"Rodeo-Bot/pkg/logger"
)

// Sender 将提现订单提交到链上，返回交易哈希。
type Sender interface {
	SendTransfer(ctx context.Context, order mysql.Withdrawal) (string, error)
}

// Notifier 将订单结果推送给用户。failure 为 nil 表示成功。
type Notifier interface {
	NotifyWithdrawal(ctx context.Context, order mysql.Withdrawal, txHash string, failure error) error
}

// Processor 从队列消费提现订单并执行链上转账。
type Processor struct {
	store       Store
	consumer    Consumer
	sender      Sender
	notifier    Notifier
	workerCount int
	log         *slog.Logger
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithNotifier 配置结果通知器。
func WithNotifier(notifier Notifier) ProcessorOption {
	return func(p *Processor) {
		p.notifier = notifier
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(store Store, consumer Consumer, sender Sender, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:       store,
		consumer:    consumer,
		sender:      sender,
		workerCount: 1,
		log:         logger.Named("transfer.processor"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Start 启动订单处理循环，阻塞直到 ctx 取消。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "未配置订单消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, orderID string) error {
	order, err := p.store.GetWithdrawal(ctx, orderID)
	if err != nil {
		if stdErrors.Is(err, mysql.ErrNotFound) {
			p.log.Debug("跳过未知订单", slog.String("order_id", orderID))
			return nil
		}
		p.log.Error("读取提现订单失败", slog.Any("error", err), slog.String("order_id", orderID))
		return err
	}
	if order.Status != mysql.WithdrawalPending {
		p.log.Debug("跳过已处理订单",
			slog.String("order_id", orderID),
			slog.String("status", order.Status))
		return nil
	}

	txHash, sendErr := p.sender.SendTransfer(ctx, order)
	if sendErr != nil {
		if markErr := p.store.MarkWithdrawalFailed(ctx, orderID, sendErr.Error()); markErr != nil {
			p.log.Error("标记订单失败状态出错", slog.Any("error", markErr), slog.String("order_id", orderID))
			return markErr
		}
		logger.Audit().Warn("提现执行失败",
			slog.String("order_id", orderID),
			slog.String("user_id", order.UserID),
			slog.String("error", sendErr.Error()),
			slog.String("error_code", string(xerrors.CodeOf(sendErr))),
		)
		p.notify(ctx, order, "", sendErr)
		return nil
	}

	if err := p.store.MarkWithdrawalSubmitted(ctx, orderID, txHash); err != nil {
		p.log.Error("标记订单成功状态出错", slog.Any("error", err), slog.String("order_id", orderID))
		return err
	}
	// 交易历史为尽力而为：落库失败不影响订单终态。
	if err := p.store.SaveTransaction(ctx, mysql.Transaction{
		TxHash:        txHash,
		UserID:        order.UserID,
		WalletAddress: order.WalletAddress,
		FromToken:     order.TokenSymbol,
		ToToken:       order.TokenSymbol,
		FromAmount:    order.Amount,
		ToAmount:      order.Amount,
		Status:        "confirmed",
	}); err != nil {
		p.log.Warn("写入交易历史失败", slog.Any("error", err), slog.String("order_id", orderID))
	}
	logger.Audit().Info("提现已上链",
		slog.String("order_id", orderID),
		slog.String("user_id", order.UserID),
		slog.String("tx_hash", txHash),
		slog.String("token", order.TokenSymbol),
		slog.String("amount", order.Amount),
	)
	p.notify(ctx, order, txHash, nil)
	return nil
}

func (p *Processor) notify(ctx context.Context, order mysql.Withdrawal, txHash string, failure error) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyWithdrawal(ctx, order, txHash, failure); err != nil {
		p.log.Warn("通知用户失败",
			slog.Any("error", err),
			slog.String("order_id", order.ID))
	}
}
