package transfer

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	xerrors "Rodeo-Bot/internal/errors"
	"Rodeo-Bot/internal/storage/mysql"
	"Rodeo-Bot/internal/wallet"
	"Rodeo-Bot/pkg/logger"
)

// Store 抽象提现订单与交易历史的持久化能力，由 mysql.Store 实现。
type Store interface {
	CreateWithdrawal(ctx context.Context, w mysql.Withdrawal) error
	GetWithdrawal(ctx context.Context, id string) (mysql.Withdrawal, error)
	MarkWithdrawalSubmitted(ctx context.Context, id, txHash string) error
	MarkWithdrawalFailed(ctx context.Context, id, reason string) error
	SaveTransaction(ctx context.Context, tx mysql.Transaction) error
}

// SubmitRequest 描述一次提现请求。
type SubmitRequest struct {
	UserID        string
	WalletAddress string
	Recipient     string
	TokenSymbol   string
	Amount        string
}

// Service 负责校验提现请求、落库并投递到执行队列。
type Service struct {
	store    Store
	producer Producer
	log      *slog.Logger
}

// NewService 构造提现服务。
func NewService(store Store, producer Producer) *Service {
	return &Service{
		store:    store,
		producer: producer,
		log:      logger.Named("transfer"),
	}
}

// Submit 校验并受理提现请求，返回订单 ID。
// 订单先落库再入队，确保消费侧总能读到完整记录。
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	recipient := strings.TrimSpace(req.Recipient)
	if !wallet.ValidAddress(recipient) {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "收款地址不合法")
	}
	amount := strings.TrimSpace(req.Amount)
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil || value <= 0 {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "转账金额必须为正数")
	}

	orderID := uuid.NewString()
	order := mysql.Withdrawal{
		ID:            orderID,
		UserID:        req.UserID,
		WalletAddress: req.WalletAddress,
		Recipient:     recipient,
		TokenSymbol:   strings.ToUpper(strings.TrimSpace(req.TokenSymbol)),
		Amount:        amount,
		Status:        mysql.WithdrawalPending,
	}
	if err := s.store.CreateWithdrawal(ctx, order); err != nil {
		return "", err
	}
	if err := s.producer.Publish(ctx, orderID); err != nil {
		reason := "入队失败: " + err.Error()
		if markErr := s.store.MarkWithdrawalFailed(ctx, orderID, reason); markErr != nil {
			s.log.Error("回写订单失败状态出错",
				slog.Any("error", markErr),
				slog.String("order_id", orderID))
		}
		return "", xerrors.Wrap(xerrors.CodeQueueFailure, err, "提现订单入队失败")
	}

	logger.Audit().Info("提现订单已受理",
		slog.String("order_id", orderID),
		slog.String("user_id", req.UserID),
		slog.String("recipient", recipient),
		slog.String("token", order.TokenSymbol),
		slog.String("amount", amount),
	)
	return orderID, nil
}
