package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	xerrors "Rodeo-Bot/internal/errors"
)

// 提现订单状态流转：pending -> submitted / failed。
const (
	WithdrawalPending   = "pending"
	WithdrawalSubmitted = "submitted"
	WithdrawalFailed    = "failed"
)

// Withdrawal 对应 withdrawals 表的一行，即一个待执行的转账订单。
type Withdrawal struct {
	ID            string
	UserID        string
	WalletAddress string
	Recipient     string
	TokenSymbol   string
	Amount        string
	Status        string
	TxHash        string
	LastError     string
	CreatedAt     int64
	UpdatedAt     int64
}

// CreateWithdrawal 持久化一个新的提现订单，初始状态为 pending。
func (s *Store) CreateWithdrawal(ctx context.Context, w Withdrawal) error {
	now := time.Now().UnixMilli()
	if w.CreatedAt == 0 {
		w.CreatedAt = now
	}
	if w.UpdatedAt == 0 {
		w.UpdatedAt = now
	}
	if w.Status == "" {
		w.Status = WithdrawalPending
	}
	const stmt = `INSERT INTO withdrawals
        (id, userId, walletAddress, recipient, tokenSymbol, amount, status, txHash, lastError, createdAt, updatedAt)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, stmt,
		w.ID, w.UserID, w.WalletAddress, w.Recipient, w.TokenSymbol,
		w.Amount, w.Status, nullable(w.TxHash), nullable(w.LastError), w.CreatedAt, w.UpdatedAt,
	); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入提现订单失败")
	}
	return nil
}

// GetWithdrawal 按订单 ID 读取提现订单。
func (s *Store) GetWithdrawal(ctx context.Context, id string) (Withdrawal, error) {
	const query = `SELECT id, userId, walletAddress, recipient, tokenSymbol, amount, status, txHash, lastError, createdAt, updatedAt
        FROM withdrawals WHERE id = ?`

	var (
		w         Withdrawal
		txHash    sql.NullString
		lastError sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.UserID, &w.WalletAddress, &w.Recipient, &w.TokenSymbol,
		&w.Amount, &w.Status, &txHash, &lastError, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Withdrawal{}, ErrNotFound
	}
	if err != nil {
		return Withdrawal{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询提现订单失败")
	}
	w.TxHash = txHash.String
	w.LastError = lastError.String
	return w, nil
}

// MarkWithdrawalSubmitted 将订单标记为已上链，记录交易哈希。
func (s *Store) MarkWithdrawalSubmitted(ctx context.Context, id, txHash string) error {
	const stmt = `UPDATE withdrawals SET status = ?, txHash = ?, updatedAt = ? WHERE id = ?`
	return s.updateWithdrawal(ctx, stmt, WithdrawalSubmitted, txHash, id)
}

// MarkWithdrawalFailed 将订单标记为失败，记录失败原因。
func (s *Store) MarkWithdrawalFailed(ctx context.Context, id, reason string) error {
	const stmt = `UPDATE withdrawals SET status = ?, lastError = ?, updatedAt = ? WHERE id = ?`
	return s.updateWithdrawal(ctx, stmt, WithdrawalFailed, reason, id)
}

func (s *Store) updateWithdrawal(ctx context.Context, stmt, status, detail, id string) error {
	res, err := s.db.ExecContext(ctx, stmt, status, nullable(detail), time.Now().UnixMilli(), id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新提现订单失败")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
