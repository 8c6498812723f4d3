package mysql

import (
	"context"
	"time"

	xerrors "Rodeo-Bot/internal/errors"
)

// Transaction 对应 transactions 表的一行，记录历史兑换/转账。
type Transaction struct {
	TxHash        string
	UserID        string
	WalletAddress string
	FromToken     string
	ToToken       string
	FromAmount    string
	ToAmount      string
	Status        string
	GasUsed       string
	Timestamp     int64
}

// SaveTransaction 插入交易记录，txHash 冲突时静默跳过。
func (s *Store) SaveTransaction(ctx context.Context, tx Transaction) error {
	if tx.Timestamp == 0 {
		tx.Timestamp = time.Now().UnixMilli()
	}
	const stmt = `INSERT IGNORE INTO transactions
        (txHash, userId, walletAddress, fromToken, toToken, fromAmount, toAmount, status, gasUsed, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, stmt,
		tx.TxHash, tx.UserID, tx.WalletAddress, tx.FromToken, tx.ToToken,
		tx.FromAmount, nullable(tx.ToAmount), tx.Status, nullable(tx.GasUsed), tx.Timestamp,
	); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入交易记录失败")
	}
	return nil
}

// ListUniqueTokensByUser 返回用户交易过的代币集合（小写、去重、排序），
// 排除原生币地址。
func (s *Store) ListUniqueTokensByUser(ctx context.Context, userID, nativeToken string) ([]string, error) {
	const query = `SELECT DISTINCT LOWER(token) AS token FROM (
            SELECT fromToken AS token FROM transactions WHERE userId = ? AND LOWER(fromToken) != LOWER(?)
            UNION
            SELECT toToken AS token FROM transactions WHERE userId = ? AND LOWER(toToken) != LOWER(?)
        ) AS tokens ORDER BY token`

	rows, err := s.db.QueryContext(ctx, query, userID, nativeToken, userID, nativeToken)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询代币列表失败")
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析代币列表失败")
		}
		symbols = append(symbols, token)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历代币列表失败")
	}
	return symbols, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
