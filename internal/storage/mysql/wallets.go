package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"

	xerrors "Rodeo-Bot/internal/errors"
)

// WalletRecord 对应 wallets 表的一行。私钥恒为密文。
type WalletRecord struct {
	Address             string
	UserID              string
	EncryptedPrivateKey string
	Type                string
	CreatedAt           int64
}

// SaveWallet 写入或更新钱包记录。
func (s *Store) SaveWallet(ctx context.Context, record WalletRecord) error {
	const stmt = `INSERT INTO wallets (address, userId, encryptedPrivateKey, type, createdAt)
        VALUES (?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
        userId = VALUES(userId), encryptedPrivateKey = VALUES(encryptedPrivateKey),
        type = VALUES(type), createdAt = VALUES(createdAt)`
	if _, err := s.db.ExecContext(ctx, stmt,
		record.Address, record.UserID, record.EncryptedPrivateKey, record.Type, record.CreatedAt,
	); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入钱包失败")
	}
	return nil
}

// GetWalletByUserID 查询用户的钱包。
func (s *Store) GetWalletByUserID(ctx context.Context, userID string) (*WalletRecord, error) {
	const query = `SELECT address, userId, encryptedPrivateKey, type, createdAt
        FROM wallets WHERE userId = ?`
	return s.scanWallet(s.db.QueryRowContext(ctx, query, userID))
}

// GetWalletByAddress 按地址查询钱包。
func (s *Store) GetWalletByAddress(ctx context.Context, address string) (*WalletRecord, error) {
	const query = `SELECT address, userId, encryptedPrivateKey, type, createdAt
        FROM wallets WHERE address = ?`
	return s.scanWallet(s.db.QueryRowContext(ctx, query, address))
}

func (s *Store) scanWallet(row *sql.Row) (*WalletRecord, error) {
	var record WalletRecord
	err := row.Scan(&record.Address, &record.UserID, &record.EncryptedPrivateKey, &record.Type, &record.CreatedAt)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询钱包失败")
	}
	return &record, nil
}
