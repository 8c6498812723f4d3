package mysql

import (
	"context"
	"database/sql"

	xerrors "Rodeo-Bot/internal/errors"
)

// Store 聚合全部仓库操作，共享同一个连接池。
type Store struct {
	db *sql.DB
}

// NewStore 创建连接池并初始化数据表。
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStoreWithDB 直接包装已有连接，测试使用。
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close 关闭底层连接池。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        userId VARCHAR(64) PRIMARY KEY,
        telegramId VARCHAR(64) NOT NULL,
        username VARCHAR(255),
        firstName VARCHAR(255),
        lastName VARCHAR(255),
        createdAt BIGINT NOT NULL,
        INDEX idx_telegram_id (telegramId)
)`,
	`CREATE TABLE IF NOT EXISTS wallets (
        address VARCHAR(64) PRIMARY KEY,
        userId VARCHAR(64) NOT NULL,
        encryptedPrivateKey TEXT NOT NULL,
        type VARCHAR(32) NOT NULL,
        createdAt BIGINT NOT NULL,
        INDEX idx_wallet_user (userId)
)`,
	`CREATE TABLE IF NOT EXISTS settings (
        userId VARCHAR(64) PRIMARY KEY,
        slippage DOUBLE NOT NULL,
        gasPriority VARCHAR(32) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS transactions (
        txHash VARCHAR(128) PRIMARY KEY,
        userId VARCHAR(64) NOT NULL,
        walletAddress VARCHAR(64) NOT NULL,
        fromToken VARCHAR(128) NOT NULL,
        toToken VARCHAR(128) NOT NULL,
        fromAmount VARCHAR(78) NOT NULL,
        toAmount VARCHAR(78),
        status VARCHAR(32) NOT NULL,
        gasUsed VARCHAR(78),
        timestamp BIGINT NOT NULL,
        INDEX idx_tx_user (userId),
        INDEX idx_tx_timestamp (timestamp)
)`,
	`CREATE TABLE IF NOT EXISTS withdrawals (
        id VARCHAR(64) PRIMARY KEY,
        userId VARCHAR(64) NOT NULL,
        walletAddress VARCHAR(64) NOT NULL,
        recipient VARCHAR(64) NOT NULL,
        tokenSymbol VARCHAR(32) NOT NULL,
        amount VARCHAR(78) NOT NULL,
        status VARCHAR(32) NOT NULL,
        txHash VARCHAR(128),
        lastError TEXT,
        createdAt BIGINT NOT NULL,
        updatedAt BIGINT NOT NULL,
        INDEX idx_withdraw_user (userId),
        INDEX idx_withdraw_status (status)
)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化数据表失败")
		}
	}
	return nil
}
