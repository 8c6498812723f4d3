package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"

	xerrors "Rodeo-Bot/internal/errors"
)

// Settings 对应 settings 表的一行。
type Settings struct {
	UserID      string
	Slippage    float64
	GasPriority string
}

// DefaultSettings 是用户未配置时的交易参数。
func DefaultSettings(userID string) Settings {
	return Settings{UserID: userID, Slippage: 0.5, GasPriority: "standard"}
}

// SaveSettings 写入或更新用户设置。
func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	const stmt = `INSERT INTO settings (userId, slippage, gasPriority)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE slippage = VALUES(slippage), gasPriority = VALUES(gasPriority)`
	if _, err := s.db.ExecContext(ctx, stmt,
		settings.UserID, settings.Slippage, settings.GasPriority,
	); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入设置失败")
	}
	return nil
}

// GetSettings 查询用户设置，未配置时返回默认值。
func (s *Store) GetSettings(ctx context.Context, userID string) (Settings, error) {
	const query = `SELECT userId, slippage, gasPriority FROM settings WHERE userId = ?`

	var settings Settings
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID, &settings.Slippage, &settings.GasPriority,
	)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(userID), nil
	}
	if err != nil {
		return Settings{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询设置失败")
	}
	return settings, nil
}
