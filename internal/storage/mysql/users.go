package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"time"

	xerrors "Rodeo-Bot/internal/errors"
)

// User 对应 users 表的一行。
type User struct {
	UserID     string
	TelegramID string
	Username   string
	FirstName  string
	LastName   string
	CreatedAt  int64
}

// ErrNotFound 表示查询的记录不存在。
var ErrNotFound = xerrors.New(xerrors.CodeNotFound, "record not found")

// CreateUser 插入新用户，已存在时静默跳过。
func (s *Store) CreateUser(ctx context.Context, user User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().UnixMilli()
	}
	const stmt = `INSERT IGNORE INTO users (userId, telegramId, username, firstName, lastName, createdAt)
        VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, stmt,
		user.UserID, user.TelegramID, user.Username, user.FirstName, user.LastName, user.CreatedAt,
	); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入用户失败")
	}
	return nil
}

// GetUserByTelegramID 按 Telegram 标识查询用户。
func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID string) (*User, error) {
	const query = `SELECT userId, telegramId, username, firstName, lastName, createdAt
        FROM users WHERE telegramId = ?`

	var (
		user      User
		username  sql.NullString
		firstName sql.NullString
		lastName  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.UserID, &user.TelegramID, &username, &firstName, &lastName, &user.CreatedAt,
	)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询用户失败")
	}
	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	return &user, nil
}

// EnsureUser 保证用户存在，不存在时以给定信息创建。返回用户标识。
func (s *Store) EnsureUser(ctx context.Context, user User) (string, error) {
	existing, err := s.GetUserByTelegramID(ctx, user.TelegramID)
	if err == nil {
		return existing.UserID, nil
	}
	if !stdErrors.Is(err, ErrNotFound) {
		return "", err
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return "", err
	}
	return user.UserID, nil
}

// GetUser 按内部用户标识查询用户。
func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	const query = `SELECT userId, telegramId, username, firstName, lastName, createdAt
        FROM users WHERE userId = ?`

	var (
		user      User
		username  sql.NullString
		firstName sql.NullString
		lastName  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.TelegramID, &username, &firstName, &lastName, &user.CreatedAt,
	)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询用户失败")
	}
	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	return &user, nil
}
