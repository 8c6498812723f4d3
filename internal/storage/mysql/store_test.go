package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("创建 sqlmock 失败: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStoreWithDB(db), mock
}

func expectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("SQL 期望未满足: %v", err)
	}
}

func TestEnsureUserReturnsExisting(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"userId", "telegramId", "username", "firstName", "lastName", "createdAt"}).
		AddRow("user-1", "12345", "alice", nil, nil, int64(1700000000000))
	mock.ExpectQuery("SELECT userId, telegramId, username, firstName, lastName, createdAt\\s+FROM users WHERE telegramId = ?").
		WithArgs("12345").
		WillReturnRows(rows)

	userID, err := store.EnsureUser(context.Background(), User{UserID: "fresh", TelegramID: "12345"})
	if err != nil {
		t.Fatalf("EnsureUser 失败: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("应返回已有用户: %q", userID)
	}
	expectations(t, mock)
}

func TestEnsureUserCreatesWhenMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM users WHERE telegramId = ?").
		WithArgs("12345").
		WillReturnRows(sqlmock.NewRows([]string{"userId"}))
	mock.ExpectExec("INSERT IGNORE INTO users").
		WithArgs("fresh", "12345", "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	userID, err := store.EnsureUser(context.Background(), User{UserID: "fresh", TelegramID: "12345"})
	if err != nil {
		t.Fatalf("EnsureUser 失败: %v", err)
	}
	if userID != "fresh" {
		t.Fatalf("应创建并返回新用户: %q", userID)
	}
	expectations(t, mock)
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM users WHERE userId = ?").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"userId"}))

	_, err := store.GetUser(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("应返回 ErrNotFound: %v", err)
	}
	expectations(t, mock)
}

func TestSaveWalletUpsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs("0xabc", "user-1", "ciphertext", "generated", int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveWallet(context.Background(), WalletRecord{
		Address:             "0xabc",
		UserID:              "user-1",
		EncryptedPrivateKey: "ciphertext",
		Type:                "generated",
		CreatedAt:           1700000000000,
	})
	if err != nil {
		t.Fatalf("SaveWallet 失败: %v", err)
	}
	expectations(t, mock)
}

func TestGetSettingsDefault(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM settings WHERE userId = ?").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"userId"}))

	settings, err := store.GetSettings(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetSettings 失败: %v", err)
	}
	if settings.Slippage != 0.5 || settings.GasPriority != "standard" {
		t.Fatalf("默认设置不符: %+v", settings)
	}
	expectations(t, mock)
}

func TestMarkWithdrawalSubmitted(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE withdrawals SET status = \\?, txHash = \\?").
		WithArgs(WithdrawalSubmitted, "0xhash", sqlmock.AnyArg(), "order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkWithdrawalSubmitted(context.Background(), "order-1", "0xhash"); err != nil {
		t.Fatalf("标记提交失败: %v", err)
	}
	expectations(t, mock)
}

func TestMarkWithdrawalFailedUnknownOrder(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE withdrawals SET status = \\?, lastError = \\?").
		WithArgs(WithdrawalFailed, "boom", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkWithdrawalFailed(context.Background(), "ghost", "boom")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("未知订单应返回 ErrNotFound: %v", err)
	}
	expectations(t, mock)
}

func TestGetWithdrawal(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "userId", "walletAddress", "recipient", "tokenSymbol",
		"amount", "status", "txHash", "lastError", "createdAt", "updatedAt",
	}).AddRow("order-1", "user-1", "0xabc", "0xdef", "USDC",
		"5", WithdrawalPending, nil, nil, int64(1), int64(1))
	mock.ExpectQuery("FROM withdrawals WHERE id = ?").
		WithArgs("order-1").
		WillReturnRows(rows)

	order, err := store.GetWithdrawal(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("读取订单失败: %v", err)
	}
	if order.Recipient != "0xdef" || order.Status != WithdrawalPending {
		t.Fatalf("订单内容不符: %+v", order)
	}
	expectations(t, mock)
}

func TestListUniqueTokensByUser(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"token"}).
		AddRow("0x1111111111111111111111111111111111111111").
		AddRow("0x2222222222222222222222222222222222222222")
	mock.ExpectQuery("SELECT DISTINCT LOWER\\(token\\)").
		WithArgs("user-1", "ETH", "user-1", "ETH").
		WillReturnRows(rows)

	symbols, err := store.ListUniqueTokensByUser(context.Background(), "user-1", "ETH")
	if err != nil {
		t.Fatalf("查询代币列表失败: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("代币数量不符: %v", symbols)
	}
	expectations(t, mock)
}

func TestSaveTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT IGNORE INTO transactions").
		WithArgs("0xtx", "user-1", "0xabc", "ETH", "USDC", "1", "4200", "confirmed", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveTransaction(context.Background(), Transaction{
		TxHash:        "0xtx",
		UserID:        "user-1",
		WalletAddress: "0xabc",
		FromToken:     "ETH",
		ToToken:       "USDC",
		FromAmount:    "1",
		ToAmount:      "4200",
		Status:        "confirmed",
	})
	if err != nil {
		t.Fatalf("写入交易失败: %v", err)
	}
	expectations(t, mock)
}
