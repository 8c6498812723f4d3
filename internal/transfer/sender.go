package transfer

import (
	"context"

	xerrors "Rodeo-Bot/internal/errors"
	"Rodeo-Bot/internal/storage/mysql"
	"Rodeo-Bot/internal/tokens"
	"Rodeo-Bot/internal/wallet"
)

// WalletStore 抽象钱包记录的读取能力，由 mysql.Store 实现。
type WalletStore interface {
	GetWalletByAddress(ctx context.Context, address string) (*mysql.WalletRecord, error)
}

// ChainSender 用托管钱包的私钥在链上执行提现订单。
type ChainSender struct {
	client        *wallet.ChainClient
	registry      *tokens.Registry
	wallets       WalletStore
	network       string
	encryptionKey []byte
}

// NewChainSender 构造链上执行器。
func NewChainSender(client *wallet.ChainClient, registry *tokens.Registry, wallets WalletStore, network string, encryptionKey []byte) *ChainSender {
	return &ChainSender{
		client:        client,
		registry:      registry,
		wallets:       wallets,
		network:       network,
		encryptionKey: encryptionKey,
	}
}

var _ Sender = (*ChainSender)(nil)

// SendTransfer 解密订单钱包的私钥并提交转账，返回交易哈希。
func (s *ChainSender) SendTransfer(ctx context.Context, order mysql.Withdrawal) (string, error) {
	record, err := s.wallets.GetWalletByAddress(ctx, order.WalletAddress)
	if err != nil {
		return "", err
	}
	key, err := wallet.DecryptSigningKey(record.EncryptedPrivateKey, s.encryptionKey)
	if err != nil {
		return "", err
	}

	token, ok := s.registry.Resolve(s.network, order.TokenSymbol)
	if !ok {
		return "", xerrors.New(xerrors.CodeNotFound, "不支持的代币: "+order.TokenSymbol)
	}
	amount, err := wallet.ParseUnits(order.Amount, token.Decimals)
	if err != nil {
		return "", err
	}

	if s.registry.IsNative(s.network, order.TokenSymbol) {
		return s.client.SendNative(ctx, key, order.Recipient, amount)
	}
	return s.client.SendToken(ctx, key, token.Address, order.Recipient, amount)
}
