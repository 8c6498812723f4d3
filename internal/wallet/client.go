package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	xerrors "Rodeo-Bot/internal/errors"
)

// erc20ABI 只保留余额读取与转账所需的片段。
const erc20ABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// ChainClient 封装链上访问：余额查询与转账提交。
type ChainClient struct {
	rpcClient *gethrpc.Client
	eth       *ethclient.Client
	erc20     abi.ABI
}

// NewChainClient 连接配置的 RPC 节点。
func NewChainClient(ctx context.Context, rpcURL string) (*ChainClient, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置以太坊 RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeTransportFailure, err, "连接以太坊节点失败")
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		rpcClient.Close()
		return nil, xerrors.Wrap(xerrors.CodeUnknown, err, "解析 ERC-20 ABI 失败")
	}

	return &ChainClient{
		rpcClient: rpcClient,
		eth:       ethclient.NewClient(rpcClient),
		erc20:     parsed,
	}, nil
}

// Close 释放底层连接。
func (c *ChainClient) Close() {
	if c == nil {
		return
	}
	if c.eth != nil {
		c.eth.Close()
	}
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// NativeBalance 查询地址的原生币余额（wei）。
func (c *ChainClient) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "地址不合法")
	}
	balance, err := c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeTransportFailure, err, "查询余额失败")
	}
	return balance, nil
}

// TokenBalance 通过 balanceOf 查询 ERC-20 余额（最小单位）。
func (c *ChainClient) TokenBalance(ctx context.Context, tokenAddress, holder string) (*big.Int, error) {
	if !common.IsHexAddress(tokenAddress) || !common.IsHexAddress(holder) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "地址不合法")
	}

	input, err := c.erc20.Pack("balanceOf", common.HexToAddress(holder))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUnknown, err, "编码 balanceOf 调用失败")
	}

	contract := common.HexToAddress(tokenAddress)
	output, err := c.eth.CallContract(ctx, gethcore.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeTransportFailure, err, "调用 balanceOf 失败")
	}

	results, err := c.erc20.Unpack("balanceOf", output)
	if err != nil || len(results) == 0 {
		return nil, xerrors.Wrap(xerrors.CodeMalformedResponse, err, "解析 balanceOf 结果失败")
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, xerrors.New(xerrors.CodeMalformedResponse, "balanceOf 返回了意外的类型")
	}
	return balance, nil
}

// SendNative 发送原生币转账并返回交易哈希。
func (c *ChainClient) SendNative(ctx context.Context, key *ecdsa.PrivateKey, recipient string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(recipient) {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "收款地址不合法")
	}
	to := common.HexToAddress(recipient)
	return c.sendTransaction(ctx, key, &to, amount, nil)
}

// SendToken 发送 ERC-20 transfer 交易并返回交易哈希。
// amount 为代币最小单位。
func (c *ChainClient) SendToken(ctx context.Context, key *ecdsa.PrivateKey, tokenAddress, recipient string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(tokenAddress) || !common.IsHexAddress(recipient) {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "地址不合法")
	}
	input, err := c.erc20.Pack("transfer", common.HexToAddress(recipient), amount)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUnknown, err, "编码 transfer 调用失败")
	}
	contract := common.HexToAddress(tokenAddress)
	return c.sendTransaction(ctx, key, &contract, big.NewInt(0), input)
}

func (c *ChainClient) sendTransaction(ctx context.Context, key *ecdsa.PrivateKey, to *common.Address, value *big.Int, data []byte) (string, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeTransportFailure, err, "查询 nonce 失败")
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeTransportFailure, err, "查询 gas 价格失败")
	}
	gasLimit, err := c.eth.EstimateGas(ctx, gethcore.CallMsg{
		From:  from,
		To:    to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeTransportFailure, err, "估算 gas 失败")
	}
	chainID, err := c.eth.NetworkID(ctx)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeTransportFailure, err, "查询链 ID 失败")
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), key)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUnknown, err, "签名交易失败")
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", xerrors.Wrap(xerrors.CodeTransportFailure, err, "广播交易失败")
	}
	return signed.Hash().Hex(), nil
}

// FormatUnits 把最小单位的整数金额格式化为十进制字符串，去掉多余的
// 尾随零。
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount, divisor, new(big.Int))

	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := strings.TrimRight(
		strings.Repeat("0", decimals-len(frac.String()))+frac.String(),
		"0",
	)
	return whole.String() + "." + fracStr
}

// ParseUnits 把十进制字符串金额转换为最小单位的整数。
// 小数位超过 decimals 的部分视为非法输入。
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "金额不能为空")
	}

	whole, frac := amount, ""
	if idx := strings.IndexByte(amount, '.'); idx >= 0 {
		whole, frac = amount[:idx], amount[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "金额精度超出代币小数位")
	}
	frac += strings.Repeat("0", decimals-len(frac))

	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "金额格式不合法")
	}
	return value, nil
}
