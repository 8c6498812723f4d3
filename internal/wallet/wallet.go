// Package wallet 负责托管钱包的生成、私钥加密以及链上的余额读取与
// 转账提交。
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	xerrors "Rodeo-Bot/internal/errors"
)

// TypeGenerated 标记由本系统代用户生成的钱包。
const TypeGenerated = "generated"

// Wallet 是一个托管钱包。私钥只以密文形式出现在结构体与存储里。
type Wallet struct {
	Address             string
	EncryptedPrivateKey string
	Type                string
	CreatedAt           int64
}

// Generate 生成一个新的 secp256k1 钱包并用给定密钥加密私钥。
func Generate(encryptionKey []byte) (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUnknown, err, "生成私钥失败")
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	encrypted, err := encryptHex(crypto.FromECDSA(key), encryptionKey)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		Address:             address.Hex(),
		EncryptedPrivateKey: encrypted,
		Type:                TypeGenerated,
		CreatedAt:           time.Now().UnixMilli(),
	}, nil
}

// DecryptPrivateKey 还原私钥原文的十六进制表示。只有导出功能使用，
// 调用方负责立刻丢弃明文。
func DecryptPrivateKey(encrypted string, encryptionKey []byte) (string, error) {
	plaintext, err := decryptHex(encrypted, encryptionKey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(plaintext), nil
}

// DecryptSigningKey 还原可直接用于签名的私钥对象。
func DecryptSigningKey(encrypted string, encryptionKey []byte) (*ecdsa.PrivateKey, error) {
	plaintext, err := decryptHex(encrypted, encryptionKey)
	if err != nil {
		return nil, err
	}
	key, err := crypto.ToECDSA(plaintext)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "私钥明文不合法")
	}
	return key, nil
}

// ValidAddress 判断字符串是否为合法的以太坊地址。
func ValidAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

// encryptHex 以 AES-GCM 加密并编码为 hex(nonce||ciphertext)。
func encryptHex(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeInvalidArgument, err, "加密密钥不合法")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUnknown, err, "初始化 GCM 失败")
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", xerrors.Wrap(xerrors.CodeUnknown, err, "生成随机数失败")
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(sealed), nil
}

func decryptHex(encrypted string, key []byte) ([]byte, error) {
	raw, err := hex.DecodeString(encrypted)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "密文不是合法的十六进制")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "加密密钥不合法")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUnknown, err, "初始化 GCM 失败")
	}
	if len(raw) < gcm.NonceSize() {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "密文长度不足")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解密失败")
	}
	return plaintext, nil
}

// ParseEncryptionKey 解析配置中的十六进制加密密钥，必须为 32 字节。
func ParseEncryptionKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "加密密钥不是合法的十六进制")
	}
	if len(key) != 32 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("加密密钥长度应为 32 字节，实际 %d", len(key)))
	}
	return key, nil
}
