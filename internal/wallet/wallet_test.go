package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("生成测试密钥失败: %v", err)
	}
	return key
}

func TestGenerateAndDecrypt(t *testing.T) {
	encryptionKey := testKey(t)

	w, err := Generate(encryptionKey)
	if err != nil {
		t.Fatalf("生成钱包失败: %v", err)
	}
	if !ValidAddress(w.Address) {
		t.Fatalf("生成的地址不合法: %q", w.Address)
	}
	if w.Type != TypeGenerated {
		t.Fatalf("钱包类型不符: %q", w.Type)
	}
	if w.EncryptedPrivateKey == "" || strings.Contains(w.EncryptedPrivateKey, w.Address) {
		t.Fatal("私钥必须以密文形式保存")
	}

	// 解密得到的签名私钥应能还原出同一地址。
	signing, err := DecryptSigningKey(w.EncryptedPrivateKey, encryptionKey)
	if err != nil {
		t.Fatalf("解密失败: %v", err)
	}
	if derived := crypto.PubkeyToAddress(signing.PublicKey).Hex(); derived != w.Address {
		t.Fatalf("私钥与地址不匹配: %q vs %q", derived, w.Address)
	}

	plainHex, err := DecryptPrivateKey(w.EncryptedPrivateKey, encryptionKey)
	if err != nil {
		t.Fatalf("导出私钥失败: %v", err)
	}
	if plainHex != hex.EncodeToString(crypto.FromECDSA(signing)) {
		t.Fatal("导出的十六进制私钥与签名私钥不一致")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	w, err := Generate(testKey(t))
	if err != nil {
		t.Fatalf("生成钱包失败: %v", err)
	}
	if _, err := DecryptSigningKey(w.EncryptedPrivateKey, testKey(t)); err == nil {
		t.Fatal("错误的密钥不应能解密")
	}
}

func TestParseEncryptionKey(t *testing.T) {
	raw := testKey(t)
	key, err := ParseEncryptionKey(hex.EncodeToString(raw))
	if err != nil {
		t.Fatalf("解析密钥失败: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("密钥长度不符: %d", len(key))
	}

	if _, err := ParseEncryptionKey("zz"); err == nil {
		t.Fatal("非法十六进制应报错")
	}
	if _, err := ParseEncryptionKey("abcd"); err == nil {
		t.Fatal("长度不足应报错")
	}
}

func TestValidAddress(t *testing.T) {
	if !ValidAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913") {
		t.Fatal("合法地址被拒绝")
	}
	if ValidAddress("alice.eth") || ValidAddress("0x1234") || ValidAddress("") {
		t.Fatal("非法地址被接受")
	}
}
