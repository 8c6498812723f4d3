package tokens

import (
	"sort"
	"testing"
)

const sampleYAML = `
networks:
  base:
    native_symbol: eth
    tokens:
      usdc:
        address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
        decimals: 6
      WETH:
        address: "0x4200000000000000000000000000000000000006"
        decimals: 18
`

func mustParse(t *testing.T) *Registry {
	t.Helper()
	registry, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("解析注册表失败: %v", err)
	}
	return registry
}

func TestResolveCaseInsensitive(t *testing.T) {
	registry := mustParse(t)

	token, ok := registry.Resolve("Base", "usdc")
	if !ok {
		t.Fatal("符号应大小写不敏感")
	}
	if token.Address != "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913" || token.Decimals != 6 {
		t.Fatalf("代币信息不符: %+v", token)
	}
}

func TestResolveNative(t *testing.T) {
	registry := mustParse(t)

	token, ok := registry.Resolve("base", "ETH")
	if !ok {
		t.Fatal("原生币应可解析")
	}
	if token.Address != "" || token.Decimals != 18 {
		t.Fatalf("原生币应无合约地址且为 18 位精度: %+v", token)
	}
	if !registry.IsNative("base", "eth") {
		t.Fatal("IsNative 判定失败")
	}
	if registry.IsNative("base", "USDC") {
		t.Fatal("ERC-20 不应判为原生币")
	}
}

func TestResolveUnknown(t *testing.T) {
	registry := mustParse(t)

	if _, ok := registry.Resolve("base", "DOGE"); ok {
		t.Fatal("未注册符号不应解析成功")
	}
	if _, ok := registry.Resolve("solana", "USDC"); ok {
		t.Fatal("未知网络不应解析成功")
	}
}

func TestNativeSymbol(t *testing.T) {
	registry := mustParse(t)

	if got := registry.NativeSymbol("base"); got != "ETH" {
		t.Fatalf("原生币符号不符: %q", got)
	}
	if got := registry.NativeSymbol("solana"); got != "" {
		t.Fatalf("未知网络应返回空: %q", got)
	}
}

func TestSymbols(t *testing.T) {
	registry := mustParse(t)

	symbols := registry.Symbols("base")
	sort.Strings(symbols)
	if len(symbols) != 2 || symbols[0] != "USDC" || symbols[1] != "WETH" {
		t.Fatalf("符号列表不符: %v", symbols)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	registry, err := Load("")
	if err != nil {
		t.Fatalf("空路径应返回空注册表: %v", err)
	}
	if symbols := registry.Symbols("base"); len(symbols) != 0 {
		t.Fatalf("空注册表不应有符号: %v", symbols)
	}
}
