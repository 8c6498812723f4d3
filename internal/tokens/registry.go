// Package tokens 维护各网络上受支持代币的静态注册表，供余额查询与
// 转账流程把 token_symbol 解析为合约地址。
package tokens

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definitions 对应 configs/tokens.yaml 的整体结构。
type Definitions struct {
	Networks map[string]Network `yaml:"networks"`
}

// Network 描述单个网络下的代币集合。
type Network struct {
	NativeSymbol string           `yaml:"native_symbol"`
	Tokens       map[string]Token `yaml:"tokens"`
}

// Token 描述一种 ERC-20 代币。
type Token struct {
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// Registry 提供符号到合约地址的查询，符号大小写不敏感。
type Registry struct {
	networks map[string]Network
}

// Load 解析 YAML 注册表文件。路径为空时返回空注册表。
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return &Registry{networks: map[string]Network{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取代币注册表失败: %w", err)
	}
	return Parse(content)
}

// Parse 从 YAML 内容构建注册表。
func Parse(content []byte) (*Registry, error) {
	var defs Definitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return nil, fmt.Errorf("解析代币注册表失败: %w", err)
	}
	networks := make(map[string]Network, len(defs.Networks))
	for name, network := range defs.Networks {
		normalized := Network{
			NativeSymbol: strings.ToUpper(strings.TrimSpace(network.NativeSymbol)),
			Tokens:       make(map[string]Token, len(network.Tokens)),
		}
		for symbol, token := range network.Tokens {
			normalized.Tokens[strings.ToUpper(strings.TrimSpace(symbol))] = token
		}
		networks[strings.ToLower(strings.TrimSpace(name))] = normalized
	}
	return &Registry{networks: networks}, nil
}

// Resolve 在指定网络下查找代币。原生币符号返回 ok 但地址为空。
func (r *Registry) Resolve(network, symbol string) (Token, bool) {
	net, ok := r.networks[strings.ToLower(strings.TrimSpace(network))]
	if !ok {
		return Token{}, false
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == net.NativeSymbol && symbol != "" {
		return Token{Decimals: 18}, true
	}
	token, ok := net.Tokens[symbol]
	return token, ok
}

// NativeSymbol 返回网络的原生币符号，网络未知时为空。
func (r *Registry) NativeSymbol(network string) string {
	net, ok := r.networks[strings.ToLower(strings.TrimSpace(network))]
	if !ok {
		return ""
	}
	return net.NativeSymbol
}

// IsNative 判断符号是否为该网络的原生币。
func (r *Registry) IsNative(network, symbol string) bool {
	net, ok := r.networks[strings.ToLower(strings.TrimSpace(network))]
	if !ok {
		return false
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return symbol != "" && symbol == net.NativeSymbol
}

// Symbols 返回网络下全部已注册的 ERC-20 符号，顺序不保证。
func (r *Registry) Symbols(network string) []string {
	net, ok := r.networks[strings.ToLower(strings.TrimSpace(network))]
	if !ok {
		return nil
	}
	symbols := make([]string, 0, len(net.Tokens))
	for symbol := range net.Tokens {
		symbols = append(symbols, symbol)
	}
	return symbols
}
