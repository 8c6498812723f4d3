// Package market 封装定价后端的行情查询：代币报价与代币详情。
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:3001"
	defaultTimeout = 15 * time.Second
)

// Config 描述定价后端的访问方式。
type Config struct {
	BaseURL string
	Network string
	Timeout time.Duration
}

// TokenData 是代币详情端点的响应。
type TokenData struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Network  string `json:"network"`
	PriceUSD string `json:"price_usd"`
}

// TokenPrice 是批量报价端点中单个代币的条目。
type TokenPrice struct {
	Address  string `json:"address"`
	PriceUSD string `json:"price_usd"`
}

// Client 通过 HTTP 访问定价后端。
type Client struct {
	baseURL    string
	network    string
	httpClient *http.Client
}

// NewClient 根据配置创建客户端。
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	network := strings.TrimSpace(cfg.Network)
	if network == "" {
		network = "base"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		network:    network,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TokenPrices 批量查询一组合约地址的美元报价。
func (c *Client) TokenPrices(ctx context.Context, addresses []string) ([]TokenPrice, error) {
	payload := map[string]any{
		"addresses": addresses,
		"network":   c.network,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化报价请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/prices/tokens", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("构建报价请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var prices []TokenPrice
	if err := c.do(req, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// TokenData 查询单个代币的详情（名称、符号、美元价格）。
func (c *Client) TokenData(ctx context.Context, address string) (*TokenData, error) {
	endpoint := fmt.Sprintf("%s/api/prices/data/%s?network=%s",
		c.baseURL, url.PathEscape(address), url.QueryEscape(c.network))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构建详情请求失败: %w", err)
	}

	var data TokenData
	if err := c.do(req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求定价后端失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("定价后端返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析定价响应失败: %w", err)
	}
	return nil
}
