// Package nlu 封装对 AI 后端的意图抽取与兜底问答调用。自然语言理解
// 完全在外部服务完成，本包只做传输与载荷校验。
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Rodeo-Bot/internal/intent"
)

const (
	defaultBaseURL = "http://localhost:3001"
	defaultNetwork = "base"
	defaultTimeout = 30 * time.Second
)

// Config 描述 AI 后端的访问方式。
type Config struct {
	BaseURL string
	Network string
	Timeout time.Duration
}

// Client 通过 HTTP 调用 AI 后端。实现 intent.Extractor。
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
	baseURL = strings.TrimRight(baseURL, "/")

	network := strings.TrimSpace(cfg.Network)
	if network == "" {
		network = defaultNetwork
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		network: network,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ExtractIntent 把原始文本交给抽取端点，返回结构化意图。传输失败、
// 超时与畸形载荷一律折叠成 intent.ErrUnresolved，从不向上抛原始错误，
// 也不做内部重试。
func (c *Client) ExtractIntent(ctx context.Context, text string) (*intent.UserAction, error) {
	payload := map[string]string{"text": text}

	var decoded struct {
		Intent      string            `json:"intent"`
		Parameters  intent.Parameters `json:"parameters"`
		Confidence  float64           `json:"confidence"`
		MissingInfo []string          `json:"missing_info"`
		UserInput   string            `json:"userInput"`
		Timestamp   string            `json:"timestamp"`
	}
	if err := c.post(ctx, "/api/ai/intent", payload, &decoded); err != nil {
		return nil, unresolved(err)
	}

	// intent 字段恒定存在是上游契约，缺失即视为畸形载荷。
	if strings.TrimSpace(decoded.Intent) == "" {
		return nil, unresolved(errors.New("响应缺少 intent 字段"))
	}

	action := &intent.UserAction{
		Intent:      intent.ParseIntent(decoded.Intent),
		Parameters:  decoded.Parameters,
		Confidence:  decoded.Confidence,
		MissingInfo: decoded.MissingInfo,
		UserInput:   decoded.UserInput,
		Timestamp:   decoded.Timestamp,
	}
	if action.UserInput == "" {
		action.UserInput = text
	}
	return action, nil
}

// AskGeneral 调用兜底问答端点，仅在意图被判为 other 时使用。
func (c *Client) AskGeneral(ctx context.Context, query string) (string, error) {
	payload := map[string]string{
		"blockchain": c.network,
		"query":      query,
	}

	var decoded struct {
		Response string `json:"response"`
	}
	if err := c.post(ctx, "/api/ai/market", payload, &decoded); err != nil {
		return "", unresolved(err)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return "", unresolved(errors.New("响应缺少 response 字段"))
	}
	return decoded.Response, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s 返回错误状态 %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", path, err)
	}
	return nil
}

func unresolved(cause error) error {
	return fmt.Errorf("%w: %w", intent.ErrUnresolved, cause)
}

var _ intent.Extractor = (*Client)(nil)
