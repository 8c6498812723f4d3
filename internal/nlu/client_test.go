package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"Rodeo-Bot/internal/intent"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: server.URL, Network: "base"})
	return client, server
}

func TestExtractIntentSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"intent": "send_token",
			"parameters": map[string]string{
				"recipient":    "0x1111111111111111111111111111111111111111",
				"amount":       "5",
				"token_symbol": "USDC",
			},
			"confidence":   0.92,
			"missing_info": []string{},
			"timestamp":    "2025-06-01T10:00:00Z",
		})
	}))
	defer server.Close()

	action, err := client.ExtractIntent(context.Background(), "send 5 USDC")
	if err != nil {
		t.Fatalf("抽取失败: %v", err)
	}
	if gotPath != "/api/ai/intent" {
		t.Fatalf("请求路径不符: %q", gotPath)
	}
	if gotBody["text"] != "send 5 USDC" {
		t.Fatalf("请求载荷不符: %v", gotBody)
	}
	if action.Intent != intent.IntentSendToken {
		t.Fatalf("意图不符: %q", action.Intent)
	}
	if action.Parameters.Amount != "5" || action.Parameters.TokenSymbol != "USDC" {
		t.Fatalf("参数不符: %+v", action.Parameters)
	}
	if action.UserInput != "send 5 USDC" {
		t.Fatalf("userInput 缺失时应回填原文: %q", action.UserInput)
	}
}

func TestExtractIntentUnknownVocabulary(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"intent": "launch_rocket"})
	}))
	defer server.Close()

	action, err := client.ExtractIntent(context.Background(), "do something")
	if err != nil {
		t.Fatalf("词表外意图不是错误: %v", err)
	}
	if action.Intent != intent.IntentUnknown {
		t.Fatalf("词表外取值应归入 unknown: %q", action.Intent)
	}
}

func TestExtractIntentServerError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := client.ExtractIntent(context.Background(), "hello")
	if !errors.Is(err, intent.ErrUnresolved) {
		t.Fatalf("传输失败应折叠为 ErrUnresolved: %v", err)
	}
}

func TestExtractIntentMalformedPayload(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	_, err := client.ExtractIntent(context.Background(), "hello")
	if !errors.Is(err, intent.ErrUnresolved) {
		t.Fatalf("畸形载荷应折叠为 ErrUnresolved: %v", err)
	}
}

func TestExtractIntentMissingIntentField(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"confidence": 0.5})
	}))
	defer server.Close()

	_, err := client.ExtractIntent(context.Background(), "hello")
	if !errors.Is(err, intent.ErrUnresolved) {
		t.Fatalf("缺少 intent 字段应折叠为 ErrUnresolved: %v", err)
	}
}

func TestAskGeneral(t *testing.T) {
	var gotBody map[string]string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai/market" {
			t.Errorf("请求路径不符: %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "ETH is up 3% today."})
	}))
	defer server.Close()

	response, err := client.AskGeneral(context.Background(), "how is ETH doing")
	if err != nil {
		t.Fatalf("兜底问答失败: %v", err)
	}
	if gotBody["blockchain"] != "base" || gotBody["query"] != "how is ETH doing" {
		t.Fatalf("请求载荷不符: %v", gotBody)
	}
	if response != "ETH is up 3% today." {
		t.Fatalf("回复不符: %q", response)
	}
}

func TestAskGeneralEmptyResponse(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  "})
	}))
	defer server.Close()

	_, err := client.AskGeneral(context.Background(), "hello")
	if !errors.Is(err, intent.ErrUnresolved) {
		t.Fatalf("空回复应折叠为 ErrUnresolved: %v", err)
	}
}
