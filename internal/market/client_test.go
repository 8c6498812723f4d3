package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenPrices(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/prices/tokens" {
			t.Errorf("请求路径不符: %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode([]TokenPrice{
			{Address: "0xaaa", PriceUSD: "1.00"},
			{Address: "0xbbb", PriceUSD: "4200.55"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Network: "base"})
	prices, err := client.TokenPrices(context.Background(), []string{"0xaaa", "0xbbb"})
	if err != nil {
		t.Fatalf("查询报价失败: %v", err)
	}
	if gotBody["network"] != "base" {
		t.Fatalf("请求载荷不符: %v", gotBody)
	}
	if len(prices) != 2 || prices[1].PriceUSD != "4200.55" {
		t.Fatalf("报价不符: %+v", prices)
	}
}

func TestTokenData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/prices/data/0xaaa" {
			t.Errorf("请求路径不符: %q", r.URL.Path)
		}
		if r.URL.Query().Get("network") != "base" {
			t.Errorf("network 参数缺失: %q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(TokenData{
			Name:     "USD Coin",
			Symbol:   "USDC",
			Address:  "0xaaa",
			Network:  "base",
			PriceUSD: "1.00",
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Network: "base"})
	data, err := client.TokenData(context.Background(), "0xaaa")
	if err != nil {
		t.Fatalf("查询详情失败: %v", err)
	}
	if data.Symbol != "USDC" || data.PriceUSD != "1.00" {
		t.Fatalf("详情不符: %+v", data)
	}
}

func TestTokenDataServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.TokenData(context.Background(), "0xdead"); err == nil {
		t.Fatal("错误状态应向上返回")
	}
}
