package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rodeo.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Telegram.TokenEnv != "TELEGRAM_BOT_TOKEN" {
		t.Errorf("Token 环境变量默认值不符: %q", cfg.Telegram.TokenEnv)
	}
	if cfg.Telegram.UpdateTimeout != 60 {
		t.Errorf("轮询超时默认值不符: %d", cfg.Telegram.UpdateTimeout)
	}
	if cfg.API.BaseURL != "http://localhost:3001" {
		t.Errorf("后端地址默认值不符: %q", cfg.API.BaseURL)
	}
	if cfg.Session.Driver != "memory" || cfg.TransferQueue.Driver != "memory" {
		t.Errorf("驱动默认值不符: %q %q", cfg.Session.Driver, cfg.TransferQueue.Driver)
	}
	if cfg.Web3.Network != "base" {
		t.Errorf("网络默认值不符: %q", cfg.Web3.Network)
	}
	if cfg.APITimeout() != 30*time.Second {
		t.Errorf("后端超时默认值不符: %v", cfg.APITimeout())
	}
	if cfg.SessionTTL() != 30*time.Minute {
		t.Errorf("会话 TTL 默认值不符: %v", cfg.SessionTTL())
	}
	if cfg.ConnMaxLifetime() != 30*time.Minute {
		t.Errorf("连接存活时间默认值不符: %v", cfg.ConnMaxLifetime())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("日志默认值不符: %+v", cfg.Logging)
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `{
        "tokens": {"source": "tokens.yaml"},
        "logging": {"audit": {"enabled": true, "path": "audit.log"}}
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	baseDir := filepath.Dir(path)
	if cfg.Tokens.Source != filepath.Join(baseDir, "tokens.yaml") {
		t.Errorf("注册表路径未按配置目录解析: %q", cfg.Tokens.Source)
	}
	if cfg.Logging.Audit.Path != filepath.Join(baseDir, "audit.log") {
		t.Errorf("审计日志路径未按配置目录解析: %q", cfg.Logging.Audit.Path)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `{
        "session": {"driver": "redis", "redis": {"address": "127.0.0.1:6379", "ttl_minutes": 5}},
        "transfer_queue": {"driver": "rabbitmq", "workers": 4},
        "storage": {"conn_max_lifetime": "10m"}
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Session.Driver != "redis" || cfg.SessionTTL() != 5*time.Minute {
		t.Errorf("会话配置覆盖失败: %+v", cfg.Session)
	}
	if cfg.TransferQueue.Driver != "rabbitmq" || cfg.TransferQueue.Workers != 4 {
		t.Errorf("队列配置覆盖失败: %+v", cfg.TransferQueue)
	}
	if cfg.ConnMaxLifetime() != 10*time.Minute {
		t.Errorf("连接存活时间覆盖失败: %v", cfg.ConnMaxLifetime())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("缺失的配置文件应报错")
	}
	if _, err := Load(""); err == nil {
		t.Fatal("空路径应报错")
	}
}
