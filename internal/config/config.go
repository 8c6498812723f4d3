package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Config 描述 Rodeo 在启动阶段需要加载的全部配置。
type Config struct {
	Telegram      TelegramConfig      `json:"telegram"`
	API           APIConfig           `json:"api"`
	Storage       StorageConfig       `json:"storage"`
	Session       SessionConfig       `json:"session"`
	TransferQueue TransferQueueConfig `json:"transfer_queue"`
	Web3          Web3Config          `json:"web3"`
	Tokens        TokensConfig        `json:"tokens"`
	Wallet        WalletConfig        `json:"wallet"`
	Logging       LoggingConfig       `json:"logging"`
}

// TelegramConfig 控制 Telegram 长轮询行为。Token 通过环境变量注入，
// 不写进配置文件。
type TelegramConfig struct {
	TokenEnv      string `json:"token_env"`
	UpdateTimeout int    `json:"update_timeout"`
	Debug         bool   `json:"debug"`
}

// APIConfig 描述意图抽取与定价后端的访问地址。
type APIConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// StorageConfig 描述 MySQL 连接信息。
type StorageConfig struct {
	DSN             string `json:"dsn"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime string `json:"conn_max_lifetime"`
}

// SessionConfig 选择会话状态的存储后端。
type SessionConfig struct {
	Driver string      `json:"driver"`
	Redis  RedisConfig `json:"redis"`
}

// RedisConfig 描述 Redis 连接参数。
type RedisConfig struct {
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	KeyPrefix  string `json:"key_prefix"`
	TTLMinutes int    `json:"ttl_minutes"`
}

// TransferQueueConfig 选择提现订单队列的实现。
type TransferQueueConfig struct {
	Driver   string         `json:"driver"`
	Workers  int            `json:"workers"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 连接参数。
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// Web3Config 包含访问区块链节点所需的 RPC 地址与网络名。
type Web3Config struct {
	RPCURL  string `json:"rpc_url"`
	Network string `json:"network"`
}

// TokensConfig 指向代币注册表文件。
type TokensConfig struct {
	Source string `json:"source"`
}

// WalletConfig 描述私钥加密密钥的来源环境变量。
type WalletConfig struct {
	EncryptionKeyEnv string `json:"encryption_key_env"`
}

// LoggingConfig 控制运行日志与审计日志。
type LoggingConfig struct {
	Level       string      `json:"level"`
	Format      string      `json:"format"`
	OutputPaths []string    `json:"output_paths"`
	Audit       AuditConfig `json:"audit"`
}

// AuditConfig 控制审计日志的落盘与轮转。
type AuditConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// APITimeout 返回后端调用超时。
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SessionTTL 返回 Redis 会话的过期时间。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.Redis.TTLMinutes) * time.Minute
}

// ConnMaxLifetime 解析 MySQL 连接的最大存活时间，非法值回退为默认。
func (c *Config) ConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.Storage.ConnMaxLifetime)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Telegram.TokenEnv == "" {
		c.Telegram.TokenEnv = "TELEGRAM_BOT_TOKEN"
	}
	if c.Telegram.UpdateTimeout <= 0 {
		c.Telegram.UpdateTimeout = 60
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:3001"
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}

	if c.Session.Driver == "" {
		c.Session.Driver = "memory"
	}
	if c.Session.Redis.KeyPrefix == "" {
		c.Session.Redis.KeyPrefix = "rodeo:session"
	}
	if c.Session.Redis.TTLMinutes <= 0 {
		c.Session.Redis.TTLMinutes = 30
	}

	if c.TransferQueue.Driver == "" {
		c.TransferQueue.Driver = "memory"
	}
	if c.TransferQueue.Workers <= 0 {
		c.TransferQueue.Workers = 1
	}
	if c.TransferQueue.RabbitMQ.Queue == "" {
		c.TransferQueue.RabbitMQ.Queue = "rodeo.withdrawals"
	}

	if c.Web3.Network == "" {
		c.Web3.Network = "base"
	}

	if c.Tokens.Source != "" && !filepath.IsAbs(c.Tokens.Source) {
		c.Tokens.Source = filepath.Join(baseDir, c.Tokens.Source)
	}

	if c.Wallet.EncryptionKeyEnv == "" {
		c.Wallet.EncryptionKeyEnv = "WALLET_ENCRYPTION_KEY"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stdout"}
	}
	if c.Logging.Audit.Enabled && c.Logging.Audit.Path != "" && !filepath.IsAbs(c.Logging.Audit.Path) {
		c.Logging.Audit.Path = filepath.Join(baseDir, c.Logging.Audit.Path)
	}
}
