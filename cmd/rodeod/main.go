package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"Rodeo-Bot/internal/bot"
	"Rodeo-Bot/internal/chat"
	"Rodeo-Bot/internal/chat/telegram"
	"Rodeo-Bot/internal/config"
	"Rodeo-Bot/internal/intent"
	"Rodeo-Bot/internal/market"
	"Rodeo-Bot/internal/nlu"
	"Rodeo-Bot/internal/storage/mysql"
	"Rodeo-Bot/internal/tokens"
	"Rodeo-Bot/internal/transfer"
	"Rodeo-Bot/internal/wallet"
	"Rodeo-Bot/pkg/logger"
)

// main 是 Rodeo 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("rodeod 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	// .env 仅用于本地开发，缺失时直接使用系统环境变量。
	_ = godotenv.Load()

	configPath := os.Getenv("RODEO_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "rodeo.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	encryptionKey, err := wallet.ParseEncryptionKey(os.Getenv(cfg.Wallet.EncryptionKeyEnv))
	if err != nil {
		return err
	}

	store, err := mysql.NewStore(ctx, mysql.Config{
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = sessions.Close()
	}()

	queue, err := newTransferQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Printf("关闭提现队列失败: %v", err)
		}
	}()

	registry, err := tokens.Load(cfg.Tokens.Source)
	if err != nil {
		return err
	}

	chainClient, err := wallet.NewChainClient(ctx, cfg.Web3.RPCURL)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	tgConfig := telegram.Config{
		Token:         os.Getenv(cfg.Telegram.TokenEnv),
		UpdateTimeout: cfg.Telegram.UpdateTimeout,
		Debug:         cfg.Telegram.Debug,
	}
	tgClient, err := telegram.New(tgConfig)
	if err != nil {
		return err
	}
	defer tgClient.Close()

	extractor := nlu.NewClient(nlu.Config{
		BaseURL: cfg.API.BaseURL,
		Network: cfg.Web3.Network,
		Timeout: cfg.APITimeout(),
	})
	marketClient := market.NewClient(market.Config{
		BaseURL: cfg.API.BaseURL,
		Network: cfg.Web3.Network,
		Timeout: cfg.APITimeout(),
	})

	transfers := transfer.NewService(store, queue)
	handlers := bot.NewHandlers(store, chainClient, registry, marketClient, transfers,
		tgClient, tgClient, cfg.Web3.Network, encryptionKey)

	sender := transfer.NewChainSender(chainClient, registry, store, cfg.Web3.Network, encryptionKey)
	processor := transfer.NewProcessor(store, queue, sender,
		transfer.WithWorkerCount(cfg.TransferQueue.Workers),
		transfer.WithNotifier(handlers),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()
	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("提现处理器异常退出: %v", err)
		}
	}()

	reporter := chat.NewReporter(tgClient)
	dispatcher := intent.NewDispatcher(extractor, sessions, reporter, intent.Handlers{
		Balance:  handlers,
		Wallet:   handlers,
		Transfer: handlers,
	})

	return bot.New(tgClient, tgConfig, dispatcher, handlers, sessions).Run(ctx)
}

func newSessionStore(cfg *config.Config) (intent.SessionStore, error) {
	switch cfg.Session.Driver {
	case "", "memory":
		return intent.NewMemorySessionStore(), nil
	case "redis":
		return intent.NewRedisSessionStore(intent.RedisSessionConfig{
			Address:   cfg.Session.Redis.Address,
			Password:  cfg.Session.Redis.Password,
			DB:        cfg.Session.Redis.DB,
			KeyPrefix: cfg.Session.Redis.KeyPrefix,
			TTL:       cfg.SessionTTL(),
		})
	default:
		return nil, fmt.Errorf("未知的会话驱动: %s", cfg.Session.Driver)
	}
}

func newTransferQueue(cfg *config.Config) (transfer.Queue, error) {
	switch cfg.TransferQueue.Driver {
	case "", "memory":
		return transfer.NewMemoryQueue(1024), nil
	case "rabbitmq":
		return transfer.NewRabbitMQQueue(transfer.RabbitMQConfig{
			URL:        cfg.TransferQueue.RabbitMQ.URL,
			Queue:      cfg.TransferQueue.RabbitMQ.Queue,
			Prefetch:   cfg.TransferQueue.RabbitMQ.Prefetch,
			Durable:    cfg.TransferQueue.RabbitMQ.Durable,
			AutoDelete: cfg.TransferQueue.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("未知的队列驱动: %s", cfg.TransferQueue.Driver)
	}
}
