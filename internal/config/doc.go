// Package config provides centralized configuration management for the
// Rodeo bot, covering the Telegram transport, AI backend endpoints, storage
// drivers, and the withdrawal queue. Secrets such as the bot token and the
// wallet encryption key are injected through environment variables rather
// than the configuration file.
package config
