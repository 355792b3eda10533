package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"flowonarc/internal/orchestrator"
	"flowonarc/internal/stats"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	BackendURL string
	PGDSN      string
	PrivateKey string

	SlippagePercent float64
	SettleDelay     time.Duration

	StatsInterval   time.Duration
	HistoryInterval time.Duration

	Journal      string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("slippage", 1.0)
	v.SetDefault("settle-delay", orchestrator.DefaultSettleDelay)
	v.SetDefault("stats-interval", stats.DefaultStatsInterval)
	v.SetDefault("history-interval", stats.DefaultHistoryInterval)
	v.SetDefault("journal", "./data/flows.jsonl")
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		BackendURL:      v.GetString("backend-url"),
		PGDSN:           v.GetString("pg-dsn"),
		PrivateKey:      v.GetString("private-key"),
		SlippagePercent: v.GetFloat64("slippage"),
		SettleDelay:     v.GetDuration("settle-delay"),
		StatsInterval:   v.GetDuration("stats-interval"),
		HistoryInterval: v.GetDuration("history-interval"),
		Journal:         v.GetString("journal"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
