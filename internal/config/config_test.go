package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SlippagePercent != 1.0 {
		t.Fatalf("slippage = %v, want 1.0", cfg.SlippagePercent)
	}
	if cfg.SettleDelay != 1500*time.Millisecond {
		t.Fatalf("settle delay = %v", cfg.SettleDelay)
	}
	if cfg.StatsInterval != 60*time.Second || cfg.HistoryInterval != 30*time.Second {
		t.Fatalf("intervals = %v/%v", cfg.StatsInterval, cfg.HistoryInterval)
	}
	if cfg.MaxRetries != 3 || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("retries = %d/%v", cfg.MaxRetries, cfg.RetryBackoff)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Float64("slippage", 1.0, "")
	flags.Duration("settle-delay", 1500*time.Millisecond, "")

	if err := flags.Set("rpc", "https://rpc.example"); err != nil {
		t.Fatalf("set rpc: %v", err)
	}
	if err := flags.Set("slippage", "0.5"); err != nil {
		t.Fatalf("set slippage: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://rpc.example" {
		t.Fatalf("rpc = %q", cfg.RPCURL)
	}
	if cfg.SlippagePercent != 0.5 {
		t.Fatalf("slippage = %v", cfg.SlippagePercent)
	}
	if cfg.SettleDelay != 1500*time.Millisecond {
		t.Fatalf("settle delay = %v", cfg.SettleDelay)
	}
}
