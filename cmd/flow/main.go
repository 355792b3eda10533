package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"flowonarc/internal/backend"
	"flowonarc/internal/chain"
	"flowonarc/internal/config"
	"flowonarc/internal/gateway"
	"flowonarc/internal/pricing"
)

func main() {
	root := &cobra.Command{
		Use:          "flow",
		Short:        "Arc testnet DeFi client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "Arc RPC URL")
	root.PersistentFlags().String("backend-url", "", "indexer backend base URL")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN for stats snapshots")
	root.PersistentFlags().String("private-key", "", "hex private key for signing")
	root.PersistentFlags().Float64("slippage", 1.0, "slippage tolerance percent")
	root.PersistentFlags().Duration("settle-delay", 1500*time.Millisecond, "pause before each step's signing request")
	root.PersistentFlags().Duration("stats-interval", 60*time.Second, "stats polling interval")
	root.PersistentFlags().Duration("history-interval", 30*time.Second, "history polling interval")
	root.PersistentFlags().String("journal", "./data/flows.jsonl", "flow event journal path, empty disables")
	root.PersistentFlags().Int("max-retries", 3, "maximum retry attempts for stat reads")
	root.PersistentFlags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newQuoteCmd())
	root.AddCommand(newSwapCmd())
	root.AddCommand(newLendCmd())
	root.AddCommand(newPoolCmd())
	root.AddCommand(newFaucetCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the long-lived pieces every command needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	client *chain.Client
	gw     *gateway.Gateway
	engine *pricing.Engine
	api    *backend.Client
}

// newApp loads config and connects. Commands that submit transactions
// set needSigner; read-only commands run without a key.
func newApp(ctx context.Context, cmd *cobra.Command, needSigner bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	var signer chain.TxSigner
	if needSigner {
		if cfg.PrivateKey == "" {
			client.Close()
			return nil, fmt.Errorf("private key is required")
		}
		keyed, err := chain.NewKeyedSigner(cfg.PrivateKey)
		if err != nil {
			client.Close()
			return nil, err
		}
		signer = keyed
	}

	gw := gateway.New(gateway.DefaultConfig(), client, signer, logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		gw:     gw,
		engine: pricing.NewEngine(gw, logger),
	}
	if cfg.BackendURL != "" {
		a.api = backend.NewClient(cfg.BackendURL, logger)
	}
	return a, nil
}

func (a *app) Close() {
	a.client.Close()
	a.logger.Sync()
}

// signalContext returns a context canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
