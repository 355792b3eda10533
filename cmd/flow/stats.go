package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowonarc/internal/stats"
	"flowonarc/internal/storage/postgres"
)

// newAggregator wires the stats aggregator with whatever optional
// pieces are configured: the backend client and the snapshot store.
func (a *app) newAggregator(ctx context.Context) (*stats.Aggregator, func(), error) {
	var store stats.SnapshotStore
	closeStore := func() {}
	if a.cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store = pg
		closeStore = pg.Close
	}

	var api stats.Backend
	if a.api != nil {
		api = a.api
	}

	agg := stats.NewAggregator(a.gw, api, store, a.logger, stats.Options{
		MaxRetries:   a.cfg.MaxRetries,
		RetryBackoff: a.cfg.RetryBackoff,
	})
	agg.Seed(ctx)
	return agg, closeStore, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show protocol stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			agg, closeStore, err := app.newAggregator(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := agg.Refresh(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("TVL:          $%.2f\n", result.TVLUSD)
			fmt.Printf("volume:       $%.2f\n", result.VolumeUSD)
			fmt.Printf("transactions: %d\n", result.Transactions)
			if b := result.Breakdown; b != nil {
				fmt.Printf("  swaps %d, supplies %d, withdraws %d, borrows %d, repays %d, claims %d\n",
					b.Swaps, b.Supplies, b.Withdraws, b.Borrows, b.Repays, b.Claims)
			}
			fmt.Printf("source: %s (as of %s)\n", result.Source, result.UpdatedAt.Format("15:04:05"))

			if detail, _ := cmd.Flags().GetBool("breakdown"); detail && app.api != nil {
				rows, err := app.api.Breakdown(ctx)
				if err != nil {
					return err
				}
				for _, row := range rows {
					fmt.Printf("  %-10s %d\n", row.Type, row.Count)
				}
			}

			if app.api != nil {
				if health, err := app.api.Health(ctx); err == nil {
					fmt.Printf("backend: healthy=%v database=%s indexer=%s\n",
						health.Healthy, health.Database, health.Indexer)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("breakdown", false, "fetch the per-type breakdown from the backend")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show transaction history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			agg, closeStore, err := app.newAggregator(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			txType, _ := cmd.Flags().GetString("type")
			wallet, _ := cmd.Flags().GetString("wallet")

			if wallet != "" {
				records, err := agg.WalletHistory(ctx, wallet, limit)
				if err != nil {
					return err
				}
				for _, tx := range records {
					fmt.Printf("%s  %-8s %-6s %12s  $%.2f  %s\n",
						tx.Timestamp.Format("2006-01-02 15:04"), tx.Type, tx.Token, tx.Amount, tx.AmountUSD, tx.Hash)
				}
				return nil
			}

			page, err := agg.History(ctx, limit, offset, txType)
			if err != nil {
				return err
			}
			for _, tx := range page.Transactions {
				fmt.Printf("%s  %-8s %-6s %12s  $%.2f  %s\n",
					tx.Timestamp.Format("2006-01-02 15:04"), tx.Type, tx.Token, tx.Amount, tx.AmountUSD, tx.Hash)
			}
			fmt.Printf("%d of %d (source %s)\n", len(page.Transactions), page.Total, page.Source)
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "page size")
	cmd.Flags().Int("offset", 0, "page offset")
	cmd.Flags().String("type", "", "filter by transaction type")
	cmd.Flags().String("wallet", "", "show one wallet's history")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll stats and history until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			agg, closeStore, err := app.newAggregator(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			app.logger.Info("watch start",
				zap.Duration("stats_interval", app.cfg.StatsInterval),
				zap.Duration("history_interval", app.cfg.HistoryInterval),
			)

			poller := stats.NewPoller(agg, app.cfg.StatsInterval, app.cfg.HistoryInterval, app.logger)
			if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
