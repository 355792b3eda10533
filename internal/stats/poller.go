package stats

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Default polling cadences for the dashboard view.
const (
	DefaultStatsInterval   = 60 * time.Second
	DefaultHistoryInterval = 30 * time.Second
)

// historyPageSize is the page kept warm by the poller.
const historyPageSize = 50

// Poller keeps the aggregator's caches warm on fixed cadences. Kick
// forces an immediate stats refresh, typically after a confirmed
// transaction, without disturbing the schedule.
type Poller struct {
	agg    *Aggregator
	logger *zap.Logger

	statsInterval   time.Duration
	historyInterval time.Duration
	kick            chan struct{}
}

// NewPoller builds a Poller; zero intervals use the defaults.
func NewPoller(agg *Aggregator, statsInterval, historyInterval time.Duration, logger *zap.Logger) *Poller {
	if statsInterval <= 0 {
		statsInterval = DefaultStatsInterval
	}
	if historyInterval <= 0 {
		historyInterval = DefaultHistoryInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		agg:             agg,
		logger:          logger,
		statsInterval:   statsInterval,
		historyInterval: historyInterval,
		kick:            make(chan struct{}, 1),
	}
}

// Kick requests an immediate stats refresh. Never blocks; a refresh
// already queued absorbs the request.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run polls until the context is canceled. It refreshes once
// immediately so the first reader never sees an empty cache.
func (p *Poller) Run(ctx context.Context) error {
	p.refreshStats(ctx)
	p.refreshHistory(ctx)

	statsTicker := time.NewTicker(p.statsInterval)
	defer statsTicker.Stop()
	historyTicker := time.NewTicker(p.historyInterval)
	defer historyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-statsTicker.C:
			p.refreshStats(ctx)
		case <-historyTicker.C:
			p.refreshHistory(ctx)
		case <-p.kick:
			p.refreshStats(ctx)
		}
	}
}

func (p *Poller) refreshStats(ctx context.Context) {
	stats, err := p.agg.Refresh(ctx)
	if err != nil {
		p.logger.Warn("stats refresh failed", zap.Error(err))
		return
	}
	p.logger.Debug("stats refreshed",
		zap.Float64("tvl_usd", stats.TVLUSD),
		zap.Float64("volume_usd", stats.VolumeUSD),
		zap.Int64("transactions", stats.Transactions),
		zap.String("source", string(stats.Source)),
	)
}

func (p *Poller) refreshHistory(ctx context.Context) {
	if _, err := p.agg.History(ctx, historyPageSize, 0, ""); err != nil {
		p.logger.Warn("history refresh failed", zap.Error(err))
	}
}
