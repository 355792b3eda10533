// Package stats merges indexer counters with live on-chain TVL into the
// protocol dashboard view, keeping a last-good cache so transient
// failures degrade to stale data instead of zeros.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flowonarc/internal/amount"
	"flowonarc/internal/backend"
	"flowonarc/internal/model"
)

// ChainReader is the subset of the contract gateway TVL needs.
type ChainReader interface {
	GetReserveData(ctx context.Context, token common.Address) (model.ReserveData, error)
	PoolReserves(ctx context.Context, tokenA, tokenB common.Address) (model.ReservePair, error)
}

// Backend is the indexer API surface the aggregator reads.
type Backend interface {
	Stats(ctx context.Context) (backend.Stats, error)
	Transactions(ctx context.Context, limit, offset int, txType string) (model.TxPage, error)
	WalletTransactions(ctx context.Context, wallet string, limit int) ([]model.TxRecord, error)
}

// SnapshotStore persists the last-good stats across restarts. Optional.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, stats model.ProtocolStats) error
	LatestSnapshot(ctx context.Context) (model.ProtocolStats, bool, error)
}

// Options tunes the aggregator's retry behavior.
type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// Aggregator computes and caches protocol stats and history.
type Aggregator struct {
	reader ChainReader
	api    Backend
	store  SnapshotStore
	logger *zap.Logger
	opts   Options

	mu       sync.RWMutex
	cached   model.ProtocolStats
	hasCache bool
	page     model.TxPage
	hasPage  bool
}

// NewAggregator builds an Aggregator. The api and store may be nil; the
// aggregator then serves on-chain TVL only.
func NewAggregator(reader ChainReader, api Backend, store SnapshotStore, logger *zap.Logger, opts Options) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	return &Aggregator{
		reader: reader,
		api:    api,
		store:  store,
		logger: logger,
		opts:   opts,
	}
}

// Seed loads the persisted snapshot into the cache, so the first
// refresh after a restart has something to fall back on.
func (a *Aggregator) Seed(ctx context.Context) {
	if a.store == nil {
		return
	}
	snapshot, ok, err := a.store.LatestSnapshot(ctx)
	if err != nil {
		a.logger.Warn("load stats snapshot", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	a.mu.Lock()
	a.cached = snapshot
	a.hasCache = true
	a.mu.Unlock()
	a.logger.Info("stats snapshot loaded", zap.Time("as_of", snapshot.UpdatedAt))
}

// Current returns the cached stats without touching the network.
func (a *Aggregator) Current() (model.ProtocolStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cached, a.hasCache
}

// Refresh recomputes protocol stats. TVL always comes from the chain;
// volume and transaction counters come from the backend. Either source
// failing falls back to the cache. A fresh read of exactly zero over a
// positive cached value is treated the same way, per metric: the cache
// wins and the result is tagged cached.
func (a *Aggregator) Refresh(ctx context.Context) (model.ProtocolStats, error) {
	tvl, tvlErr := a.readTVL(ctx)
	if tvlErr != nil {
		a.logger.Warn("tvl read failed", zap.Error(tvlErr))
	}

	var counters backend.Stats
	countersErr := errors.New("no backend configured")
	if a.api != nil {
		countersErr = withRetry(ctx, a.opts.MaxRetries, a.opts.RetryBackoff, func(ctx context.Context) error {
			var err error
			counters, err = a.api.Stats(ctx)
			return err
		})
	}
	if countersErr != nil {
		a.logger.Warn("backend stats unavailable", zap.Error(countersErr))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	fresh := model.ProtocolStats{
		Source:    model.SourceBackend,
		UpdatedAt: time.Now(),
	}

	switch {
	case tvlErr == nil:
		if tvl == 0 && a.hasCache && a.cached.TVLUSD > 0 {
			// A protocol holding value does not empty between polls; a
			// clean read of zero is a stale or partial chain view.
			fresh.TVLUSD = a.cached.TVLUSD
			fresh.Source = model.SourceCached
		} else {
			fresh.TVLUSD = tvl
		}
	case a.hasCache:
		fresh.TVLUSD = a.cached.TVLUSD
		fresh.Source = model.SourceCached
	default:
		return model.ProtocolStats{}, fmt.Errorf("tvl: %w", tvlErr)
	}

	switch {
	case countersErr == nil:
		fresh.VolumeUSD = counters.TotalVolumeUSD
		fresh.Transactions = counters.TotalTransactions
		breakdown := counters.Breakdown
		fresh.Breakdown = &breakdown

		if a.hasCache {
			if fresh.VolumeUSD == 0 && a.cached.VolumeUSD > 0 {
				fresh.VolumeUSD = a.cached.VolumeUSD
				fresh.Source = model.SourceCached
			}
			if fresh.Transactions == 0 && a.cached.Transactions > 0 {
				fresh.Transactions = a.cached.Transactions
				fresh.Breakdown = a.cached.Breakdown
				fresh.Source = model.SourceCached
			}
		}
	case a.hasCache:
		fresh.VolumeUSD = a.cached.VolumeUSD
		fresh.Transactions = a.cached.Transactions
		fresh.Breakdown = a.cached.Breakdown
		fresh.Source = model.SourceCached
	default:
		// TVL alone is still worth showing.
		fresh.Source = model.SourceOnchain
	}

	a.cached = fresh
	a.hasCache = true

	if a.store != nil {
		if err := a.store.UpsertSnapshot(ctx, fresh); err != nil {
			a.logger.Warn("persist stats snapshot", zap.Error(err))
		}
	}
	return fresh, nil
}

// History fetches a page of protocol transaction history. The default
// page (no offset, no filter) is cached and served stale when the
// backend is down.
func (a *Aggregator) History(ctx context.Context, limit, offset int, txType string) (model.TxPage, error) {
	if a.api == nil {
		return model.TxPage{}, errors.New("no backend configured")
	}

	var page model.TxPage
	err := withRetry(ctx, a.opts.MaxRetries, a.opts.RetryBackoff, func(ctx context.Context) error {
		var err error
		page, err = a.api.Transactions(ctx, limit, offset, txType)
		return err
	})
	if err == nil {
		if offset == 0 && txType == "" {
			a.mu.Lock()
			a.page = page
			a.hasPage = true
			a.mu.Unlock()
		}
		return page, nil
	}

	if offset == 0 && txType == "" {
		a.mu.RLock()
		cached, ok := a.page, a.hasPage
		a.mu.RUnlock()
		if ok {
			cached.Source = model.SourceCached
			a.logger.Warn("serving cached history", zap.Error(err))
			return cached, nil
		}
	}
	return model.TxPage{}, err
}

// WalletHistory fetches one wallet's recent transactions. No cache;
// wallet views tolerate an error better than stale cross-wallet data.
func (a *Aggregator) WalletHistory(ctx context.Context, wallet string, limit int) ([]model.TxRecord, error) {
	if a.api == nil {
		return nil, errors.New("no backend configured")
	}
	var records []model.TxRecord
	err := withRetry(ctx, a.opts.MaxRetries, a.opts.RetryBackoff, func(ctx context.Context) error {
		var err error
		records, err = a.api.WalletTransactions(ctx, wallet, limit)
		return err
	})
	return records, err
}

func (a *Aggregator) readTVL(ctx context.Context) (float64, error) {
	var tvl float64
	err := withRetry(ctx, a.opts.MaxRetries, a.opts.RetryBackoff, func(ctx context.Context) error {
		var err error
		tvl, err = a.computeTVL(ctx)
		return err
	})
	return tvl, err
}

// computeTVL values the lending markets plus the AMM pools, all from
// live contract reads. Markets use the pool's recorded USD price;
// pools without a readable token price are approximated as twice the
// stable side.
func (a *Aggregator) computeTVL(ctx context.Context) (float64, error) {
	total := new(big.Int)
	prices := make(map[string]*big.Int)

	priceOf := func(token model.Token) (*big.Int, error) {
		if p, ok := prices[token.Symbol]; ok {
			return p, nil
		}
		reserve, err := a.reader.GetReserveData(ctx, common.HexToAddress(token.Address))
		if err != nil {
			return nil, err
		}
		prices[token.Symbol] = reserve.PriceUSD
		return reserve.PriceUSD, nil
	}

	for _, token := range model.LendableTokens {
		reserve, err := a.reader.GetReserveData(ctx, common.HexToAddress(token.Address))
		if err != nil {
			return 0, fmt.Errorf("reserve %s: %w", token.Symbol, err)
		}
		prices[token.Symbol] = reserve.PriceUSD
		total.Add(total, amount.ValueUSD(reserve.TotalSupplied, reserve.PriceUSD, token.Decimals))
	}

	stable := model.USDC
	for _, token := range model.PoolTokens {
		if token.Stable {
			continue
		}
		pair, err := a.reader.PoolReserves(ctx, common.HexToAddress(token.Address), common.HexToAddress(stable.Address))
		if err != nil {
			// A missing pool is not an error; anything else is.
			if errors.Is(err, model.ErrCallReverted) {
				continue
			}
			return 0, fmt.Errorf("pool %s/%s: %w", token.Symbol, stable.Symbol, err)
		}
		if !pair.HasLiquidity() {
			continue
		}

		tokenReserve, stableReserve := pair.Reserve0, pair.Reserve1
		if !strings.EqualFold(pair.Token0, token.Address) {
			tokenReserve, stableReserve = pair.Reserve1, pair.Reserve0
		}

		stablePrice, err := priceOf(stable)
		if err != nil {
			return 0, fmt.Errorf("price %s: %w", stable.Symbol, err)
		}
		stableUSD := amount.ValueUSD(stableReserve, stablePrice, stable.Decimals)

		tokenPrice, err := priceOf(token)
		if err != nil {
			if !errors.Is(err, model.ErrCallReverted) {
				return 0, fmt.Errorf("price %s: %w", token.Symbol, err)
			}
			// Unlisted token: assume the pool is balanced and double the
			// stable side.
			total.Add(total, stableUSD)
			total.Add(total, stableUSD)
			continue
		}

		total.Add(total, stableUSD)
		total.Add(total, amount.ValueUSD(tokenReserve, tokenPrice, token.Decimals))
	}

	f, _ := new(big.Rat).SetFrac(total, amount.WholeUnit(model.USDDecimals)).Float64()
	return f, nil
}
