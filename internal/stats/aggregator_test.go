package stats

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/amount"
	"flowonarc/internal/backend"
	"flowonarc/internal/model"
)

type fakeChain struct {
	reserves   map[string]model.ReserveData
	reserveErr error
	pools      map[string]model.ReservePair
}

func (f *fakeChain) GetReserveData(_ context.Context, token common.Address) (model.ReserveData, error) {
	if f.reserveErr != nil {
		return model.ReserveData{}, f.reserveErr
	}
	if r, ok := f.reserves[strings.ToLower(token.Hex())]; ok {
		return r, nil
	}
	return model.ReserveData{}, model.ErrCallReverted
}

func (f *fakeChain) PoolReserves(_ context.Context, tokenA, _ common.Address) (model.ReservePair, error) {
	if p, ok := f.pools[strings.ToLower(tokenA.Hex())]; ok {
		return p, nil
	}
	return model.ReservePair{}, model.ErrCallReverted
}

type fakeBackend struct {
	stats    backend.Stats
	statsErr error
	page     model.TxPage
	pageErr  error
	wallet   []model.TxRecord
}

func (f *fakeBackend) Stats(_ context.Context) (backend.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeBackend) Transactions(_ context.Context, limit, offset int, _ string) (model.TxPage, error) {
	if f.pageErr != nil {
		return model.TxPage{}, f.pageErr
	}
	page := f.page
	page.Limit = limit
	page.Offset = offset
	page.Source = model.SourceBackend
	return page, nil
}

func (f *fakeBackend) WalletTransactions(_ context.Context, _ string, _ int) ([]model.TxRecord, error) {
	return f.wallet, nil
}

type fakeStore struct {
	snapshot    model.ProtocolStats
	hasSnapshot bool
	upserts     int
}

func (f *fakeStore) UpsertSnapshot(_ context.Context, stats model.ProtocolStats) error {
	f.snapshot = stats
	f.hasSnapshot = true
	f.upserts++
	return nil
}

func (f *fakeStore) LatestSnapshot(_ context.Context) (model.ProtocolStats, bool, error) {
	return f.snapshot, f.hasSnapshot, nil
}

func units(t *testing.T, s string, decimals uint8) *big.Int {
	t.Helper()
	v, err := amount.ToBaseUnits(s, decimals)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func addrKey(token model.Token) string {
	return strings.ToLower(common.HexToAddress(token.Address).Hex())
}

// testChain describes a protocol worth exactly $3000: $1000 of USDC and
// $1000 of CAT supplied to lending, plus a CAT/USDC pool holding $500
// on each side. DARC and PANDA markets are empty and their pools do not
// exist.
func testChain(t *testing.T) *fakeChain {
	zero := big.NewInt(0)
	return &fakeChain{
		reserves: map[string]model.ReserveData{
			addrKey(model.USDC):  {TotalSupplied: units(t, "1000", 6), PriceUSD: units(t, "1", 18)},
			addrKey(model.CAT):   {TotalSupplied: units(t, "2000", 18), PriceUSD: units(t, "0.5", 18)},
			addrKey(model.DARC):  {TotalSupplied: zero, PriceUSD: units(t, "1", 18)},
			addrKey(model.PANDA): {TotalSupplied: zero, PriceUSD: units(t, "2", 18)},
		},
		pools: map[string]model.ReservePair{
			addrKey(model.CAT): {
				Token0:   model.CAT.Address,
				Token1:   model.USDC.Address,
				Reserve0: units(t, "1000", 18),
				Reserve1: units(t, "500", 6),
			},
		},
	}
}

func testOptions() Options {
	return Options{MaxRetries: 0, RetryBackoff: time.Millisecond}
}

func TestRefreshComputesTVLOnchain(t *testing.T) {
	api := &fakeBackend{stats: backend.Stats{TotalVolumeUSD: 500, TotalTransactions: 10}}
	agg := NewAggregator(testChain(t), api, nil, nil, testOptions())

	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if stats.TVLUSD != 3000 {
		t.Fatalf("tvl = %f, want 3000", stats.TVLUSD)
	}
	if stats.VolumeUSD != 500 || stats.Transactions != 10 {
		t.Fatalf("counters = %f/%d", stats.VolumeUSD, stats.Transactions)
	}
	if stats.Source != model.SourceBackend {
		t.Fatalf("source = %s, want backend", stats.Source)
	}
}

func TestRefreshZeroGuardKeepsCache(t *testing.T) {
	api := &fakeBackend{stats: backend.Stats{TotalVolumeUSD: 5000, TotalTransactions: 120}}
	agg := NewAggregator(testChain(t), api, nil, nil, testOptions())

	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// The backend restarts and reports zeros; the positive cache wins.
	api.stats = backend.Stats{}
	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if stats.VolumeUSD != 5000 || stats.Transactions != 120 {
		t.Fatalf("counters = %f/%d, want cached 5000/120", stats.VolumeUSD, stats.Transactions)
	}
	if stats.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", stats.Source)
	}
	// TVL is still live.
	if stats.TVLUSD != 3000 {
		t.Fatalf("tvl = %f, want fresh 3000", stats.TVLUSD)
	}
}

func TestRefreshTVLZeroGuardKeepsCache(t *testing.T) {
	chain := testChain(t)
	api := &fakeBackend{stats: backend.Stats{TotalVolumeUSD: 500, TotalTransactions: 10}}
	agg := NewAggregator(chain, api, nil, nil, testOptions())

	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Every market and pool reads as empty, without any call failing.
	// A clean zero over a positive cache is a stale view, not a drained
	// protocol.
	zero := big.NewInt(0)
	for key, reserve := range chain.reserves {
		reserve.TotalSupplied = zero
		chain.reserves[key] = reserve
	}
	chain.pools = nil

	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if stats.TVLUSD != 3000 {
		t.Fatalf("tvl = %f, want cached 3000", stats.TVLUSD)
	}
	if stats.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", stats.Source)
	}
	// The backend counters are still live.
	if stats.VolumeUSD != 500 || stats.Transactions != 10 {
		t.Fatalf("counters = %f/%d, want fresh 500/10", stats.VolumeUSD, stats.Transactions)
	}
}

func TestRefreshZeroGuardIsPerCounter(t *testing.T) {
	api := &fakeBackend{stats: backend.Stats{
		TotalVolumeUSD:    5000,
		TotalTransactions: 120,
		Breakdown:         model.Breakdown{Swaps: 7},
	}}
	agg := NewAggregator(testChain(t), api, nil, nil, testOptions())

	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Volume regresses to zero but the transaction count moved forward;
	// only the regressed counter is substituted.
	api.stats = backend.Stats{
		TotalTransactions: 125,
		Breakdown:         model.Breakdown{Swaps: 9},
	}
	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if stats.VolumeUSD != 5000 {
		t.Fatalf("volume = %f, want cached 5000", stats.VolumeUSD)
	}
	if stats.Transactions != 125 {
		t.Fatalf("transactions = %d, want fresh 125", stats.Transactions)
	}
	if stats.Breakdown == nil || stats.Breakdown.Swaps != 9 {
		t.Fatalf("breakdown = %+v, want fresh", stats.Breakdown)
	}
	if stats.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", stats.Source)
	}
}

func TestRefreshBackendDownFallsBackToCache(t *testing.T) {
	api := &fakeBackend{stats: backend.Stats{TotalVolumeUSD: 700, TotalTransactions: 42}}
	agg := NewAggregator(testChain(t), api, nil, nil, testOptions())

	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	api.statsErr = model.ErrNetwork
	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if stats.VolumeUSD != 700 || stats.Transactions != 42 {
		t.Fatalf("counters = %f/%d, want cached", stats.VolumeUSD, stats.Transactions)
	}
	if stats.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", stats.Source)
	}
}

func TestRefreshBackendDownNoCacheServesTVLOnly(t *testing.T) {
	api := &fakeBackend{statsErr: model.ErrNetwork}
	agg := NewAggregator(testChain(t), api, nil, nil, testOptions())

	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if stats.TVLUSD != 3000 || stats.VolumeUSD != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Source != model.SourceOnchain {
		t.Fatalf("source = %s, want onchain", stats.Source)
	}
}

func TestRefreshChainDownUsesCachedTVL(t *testing.T) {
	chain := testChain(t)
	api := &fakeBackend{stats: backend.Stats{TotalVolumeUSD: 700}}
	agg := NewAggregator(chain, api, nil, nil, testOptions())

	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	chain.reserveErr = model.ErrNetwork
	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if stats.TVLUSD != 3000 {
		t.Fatalf("tvl = %f, want cached 3000", stats.TVLUSD)
	}
	if stats.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", stats.Source)
	}
}

func TestRefreshChainDownNoCacheFails(t *testing.T) {
	chain := testChain(t)
	chain.reserveErr = model.ErrNetwork
	agg := NewAggregator(chain, &fakeBackend{}, nil, nil, testOptions())

	if _, err := agg.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error with no TVL and no cache")
	}
}

func TestHistoryCachedFallback(t *testing.T) {
	api := &fakeBackend{page: model.TxPage{
		Transactions: []model.TxRecord{{Hash: "0x1", Type: "swap"}},
		Total:        1,
	}}
	agg := NewAggregator(testChain(t), api, nil, nil, testOptions())

	if _, err := agg.History(context.Background(), 50, 0, ""); err != nil {
		t.Fatalf("first history: %v", err)
	}

	api.pageErr = model.ErrNetwork
	page, err := agg.History(context.Background(), 50, 0, "")
	if err != nil {
		t.Fatalf("cached history: %v", err)
	}
	if page.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", page.Source)
	}
	if len(page.Transactions) != 1 || page.Transactions[0].Hash != "0x1" {
		t.Fatalf("page = %+v", page)
	}

	// Non-default pages have no cache to fall back on.
	if _, err := agg.History(context.Background(), 50, 50, ""); err == nil {
		t.Fatalf("expected error for uncached page")
	}
}

func TestSeedAndSnapshotPersistence(t *testing.T) {
	store := &fakeStore{
		snapshot:    model.ProtocolStats{TVLUSD: 2500, VolumeUSD: 900, Transactions: 33, Source: model.SourceBackend},
		hasSnapshot: true,
	}
	chain := testChain(t)
	chain.reserveErr = model.ErrNetwork
	api := &fakeBackend{statsErr: model.ErrNetwork}

	agg := NewAggregator(chain, api, store, nil, testOptions())
	agg.Seed(context.Background())

	if current, ok := agg.Current(); !ok || current.TVLUSD != 2500 {
		t.Fatalf("seeded cache = %+v ok=%v", current, ok)
	}

	// Everything is down; the seeded snapshot carries the refresh.
	stats, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if stats.TVLUSD != 2500 || stats.VolumeUSD != 900 {
		t.Fatalf("stats = %+v, want seeded values", stats)
	}
	if stats.Source != model.SourceCached {
		t.Fatalf("source = %s, want cached", stats.Source)
	}
	if store.upserts == 0 {
		t.Fatalf("refresh did not persist a snapshot")
	}
}
