package pricing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/amount"
	"flowonarc/internal/gateway"
	"flowonarc/internal/model"
)

type fakeReader struct {
	stable common.Address

	quoteCalls int
	quoteErr   error
	// spotOut is returned for 1-unit quotes, actualOut for everything
	// else.
	spotOut   *big.Int
	actualOut *big.Int

	reserves    model.ReservePair
	reservesErr error

	account       model.AccountData
	collateral    *big.Int
	collateralErr error
	reserve       model.ReserveData
}

func (f *fakeReader) Path(tokenIn, tokenOut common.Address) []common.Address {
	return gateway.SwapPath(f.stable, tokenIn, tokenOut)
}

func (f *fakeReader) GetAmountsOut(_ context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	out := f.actualOut
	if t, ok := model.TokenByAddress(path[0].Hex()); ok {
		if amountIn.Cmp(amount.WholeUnit(t.Decimals)) == 0 {
			out = f.spotOut
		}
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = amountIn
	for i := 1; i < len(path); i++ {
		amounts[i] = out
	}
	return amounts, nil
}

func (f *fakeReader) PoolReserves(_ context.Context, _, _ common.Address) (model.ReservePair, error) {
	return f.reserves, f.reservesErr
}

func (f *fakeReader) GetUserAccountData(_ context.Context, _ common.Address) (model.AccountData, error) {
	return f.account, nil
}

func (f *fakeReader) GetUserCollateral(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return f.collateral, f.collateralErr
}

func (f *fakeReader) GetReserveData(_ context.Context, _ common.Address) (model.ReserveData, error) {
	return f.reserve, nil
}

func usd(s string) *big.Int {
	v, err := amount.ToBaseUnits(s, 18)
	if err != nil {
		panic(err)
	}
	return v
}

func units(s string, decimals uint8) *big.Int {
	v, err := amount.ToBaseUnits(s, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

func newFake() *fakeReader {
	return &fakeReader{stable: common.HexToAddress(model.USDC.Address)}
}

func TestQuoteSwapNoLiquidityOnRevert(t *testing.T) {
	fake := newFake()
	fake.quoteErr = model.ErrCallReverted

	engine := NewEngine(fake, nil)
	_, err := engine.QuoteSwap(context.Background(), units("10", 18), model.CAT, model.USDC)
	if !errors.Is(err, model.ErrNoLiquidity) {
		t.Fatalf("expected ErrNoLiquidity, got %v", err)
	}
}

func TestQuoteSwapNetworkErrorPassesThrough(t *testing.T) {
	fake := newFake()
	fake.quoteErr = model.ErrNetwork

	engine := NewEngine(fake, nil)
	_, err := engine.QuoteSwap(context.Background(), units("10", 18), model.CAT, model.USDC)
	if !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if errors.Is(err, model.ErrNoLiquidity) {
		t.Fatalf("network error must not masquerade as no-liquidity")
	}
}

func TestSpotRateCachedPerPair(t *testing.T) {
	fake := newFake()
	fake.spotOut = units("2", 6) // 1 CAT = 2 USDC
	fake.actualOut = units("2", 6)

	engine := NewEngine(fake, nil)
	rate, err := engine.SpotRate(context.Background(), model.CAT, model.USDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate.Cmp(big.NewRat(2, 1)) != 0 {
		t.Fatalf("spot rate = %s, want 2", rate.RatString())
	}

	calls := fake.quoteCalls
	for i := 0; i < 5; i++ {
		if _, err := engine.SpotRate(context.Background(), model.CAT, model.USDC); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if fake.quoteCalls != calls {
		t.Fatalf("spot rate not cached: %d extra quote calls", fake.quoteCalls-calls)
	}

	engine.InvalidateSpot()
	if _, err := engine.SpotRate(context.Background(), model.CAT, model.USDC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.quoteCalls != calls+1 {
		t.Fatalf("invalidate did not drop the cache")
	}
}

func TestPriceImpactComputed(t *testing.T) {
	fake := newFake()
	// Spot: 1 CAT -> 2 USDC. Actual: 100 CAT -> 180 USDC (rate 1.8),
	// impact = (2 - 1.8) / 2 * 100 = 10%.
	fake.spotOut = units("2", 6)
	fake.actualOut = units("180", 6)
	fake.reserves = model.ReservePair{
		Token0:   model.CAT.Address,
		Token1:   model.USDC.Address,
		Reserve0: units("10000", 18),
		Reserve1: units("20000", 6),
	}

	engine := NewEngine(fake, nil)
	impact, err := engine.PriceImpact(context.Background(), units("100", 18), model.CAT, model.USDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if impact.ImpactPercent < 9.99 || impact.ImpactPercent > 10.01 {
		t.Fatalf("impact = %f, want 10", impact.ImpactPercent)
	}
	if impact.SwapSizePercent < 0.99 || impact.SwapSizePercent > 1.01 {
		t.Fatalf("swap size = %f, want 1", impact.SwapSizePercent)
	}
	if impact.Estimated {
		t.Fatalf("impact should not be estimated when reserves were read")
	}
	if impact.LiquidityDepth != 10000 {
		t.Fatalf("liquidity depth = %f, want 10000", impact.LiquidityDepth)
	}
}

func TestPriceImpactNeverNegative(t *testing.T) {
	fake := newFake()
	// Actual rate better than spot: impact reports as zero.
	fake.spotOut = units("2", 6)
	fake.actualOut = units("250", 6)
	fake.reserves = model.ReservePair{
		Token0:   model.CAT.Address,
		Token1:   model.USDC.Address,
		Reserve0: units("10000", 18),
		Reserve1: units("20000", 6),
	}

	engine := NewEngine(fake, nil)
	impact, err := engine.PriceImpact(context.Background(), units("100", 18), model.CAT, model.USDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if impact.ImpactPercent != 0 {
		t.Fatalf("impact = %f, want 0 for favorable deviation", impact.ImpactPercent)
	}
}

func TestPriceImpactEstimatedWhenReservesUnreadable(t *testing.T) {
	fake := newFake()
	fake.spotOut = units("2", 6)
	fake.actualOut = units("190", 6)
	fake.reservesErr = model.ErrNetwork

	engine := NewEngine(fake, nil)
	impact, err := engine.PriceImpact(context.Background(), units("100", 18), model.CAT, model.USDC)
	if err != nil {
		t.Fatalf("estimation path must not fail: %v", err)
	}
	if !impact.Estimated {
		t.Fatalf("result should be labeled estimated")
	}
	if impact.ImpactPercent < 0 {
		t.Fatalf("impact = %f, must be non-negative", impact.ImpactPercent)
	}
}

func TestPriceImpactNoLiquidity(t *testing.T) {
	fake := newFake()
	fake.quoteErr = model.ErrCallReverted

	engine := NewEngine(fake, nil)
	_, err := engine.PriceImpact(context.Background(), units("100", 18), model.CAT, model.USDC)
	if !errors.Is(err, model.ErrNoLiquidity) {
		t.Fatalf("expected ErrNoLiquidity, got %v", err)
	}
}

func TestCheckMinimumValue(t *testing.T) {
	price := usd("0.015")

	// 0.1 CAT at $0.015 = $0.0015: rejected.
	if err := CheckMinimumValue(units("0.1", 18), model.CAT, price); !errors.Is(err, model.ErrBelowMinimumValue) {
		t.Fatalf("expected ErrBelowMinimumValue, got %v", err)
	}

	// 400 CAT at $0.015 = $6.00: allowed.
	if err := CheckMinimumValue(units("400", 18), model.CAT, price); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero value passes the gate; invalid-amount checks catch it first.
	if err := CheckMinimumValue(big.NewInt(0), model.CAT, price); err != nil {
		t.Fatalf("zero amount should pass the dust gate, got %v", err)
	}
}

func TestValidateBalance(t *testing.T) {
	if err := ValidateBalance(big.NewInt(0), big.NewInt(100)); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := ValidateBalance(big.NewInt(101), big.NewInt(100)); !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := ValidateBalance(big.NewInt(100), big.NewInt(100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
