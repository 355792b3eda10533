package pricing

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/model"
)

func TestFreeCollateralProportional(t *testing.T) {
	// 1000 USD collateral, 400 USD debt, LTV 0.8:
	// required = 400/0.8 = 500, free = 500. An asset holding 500 USD of
	// the collateral (50%) may release 250 USD.
	got := FreeCollateralShare(usd("1000"), usd("400"), usd("500"))
	if got.Cmp(usd("250")) != 0 {
		t.Fatalf("free share = %s, want %s", got, usd("250"))
	}
}

func TestFreeCollateralZeroDebt(t *testing.T) {
	got := FreeCollateralShare(usd("1000"), usd("0"), usd("500"))
	if got.Cmp(usd("500")) != 0 {
		t.Fatalf("free share = %s, want full asset value %s", got, usd("500"))
	}
}

func TestFreeCollateralFullyLocked(t *testing.T) {
	// Debt of 800 at LTV 0.8 requires 1000 of collateral: nothing free.
	got := FreeCollateralShare(usd("1000"), usd("800"), usd("500"))
	if got.Sign() != 0 {
		t.Fatalf("free share = %s, want 0", got)
	}

	// Over-indebted accounts also release nothing.
	got = FreeCollateralShare(usd("1000"), usd("900"), usd("500"))
	if got.Sign() != 0 {
		t.Fatalf("free share = %s, want 0", got)
	}
}

func TestMaxWithdrawableZeroDebtReturnsFullBalance(t *testing.T) {
	fake := newFake()
	fake.account = model.AccountData{
		TotalCollateralUSD: usd("1000"),
		TotalDebtUSD:       usd("0"),
	}
	fake.collateral = units("500", 6)

	engine := NewEngine(fake, nil)
	got, err := engine.MaxWithdrawable(context.Background(), common.Address{}, model.USDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(units("500", 6)) != 0 {
		t.Fatalf("max withdrawable = %s, want full supplied balance", got)
	}
}

func TestMaxWithdrawableProportionalAndClamped(t *testing.T) {
	fake := newFake()
	fake.account = model.AccountData{
		TotalCollateralUSD: usd("1000"),
		TotalDebtUSD:       usd("400"),
	}
	fake.collateral = units("500", 6) // 500 USDC supplied at $1
	fake.reserve = model.ReserveData{PriceUSD: usd("1")}

	engine := NewEngine(fake, nil)
	got, err := engine.MaxWithdrawable(context.Background(), common.Address{}, model.USDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 50% share of 500 free USD = 250 USD = 250 USDC.
	if got.Cmp(units("250", 6)) != 0 {
		t.Fatalf("max withdrawable = %s, want %s", got, units("250", 6))
	}
}

func TestMaxWithdrawableNeverExceedsSupplied(t *testing.T) {
	fake := newFake()
	// Inconsistent aggregates should still clamp at the real balance.
	fake.account = model.AccountData{
		TotalCollateralUSD: usd("100"),
		TotalDebtUSD:       usd("1"),
	}
	fake.collateral = units("50", 6)
	fake.reserve = model.ReserveData{PriceUSD: usd("0.01")}

	engine := NewEngine(fake, nil)
	got, err := engine.MaxWithdrawable(context.Background(), common.Address{}, model.USDC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(units("50", 6)) > 0 {
		t.Fatalf("max withdrawable %s exceeds supplied balance", got)
	}
}
