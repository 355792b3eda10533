package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/chain"
	"flowonarc/internal/model"
)

// SupplyCollateral deposits tokens into the lending pool.
func (g *Gateway) SupplyCollateral(ctx context.Context, token common.Address, amount *big.Int) (*chain.PendingTx, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse lending abi: %w", err)
	}
	return g.transact(ctx, g.cfg.LendingPool, parsed, "supplyCollateral", token, amount)
}

// WithdrawCollateral pulls supplied tokens back out. The pool already
// holds the asset, so no approval precedes this.
func (g *Gateway) WithdrawCollateral(ctx context.Context, token common.Address, amount *big.Int) (*chain.PendingTx, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse lending abi: %w", err)
	}
	return g.transact(ctx, g.cfg.LendingPool, parsed, "withdrawCollateral", token, amount)
}

// Borrow draws tokens against supplied collateral.
func (g *Gateway) Borrow(ctx context.Context, token common.Address, amount *big.Int) (*chain.PendingTx, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse lending abi: %w", err)
	}
	return g.transact(ctx, g.cfg.LendingPool, parsed, "borrow", token, amount)
}

// Repay pays down borrowed debt.
func (g *Gateway) Repay(ctx context.Context, token common.Address, amount *big.Int) (*chain.PendingTx, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse lending abi: %w", err)
	}
	return g.transact(ctx, g.cfg.LendingPool, parsed, "repay", token, amount)
}

// GetUserAccountData returns the pool's aggregate USD view of a user.
func (g *Gateway) GetUserAccountData(ctx context.Context, user common.Address) (model.AccountData, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return model.AccountData{}, fmt.Errorf("parse lending abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.LendingPool, parsed, "getUserAccountData", user)
	if err != nil {
		return model.AccountData{}, err
	}
	if len(values) != 4 {
		return model.AccountData{}, fmt.Errorf("getUserAccountData return size %d", len(values))
	}

	fields := make([]*big.Int, 4)
	for i, v := range values {
		parsedInt, err := asBigInt(v)
		if err != nil {
			return model.AccountData{}, fmt.Errorf("getUserAccountData field %d: %w", i, err)
		}
		fields[i] = parsedInt
	}

	return model.AccountData{
		TotalCollateralUSD:  fields[0],
		TotalDebtUSD:        fields[1],
		AvailableBorrowsUSD: fields[2],
		HealthFactor:        fields[3],
	}, nil
}

// GetUserCollateral returns a user's supplied balance in one market.
func (g *Gateway) GetUserCollateral(ctx context.Context, user, token common.Address) (*big.Int, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse lending abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.LendingPool, parsed, "getUserCollateral", user, token)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// GetUserDebt returns a user's borrowed balance in one market.
func (g *Gateway) GetUserDebt(ctx context.Context, user, token common.Address) (*big.Int, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse lending abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.LendingPool, parsed, "getUserDebt", user, token)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// GetReserveData returns the per-market state, including the pool's
// recorded 18-decimal USD price per token.
func (g *Gateway) GetReserveData(ctx context.Context, token common.Address) (model.ReserveData, error) {
	parsed, err := lendingABIInstance()
	if err != nil {
		return model.ReserveData{}, fmt.Errorf("parse lending abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.LendingPool, parsed, "getReserveData", token)
	if err != nil {
		return model.ReserveData{}, err
	}
	if len(values) != 5 {
		return model.ReserveData{}, fmt.Errorf("getReserveData return size %d", len(values))
	}

	fields := make([]*big.Int, 5)
	for i, v := range values {
		parsedInt, err := asBigInt(v)
		if err != nil {
			return model.ReserveData{}, fmt.Errorf("getReserveData field %d: %w", i, err)
		}
		fields[i] = parsedInt
	}

	return model.ReserveData{
		AvailableLiquidity: fields[0],
		TotalSupplied:      fields[1],
		TotalBorrowed:      fields[2],
		LTV:                fields[3],
		PriceUSD:           fields[4],
	}, nil
}
