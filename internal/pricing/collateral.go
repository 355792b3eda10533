package pricing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
)

// MaxWithdrawable computes the free (non-collateralizing) balance of a
// supplied asset. The lending contract only tracks aggregate USD
// totals, so the per-asset ceiling is a best-effort approximation: free
// collateral USD is distributed across supplied assets proportionally
// to each asset's USD share, then converted back to native units and
// clamped to the supplied balance. The contract may still reject a
// withdrawal near the boundary.
func (e *Engine) MaxWithdrawable(ctx context.Context, user common.Address, token model.Token) (*big.Int, error) {
	account, err := e.reader.GetUserAccountData(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("account data: %w", err)
	}

	supplied, err := e.reader.GetUserCollateral(ctx, user, common.HexToAddress(token.Address))
	if err != nil {
		return nil, fmt.Errorf("collateral %s: %w", token.Symbol, err)
	}

	// No debt: the whole supplied balance is free.
	if account.TotalDebtUSD == nil || account.TotalDebtUSD.Sign() == 0 {
		return supplied, nil
	}

	reserve, err := e.reader.GetReserveData(ctx, common.HexToAddress(token.Address))
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", token.Symbol, err)
	}

	suppliedUSD := amount.ValueUSD(supplied, reserve.PriceUSD, token.Decimals)
	free := FreeCollateralShare(account.TotalCollateralUSD, account.TotalDebtUSD, suppliedUSD)
	native := amount.FromUSD(free, reserve.PriceUSD, token.Decimals)
	if native.Cmp(supplied) > 0 {
		native = new(big.Int).Set(supplied)
	}
	return native, nil
}

// FreeCollateralShare returns the USD amount of one asset's collateral
// that is withdrawable: total free collateral (totalCollateral −
// totalDebt/LTV, floored at zero) scaled by the asset's share of total
// collateral. All values are 18-decimal USD fixed point.
func FreeCollateralShare(totalCollateralUSD, totalDebtUSD, assetCollateralUSD *big.Int) *big.Int {
	if totalCollateralUSD == nil || totalCollateralUSD.Sign() == 0 ||
		assetCollateralUSD == nil || assetCollateralUSD.Sign() == 0 {
		return big.NewInt(0)
	}
	if totalDebtUSD == nil || totalDebtUSD.Sign() == 0 {
		return new(big.Int).Set(assetCollateralUSD)
	}

	// requiredCollateral = debt / LTV
	required := new(big.Int).Mul(totalDebtUSD, big.NewInt(ltvDen))
	required.Quo(required, big.NewInt(ltvNum))

	free := new(big.Int).Sub(totalCollateralUSD, required)
	if free.Sign() <= 0 {
		return big.NewInt(0)
	}

	share := new(big.Int).Mul(free, assetCollateralUSD)
	return share.Quo(share, totalCollateralUSD)
}
