package model

import "math/big"

// USDDecimals is the fixed-point precision of all protocol USD values.
const USDDecimals = 18

// ReservePair holds the two reserve balances of an AMM pool and which
// token occupies each slot. Both reserves are non-negative; a pool with
// either reserve at zero has no usable liquidity.
type ReservePair struct {
	Token0   string   `json:"token0"`
	Token1   string   `json:"token1"`
	Reserve0 *big.Int `json:"reserve0"`
	Reserve1 *big.Int `json:"reserve1"`
}

// HasLiquidity reports whether both reserves are positive.
func (p ReservePair) HasLiquidity() bool {
	return p.Reserve0 != nil && p.Reserve1 != nil &&
		p.Reserve0.Sign() > 0 && p.Reserve1.Sign() > 0
}

// AccountData is the lending pool's aggregate view of a user, all values
// 18-decimal USD fixed point.
type AccountData struct {
	TotalCollateralUSD  *big.Int `json:"total_collateral_usd"`
	TotalDebtUSD        *big.Int `json:"total_debt_usd"`
	AvailableBorrowsUSD *big.Int `json:"available_borrows_usd"`
	HealthFactor        *big.Int `json:"health_factor"`
}

// AccountPosition is a user's standing in one lending market, native
// token units plus the protocol aggregates.
type AccountPosition struct {
	Token    Token       `json:"token"`
	Supplied *big.Int    `json:"supplied"`
	Borrowed *big.Int    `json:"borrowed"`
	Account  AccountData `json:"account"`
}

// ReserveData is the lending pool's per-market state. PriceUSD is the
// pool's recorded price per whole token, 18-decimal fixed point.
type ReserveData struct {
	AvailableLiquidity *big.Int `json:"available_liquidity"`
	TotalSupplied      *big.Int `json:"total_supplied"`
	TotalBorrowed      *big.Int `json:"total_borrowed"`
	LTV                *big.Int `json:"ltv"`
	PriceUSD           *big.Int `json:"price_usd"`
}

// PriceImpact is the ephemeral result of sizing a hypothetical swap
// against current reserves.
type PriceImpact struct {
	// ImpactPercent is how much worse the realized rate is than the
	// spot rate, floored at zero.
	ImpactPercent float64 `json:"impact_percent"`
	// SwapSizePercent is the first hop's input as a share of its pool
	// reserve.
	SwapSizePercent float64 `json:"swap_size_percent"`
	// LiquidityDepth is the smallest human-readable reserve across all
	// hops.
	LiquidityDepth float64 `json:"liquidity_depth"`
	// Hops is the number of pools traversed.
	Hops int `json:"hops"`
	// Estimated is set when reserves could not be read and conservative
	// assumptions were used instead.
	Estimated bool `json:"estimated,omitempty"`
}
