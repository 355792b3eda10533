package gateway

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/chain"
	"flowonarc/internal/model"
)

// SwapDeadline bounds how long a submitted swap may sit in the mempool
// before the contract rejects it as stale.
const SwapDeadline = 20 * time.Minute

// SwapPath returns the routing path for a swap. If either side is the
// stable asset the swap is a direct hop; otherwise it routes through
// the stable asset. Quote and execute share this single decision.
func SwapPath(stable, tokenIn, tokenOut common.Address) []common.Address {
	if tokenIn == stable || tokenOut == stable {
		return []common.Address{tokenIn, tokenOut}
	}
	return []common.Address{tokenIn, stable, tokenOut}
}

// Path returns the swap path for the configured stable asset.
func (g *Gateway) Path(tokenIn, tokenOut common.Address) []common.Address {
	return SwapPath(common.HexToAddress(g.cfg.Stable.Address), tokenIn, tokenOut)
}

// GetAmountsOut quotes a swap along path, returning the amount at every
// hop. The final element is the output amount.
func (g *Gateway) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Router, parsed, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	return asBigIntSlice(values[0])
}

// SwapExactTokensForTokens submits a swap with slippage protection: the
// contract rejects atomically if the realized output would be less than
// amountOutMin.
func (g *Gateway) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address) (*chain.PendingTx, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	deadline := big.NewInt(time.Now().Add(SwapDeadline).Unix())
	return g.transact(ctx, g.cfg.Router, parsed, "swapExactTokensForTokens", amountIn, amountOutMin, path, recipient, deadline)
}

// GetPoolID returns the pool identifier for a token pair.
func (g *Gateway) GetPoolID(ctx context.Context, tokenA, tokenB common.Address) ([32]byte, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return [32]byte{}, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Router, parsed, "getPoolId", tokenA, tokenB)
	if err != nil {
		return [32]byte{}, err
	}
	return asBytes32(values[0])
}

// Pools returns the reserve pair for a pool id.
func (g *Gateway) Pools(ctx context.Context, poolID [32]byte) (model.ReservePair, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return model.ReservePair{}, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Router, parsed, "pools", poolID)
	if err != nil {
		return model.ReservePair{}, err
	}
	if len(values) != 4 {
		return model.ReservePair{}, fmt.Errorf("pools return size %d", len(values))
	}

	token0, err := asAddress(values[0])
	if err != nil {
		return model.ReservePair{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := asAddress(values[1])
	if err != nil {
		return model.ReservePair{}, fmt.Errorf("token1: %w", err)
	}
	reserve0, err := asBigInt(values[2])
	if err != nil {
		return model.ReservePair{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[3])
	if err != nil {
		return model.ReservePair{}, fmt.Errorf("reserve1: %w", err)
	}

	return model.ReservePair{
		Token0:   token0.Hex(),
		Token1:   token1.Hex(),
		Reserve0: reserve0,
		Reserve1: reserve1,
	}, nil
}

// PoolReserves resolves the pool id for a pair and reads its reserves.
func (g *Gateway) PoolReserves(ctx context.Context, tokenA, tokenB common.Address) (model.ReservePair, error) {
	poolID, err := g.GetPoolID(ctx, tokenA, tokenB)
	if err != nil {
		return model.ReservePair{}, err
	}
	return g.Pools(ctx, poolID)
}

// UserLiquidity returns a user's LP share balance in a pool.
func (g *Gateway) UserLiquidity(ctx context.Context, poolID [32]byte, user common.Address) (*big.Int, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Router, parsed, "userLiquidity", poolID, user)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// TotalLiquidity returns a pool's total LP share supply.
func (g *Gateway) TotalLiquidity(ctx context.Context, poolID [32]byte) (*big.Int, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Router, parsed, "totalLiquidity", poolID)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// AddLiquidity deposits both sides of a pair into the pool.
func (g *Gateway) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int) (*chain.PendingTx, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	return g.transact(ctx, g.cfg.Router, parsed, "addLiquidity", tokenA, tokenB, amountA, amountB)
}

// RemoveLiquidity burns LP shares for the underlying reserves. No
// approval is needed; shares are internal pool accounting.
func (g *Gateway) RemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, shares *big.Int) (*chain.PendingTx, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	return g.transact(ctx, g.cfg.Router, parsed, "removeLiquidity", tokenA, tokenB, shares)
}
