// Package pricing computes swap quotes, spot rates, price impact, and
// lending withdrawal ceilings from live contract reads.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
)

// LTV is the lending pool's loan-to-value ratio, expressed as a
// fraction: collateral must cover debt / (ltvNum/ltvDen).
const (
	ltvNum = 8
	ltvDen = 10
)

// minimumValueUSD is the dust-prevention floor: supplies and swaps
// worth less than $5 (but more than zero) are rejected before
// submission. Policy only, not a contract rule.
var minimumValueUSD = new(big.Int).Mul(big.NewInt(5), amount.WholeUnit(model.USDDecimals))

// estimatedReserveFactor is the conservative reserve assumption used
// when pool reserves cannot be read: treat the pool as at least 100x
// the swap amount.
const estimatedReserveFactor = 100

// ChainReader is the subset of the contract gateway the engine needs.
type ChainReader interface {
	Path(tokenIn, tokenOut common.Address) []common.Address
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	PoolReserves(ctx context.Context, tokenA, tokenB common.Address) (model.ReservePair, error)
	GetUserAccountData(ctx context.Context, user common.Address) (model.AccountData, error)
	GetUserCollateral(ctx context.Context, user, token common.Address) (*big.Int, error)
	GetReserveData(ctx context.Context, token common.Address) (model.ReserveData, error)
}

// Engine performs price and collateral computations against a reader.
type Engine struct {
	reader ChainReader
	logger *zap.Logger

	mu        sync.Mutex
	spotCache map[string]*big.Rat
}

// NewEngine builds an Engine.
func NewEngine(reader ChainReader, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		reader:    reader,
		logger:    logger,
		spotCache: make(map[string]*big.Rat),
	}
}

// QuoteSwap returns the output amount for swapping amountIn of tokenIn
// into tokenOut along the canonical path. An empty or reverting pool
// yields ErrNoLiquidity.
func (e *Engine) QuoteSwap(ctx context.Context, amountIn *big.Int, tokenIn, tokenOut model.Token) (*big.Int, error) {
	amounts, err := e.quote(ctx, amountIn, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return amounts[len(amounts)-1], nil
}

func (e *Engine) quote(ctx context.Context, amountIn *big.Int, tokenIn, tokenOut model.Token) ([]*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: quote amount must be positive", model.ErrInvalidAmount)
	}

	path := e.reader.Path(common.HexToAddress(tokenIn.Address), common.HexToAddress(tokenOut.Address))
	amounts, err := e.reader.GetAmountsOut(ctx, amountIn, path)
	if err != nil {
		// The AMM reverts quotes against empty pools; surface that as a
		// liquidity problem, not a generic failure.
		if errors.Is(err, model.ErrCallReverted) {
			return nil, fmt.Errorf("%w: %s/%s", model.ErrNoLiquidity, tokenIn.Symbol, tokenOut.Symbol)
		}
		return nil, err
	}
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("quote returned %d amounts for %d-hop path", len(amounts), len(path))
	}
	if amounts[len(amounts)-1].Sign() == 0 {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrNoLiquidity, tokenIn.Symbol, tokenOut.Symbol)
	}
	return amounts, nil
}

// SpotRate returns how many tokenOut one whole tokenIn buys, quoted for
// exactly 1 unit so the displayed rate does not move with the entered
// amount. Cached per token pair until InvalidateSpot is called.
func (e *Engine) SpotRate(ctx context.Context, tokenIn, tokenOut model.Token) (*big.Rat, error) {
	key := spotKey(tokenIn, tokenOut)
	e.mu.Lock()
	cached, ok := e.spotCache[key]
	e.mu.Unlock()
	if ok {
		return new(big.Rat).Set(cached), nil
	}

	oneUnit := amount.WholeUnit(tokenIn.Decimals)
	out, err := e.QuoteSwap(ctx, oneUnit, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	rate := new(big.Rat).SetFrac(out, amount.WholeUnit(tokenOut.Decimals))

	e.mu.Lock()
	e.spotCache[key] = new(big.Rat).Set(rate)
	e.mu.Unlock()
	return rate, nil
}

// InvalidateSpot drops cached spot rates; called on token selection
// change and after confirmed transactions.
func (e *Engine) InvalidateSpot() {
	e.mu.Lock()
	e.spotCache = make(map[string]*big.Rat)
	e.mu.Unlock()
}

// PriceImpact compares the realized rate for amountIn against the
// 1-unit spot rate and sizes the swap against pool reserves. When
// reserves cannot be read the result is labeled Estimated rather than
// failing; a quote failure on an empty pool returns ErrNoLiquidity.
func (e *Engine) PriceImpact(ctx context.Context, amountIn *big.Int, tokenIn, tokenOut model.Token) (model.PriceImpact, error) {
	amounts, err := e.quote(ctx, amountIn, tokenIn, tokenOut)
	if err != nil {
		return model.PriceImpact{}, err
	}
	actualOut := amounts[len(amounts)-1]

	spot, err := e.SpotRate(ctx, tokenIn, tokenOut)
	if err != nil {
		return model.PriceImpact{}, err
	}

	inHuman := new(big.Rat).SetFrac(amountIn, amount.WholeUnit(tokenIn.Decimals))
	outHuman := new(big.Rat).SetFrac(actualOut, amount.WholeUnit(tokenOut.Decimals))
	actualRate := new(big.Rat).Quo(outHuman, inHuman)

	impact := 0.0
	if spot.Sign() > 0 {
		diff := new(big.Rat).Sub(spot, actualRate)
		diff.Quo(diff, spot)
		diff.Mul(diff, big.NewRat(100, 1))
		impact, _ = diff.Float64()
		if impact < 0 {
			// A favorable deviation reports as zero impact, never
			// negative.
			impact = 0
		}
	}

	result := model.PriceImpact{
		ImpactPercent: impact,
		Hops:          len(amounts) - 1,
	}

	path := e.reader.Path(common.HexToAddress(tokenIn.Address), common.HexToAddress(tokenOut.Address))
	minDepth := 0.0
	for i := 0; i < len(path)-1; i++ {
		hop := e.sizeHop(ctx, path[i], path[i+1], amounts[i], amounts[i+1])
		if i == 0 {
			result.SwapSizePercent = hop.swapSizePercent
		}
		if hop.estimated {
			result.Estimated = true
		}
		if minDepth == 0 || hop.depth < minDepth {
			minDepth = hop.depth
		}
	}
	result.LiquidityDepth = minDepth

	return result, nil
}

type hopSize struct {
	swapSizePercent float64
	depth           float64
	estimated       bool
}

func (e *Engine) sizeHop(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOut *big.Int) hopSize {
	decIn := decimalsFor(tokenIn)
	decOut := decimalsFor(tokenOut)

	pair, err := e.reader.PoolReserves(ctx, tokenIn, tokenOut)
	if err != nil || !pair.HasLiquidity() {
		if err != nil {
			e.logger.Debug("pool reserves unavailable, estimating",
				zap.String("token_in", tokenIn.Hex()),
				zap.String("token_out", tokenOut.Hex()),
				zap.Error(err),
			)
		}
		// Assume reserves are at least 100x the swap amount. The number
		// is deliberately coarse; the result carries an Estimated flag
		// so the caller does not present it as precise.
		estIn := ratFloat(new(big.Int).Mul(amountIn, big.NewInt(estimatedReserveFactor)), decIn)
		estOut := ratFloat(new(big.Int).Mul(amountOut, big.NewInt(estimatedReserveFactor)), decOut)
		depth := estIn
		if estOut < depth {
			depth = estOut
		}
		return hopSize{swapSizePercent: 1, depth: depth, estimated: true}
	}

	resIn, resOut := pair.Reserve0, pair.Reserve1
	if !strings.EqualFold(pair.Token0, tokenIn.Hex()) {
		resIn, resOut = pair.Reserve1, pair.Reserve0
	}

	sizeRat := new(big.Rat).SetFrac(amountIn, resIn)
	sizeRat.Mul(sizeRat, big.NewRat(100, 1))
	size, _ := sizeRat.Float64()

	depthIn := ratFloat(resIn, decIn)
	depthOut := ratFloat(resOut, decOut)
	depth := depthIn
	if depthOut < depth {
		depth = depthOut
	}

	return hopSize{swapSizePercent: size, depth: depth}
}

// CheckMinimumValue rejects positive amounts whose USD value is under
// the $5 floor. Zero amounts pass; they fail earlier as invalid input.
func CheckMinimumValue(v *big.Int, token model.Token, priceUSD *big.Int) error {
	value := amount.ValueUSD(v, priceUSD, token.Decimals)
	if value.Sign() > 0 && value.Cmp(minimumValueUSD) < 0 {
		return fmt.Errorf("%w: %s %s is worth under $5", model.ErrBelowMinimumValue,
			amount.ToDecimalString(v, token.Decimals), token.Symbol)
	}
	return nil
}

// ValidateBalance rejects non-positive amounts and amounts exceeding
// the available balance, before anything reaches the network.
func ValidateBalance(v *big.Int, available *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return model.ErrInvalidAmount
	}
	if available == nil || v.Cmp(available) > 0 {
		return model.ErrInsufficientBalance
	}
	return nil
}

func spotKey(tokenIn, tokenOut model.Token) string {
	return tokenIn.Symbol + "->" + tokenOut.Symbol
}

func decimalsFor(addr common.Address) uint8 {
	if t, ok := model.TokenByAddress(addr.Hex()); ok {
		return t.Decimals
	}
	return 18
}

func ratFloat(v *big.Int, decimals uint8) float64 {
	f, _ := new(big.Rat).SetFrac(v, amount.WholeUnit(decimals)).Float64()
	return f
}
