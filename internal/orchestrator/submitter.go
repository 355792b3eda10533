package orchestrator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/gateway"
)

// Pending is a submitted transaction: its hash is known immediately,
// Await blocks until it is mined.
type Pending interface {
	TxHash() string
	Await(ctx context.Context) error
}

// Submitter is the write surface a flow drives. It exists so flows can
// be exercised against fakes; GatewaySubmitter is the production
// implementation.
type Submitter interface {
	Owner() common.Address
	RouterSpender() common.Address
	LendingSpender() common.Address

	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (Pending, error)
	Swap(ctx context.Context, amountIn, minOut *big.Int, tokenIn, tokenOut, recipient common.Address) (Pending, error)
	Supply(ctx context.Context, token common.Address, amount *big.Int) (Pending, error)
	Withdraw(ctx context.Context, token common.Address, amount *big.Int) (Pending, error)
	Borrow(ctx context.Context, token common.Address, amount *big.Int) (Pending, error)
	Repay(ctx context.Context, token common.Address, amount *big.Int) (Pending, error)
	AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int) (Pending, error)
	RemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, shares *big.Int) (Pending, error)
	Claim(ctx context.Context) (Pending, error)
}

// GatewaySubmitter adapts the contract gateway to the Submitter
// interface.
type GatewaySubmitter struct {
	gw *gateway.Gateway
}

// NewGatewaySubmitter wraps a gateway that carries a signer.
func NewGatewaySubmitter(gw *gateway.Gateway) *GatewaySubmitter {
	return &GatewaySubmitter{gw: gw}
}

func (s *GatewaySubmitter) Owner() common.Address {
	return s.gw.Signer().Address()
}

func (s *GatewaySubmitter) RouterSpender() common.Address {
	return s.gw.RouterAddress()
}

func (s *GatewaySubmitter) LendingSpender() common.Address {
	return s.gw.LendingAddress()
}

func (s *GatewaySubmitter) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return s.gw.Allowance(ctx, token, owner, spender)
}

func (s *GatewaySubmitter) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (Pending, error) {
	p, err := s.gw.Approve(ctx, token, spender, amount)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) Swap(ctx context.Context, amountIn, minOut *big.Int, tokenIn, tokenOut, recipient common.Address) (Pending, error) {
	path := s.gw.Path(tokenIn, tokenOut)
	p, err := s.gw.SwapExactTokensForTokens(ctx, amountIn, minOut, path, recipient)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) Supply(ctx context.Context, token common.Address, amount *big.Int) (Pending, error) {
	p, err := s.gw.SupplyCollateral(ctx, token, amount)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) Withdraw(ctx context.Context, token common.Address, amount *big.Int) (Pending, error) {
	p, err := s.gw.WithdrawCollateral(ctx, token, amount)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) Borrow(ctx context.Context, token common.Address, amount *big.Int) (Pending, error) {
	p, err := s.gw.Borrow(ctx, token, amount)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) Repay(ctx context.Context, token common.Address, amount *big.Int) (Pending, error) {
	p, err := s.gw.Repay(ctx, token, amount)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) AddLiquidity(ctx context.Context, tokenA, tokenB common.Address, amountA, amountB *big.Int) (Pending, error) {
	p, err := s.gw.AddLiquidity(ctx, tokenA, tokenB, amountA, amountB)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) RemoveLiquidity(ctx context.Context, tokenA, tokenB common.Address, shares *big.Int) (Pending, error) {
	p, err := s.gw.RemoveLiquidity(ctx, tokenA, tokenB, shares)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GatewaySubmitter) Claim(ctx context.Context) (Pending, error) {
	p, err := s.gw.Claim(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}
