package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/chain"
)

// BalanceOf returns the ERC20 balance of owner.
func (g *Gateway) BalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := g.call(ctx, token, parsed, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Decimals returns the token's decimal count.
func (g *Gateway) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := g.call(ctx, token, parsed, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}

// Allowance returns how much spender may pull from owner.
func (g *Gateway) Allowance(ctx context.Context, token common.Address, owner, spender common.Address) (*big.Int, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := g.call(ctx, token, parsed, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Approve submits an ERC20 approval for spender.
func (g *Gateway) Approve(ctx context.Context, token common.Address, spender common.Address, amount *big.Int) (*chain.PendingTx, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	return g.transact(ctx, token, parsed, "approve", spender, amount)
}
