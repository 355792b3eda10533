package orchestrator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flowonarc/internal/model"
)

// Params carries the inputs of one flow. Which fields matter depends on
// the operation: swaps read QuotedOut and SlippagePercent, liquidity
// adds read AmountB, liquidity removes read Shares.
type Params struct {
	TokenIn  model.Token
	TokenOut model.Token

	AmountIn *big.Int
	// AmountB is the second leg of an add-liquidity deposit.
	AmountB *big.Int
	// Shares is the LP share amount burned on remove-liquidity.
	Shares *big.Int

	// QuotedOut is the output previously quoted for a swap; the minimum
	// acceptable output is derived from it and SlippagePercent.
	QuotedOut       *big.Int
	SlippagePercent float64
}

type spenderKind int

const (
	spenderRouter spenderKind = iota
	spenderLending
)

// approvalSpec describes one ERC20 approval a flow may need. The step
// is skipped when the existing allowance already covers the amount.
type approvalSpec struct {
	role    model.StepRole
	spender spenderKind
	token   func(p Params) model.Token
	amount  func(p Params) *big.Int
}

func tokenIn(p Params) model.Token  { return p.TokenIn }
func tokenOut(p Params) model.Token { return p.TokenOut }
func amountIn(p Params) *big.Int    { return p.AmountIn }
func amountB(p Params) *big.Int     { return p.AmountB }

// approvalPlans lists the approvals each operation may require, in
// order. Operations that move funds out of a contract (withdraw,
// borrow, remove-liquidity, faucet claims) need none.
var approvalPlans = map[model.OperationType][]approvalSpec{
	model.OpSwap: {
		{role: model.RoleApprove, spender: spenderRouter, token: tokenIn, amount: amountIn},
	},
	model.OpSupply: {
		{role: model.RoleApprove, spender: spenderLending, token: tokenIn, amount: amountIn},
	},
	model.OpRepay: {
		{role: model.RoleApprove, spender: spenderLending, token: tokenIn, amount: amountIn},
	},
	model.OpAddLiquidity: {
		{role: model.RoleApproveA, spender: spenderRouter, token: tokenIn, amount: amountIn},
		{role: model.RoleApproveB, spender: spenderRouter, token: tokenOut, amount: amountB},
	},
	model.OpWithdraw:        nil,
	model.OpBorrow:          nil,
	model.OpRemoveLiquidity: nil,
	model.OpFaucetClaim:     nil,
}

// boundStep is a plan entry bound to concrete arguments, ready to run.
type boundStep struct {
	role   model.StepRole
	label  string
	submit func(ctx context.Context) (Pending, error)
}

func validateParams(op model.OperationType, p Params) error {
	positive := func(name string, v *big.Int) error {
		if v == nil || v.Sign() <= 0 {
			return fmt.Errorf("%w: %s must be positive", model.ErrInvalidAmount, name)
		}
		return nil
	}

	switch op {
	case model.OpSwap:
		if err := positive("amount", p.AmountIn); err != nil {
			return err
		}
		return positive("quoted output", p.QuotedOut)
	case model.OpSupply, model.OpWithdraw, model.OpBorrow, model.OpRepay:
		return positive("amount", p.AmountIn)
	case model.OpAddLiquidity:
		if err := positive("amount A", p.AmountIn); err != nil {
			return err
		}
		return positive("amount B", p.AmountB)
	case model.OpRemoveLiquidity:
		return positive("shares", p.Shares)
	case model.OpFaucetClaim:
		return nil
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

// buildSteps assembles the bound step list for one flow. Each approval
// in the plan is checked against the current allowance exactly once,
// here, and dropped when already sufficient.
func (o *Orchestrator) buildSteps(ctx context.Context, op model.OperationType, p Params) ([]boundStep, error) {
	owner := o.sub.Owner()

	var steps []boundStep
	for _, spec := range approvalPlans[op] {
		token := spec.token(p)
		amt := spec.amount(p)
		spender := o.spenderAddress(spec.spender)

		allowance, err := o.sub.Allowance(ctx, common.HexToAddress(token.Address), owner, spender)
		if err != nil {
			return nil, fmt.Errorf("allowance %s: %w", token.Symbol, err)
		}
		if allowance.Cmp(amt) >= 0 {
			continue
		}

		tokenAddr := common.HexToAddress(token.Address)
		approveAmt := new(big.Int).Set(amt)
		steps = append(steps, boundStep{
			role:  spec.role,
			label: fmt.Sprintf("Approve %s", token.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Approve(ctx, tokenAddr, spender, approveAmt)
			},
		})
	}

	execute, err := o.bindExecute(op, p, owner)
	if err != nil {
		return nil, err
	}
	return append(steps, execute), nil
}

func (o *Orchestrator) spenderAddress(kind spenderKind) common.Address {
	if kind == spenderLending {
		return o.sub.LendingSpender()
	}
	return o.sub.RouterSpender()
}

func (o *Orchestrator) bindExecute(op model.OperationType, p Params, owner common.Address) (boundStep, error) {
	in := common.HexToAddress(p.TokenIn.Address)
	out := common.HexToAddress(p.TokenOut.Address)

	switch op {
	case model.OpSwap:
		minOut := MinOut(p.QuotedOut, p.SlippagePercent)
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Swap %s for %s", p.TokenIn.Symbol, p.TokenOut.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Swap(ctx, p.AmountIn, minOut, in, out, owner)
			},
		}, nil
	case model.OpSupply:
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Supply %s", p.TokenIn.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Supply(ctx, in, p.AmountIn)
			},
		}, nil
	case model.OpWithdraw:
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Withdraw %s", p.TokenIn.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Withdraw(ctx, in, p.AmountIn)
			},
		}, nil
	case model.OpBorrow:
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Borrow %s", p.TokenIn.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Borrow(ctx, in, p.AmountIn)
			},
		}, nil
	case model.OpRepay:
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Repay %s", p.TokenIn.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Repay(ctx, in, p.AmountIn)
			},
		}, nil
	case model.OpAddLiquidity:
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Add %s/%s liquidity", p.TokenIn.Symbol, p.TokenOut.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.AddLiquidity(ctx, in, out, p.AmountIn, p.AmountB)
			},
		}, nil
	case model.OpRemoveLiquidity:
		return boundStep{
			role:  model.RoleExecute,
			label: fmt.Sprintf("Remove %s/%s liquidity", p.TokenIn.Symbol, p.TokenOut.Symbol),
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.RemoveLiquidity(ctx, in, out, p.Shares)
			},
		}, nil
	case model.OpFaucetClaim:
		return boundStep{
			role:  model.RoleExecute,
			label: "Claim from faucet",
			submit: func(ctx context.Context) (Pending, error) {
				return o.sub.Claim(ctx)
			},
		}, nil
	default:
		return boundStep{}, fmt.Errorf("unknown operation %q", op)
	}
}

// MinOut applies the slippage tolerance to a quoted output. The
// percentage is truncated to basis-point precision and the result
// rounds down, so the bound is never looser than requested.
func MinOut(quoted *big.Int, slippagePercent float64) *big.Int {
	if slippagePercent <= 0 {
		return new(big.Int).Set(quoted)
	}
	bps := int64(slippagePercent * 100)
	if bps >= 10000 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(quoted, big.NewInt(10000-bps))
	return out.Quo(out, big.NewInt(10000))
}
