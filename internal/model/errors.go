package model

import "errors"

// Error taxonomy shared across the core. Client-side validation errors
// (ErrInvalidAmount, ErrInsufficientBalance, ErrBelowMinimumValue) block
// submission before any network call; the rest surface from the chain or
// the indexer.
var (
	// ErrInvalidAmount marks malformed or non-positive decimal input.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance marks a request exceeding the wallet or
	// available-collateral balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBelowMinimumValue marks a positive USD value under the
	// dust-prevention floor.
	ErrBelowMinimumValue = errors.New("below minimum transaction value")

	// ErrNoLiquidity marks a quote against an empty or nonexistent pool.
	ErrNoLiquidity = errors.New("no liquidity in pool")

	// ErrUserRejected marks a signing prompt declined by the operator.
	ErrUserRejected = errors.New("user rejected signing request")

	// ErrNetwork marks an unreachable or timed-out RPC/indexer endpoint.
	ErrNetwork = errors.New("chain or network unreachable")

	// ErrCallReverted marks an eth_call rejected by the contract.
	ErrCallReverted = errors.New("call reverted")

	// ErrTransactionReverted marks a submitted transaction that failed
	// on-chain.
	ErrTransactionReverted = errors.New("transaction reverted")
)
