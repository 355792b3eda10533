package model

import "math/big"

// FaucetTier is one row of the faucet's tier table.
type FaucetTier struct {
	USDCThreshold *big.Int `json:"usdc_threshold"`
	RewardAmount  *big.Int `json:"reward_amount"`
	Cooldown      *big.Int `json:"cooldown"`
}

// FaucetStatus is a user's current faucet standing.
type FaucetStatus struct {
	Tier          int64    `json:"tier"`
	NextClaimTime uint64   `json:"next_claim_time"`
	CanClaim      bool     `json:"can_claim"`
	RewardAmount  *big.Int `json:"reward_amount,omitempty"`
}
