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

// Claim submits a faucet claim for the signer's current tier.
func (g *Gateway) Claim(ctx context.Context) (*chain.PendingTx, error) {
	parsed, err := faucetABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse faucet abi: %w", err)
	}
	return g.transact(ctx, g.cfg.Faucet, parsed, "claim")
}

// GetUserTier returns the user's faucet tier index.
func (g *Gateway) GetUserTier(ctx context.Context, user common.Address) (int64, error) {
	parsed, err := faucetABIInstance()
	if err != nil {
		return 0, fmt.Errorf("parse faucet abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Faucet, parsed, "getUserTier", user)
	if err != nil {
		return 0, err
	}
	tier, err := asBigInt(values[0])
	if err != nil {
		return 0, err
	}
	return tier.Int64(), nil
}

// NextClaimTime returns the unix time at which the user may claim again.
func (g *Gateway) NextClaimTime(ctx context.Context, user common.Address) (uint64, error) {
	parsed, err := faucetABIInstance()
	if err != nil {
		return 0, fmt.Errorf("parse faucet abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Faucet, parsed, "nextClaimTime", user)
	if err != nil {
		return 0, err
	}
	next, err := asBigInt(values[0])
	if err != nil {
		return 0, err
	}
	return next.Uint64(), nil
}

// Tier reads one row of the faucet's tier table.
func (g *Gateway) Tier(ctx context.Context, index int64) (model.FaucetTier, error) {
	parsed, err := faucetABIInstance()
	if err != nil {
		return model.FaucetTier{}, fmt.Errorf("parse faucet abi: %w", err)
	}
	values, err := g.call(ctx, g.cfg.Faucet, parsed, "tiers", big.NewInt(index))
	if err != nil {
		return model.FaucetTier{}, err
	}
	if len(values) != 3 {
		return model.FaucetTier{}, fmt.Errorf("tiers return size %d", len(values))
	}

	threshold, err := asBigInt(values[0])
	if err != nil {
		return model.FaucetTier{}, err
	}
	reward, err := asBigInt(values[1])
	if err != nil {
		return model.FaucetTier{}, err
	}
	cooldown, err := asBigInt(values[2])
	if err != nil {
		return model.FaucetTier{}, err
	}

	return model.FaucetTier{
		USDCThreshold: threshold,
		RewardAmount:  reward,
		Cooldown:      cooldown,
	}, nil
}

// FaucetStatus combines tier, next-claim time, and the tier's reward
// into the user's current standing.
func (g *Gateway) FaucetStatus(ctx context.Context, user common.Address) (model.FaucetStatus, error) {
	tier, err := g.GetUserTier(ctx, user)
	if err != nil {
		return model.FaucetStatus{}, err
	}
	next, err := g.NextClaimTime(ctx, user)
	if err != nil {
		return model.FaucetStatus{}, err
	}

	status := model.FaucetStatus{
		Tier:          tier,
		NextClaimTime: next,
		CanClaim:      uint64(time.Now().Unix()) >= next,
	}
	if tier >= 0 {
		if row, err := g.Tier(ctx, tier); err == nil {
			status.RewardAmount = row.RewardAmount
		}
	}
	return status, nil
}
