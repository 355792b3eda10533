package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
	"flowonarc/internal/orchestrator"
)

func newFaucetCmd() *cobra.Command {
	faucet := &cobra.Command{
		Use:   "faucet",
		Short: "Testnet faucet operations",
	}
	faucet.AddCommand(newFaucetClaimCmd())
	faucet.AddCommand(newFaucetStatusCmd())
	return faucet
}

func newFaucetClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Claim the current tier's reward",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			status, err := app.gw.FaucetStatus(ctx, app.gw.Signer().Address())
			if err != nil {
				return err
			}
			if !status.CanClaim {
				next := time.Unix(int64(status.NextClaimTime), 0)
				return fmt.Errorf("cooldown active until %s", next.Format(time.RFC3339))
			}

			return app.runFlow(ctx, model.OpFaucetClaim, orchestrator.Params{})
		},
	}
}

func newFaucetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the faucet tier and cooldown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			status, err := app.gw.FaucetStatus(ctx, app.gw.Signer().Address())
			if err != nil {
				return err
			}

			fmt.Printf("tier: %d\n", status.Tier)
			if status.RewardAmount != nil {
				fmt.Printf("reward: %s USDC\n", amount.ToDecimalString(status.RewardAmount, model.USDC.Decimals))
			}
			if status.CanClaim {
				fmt.Println("claimable now")
			} else {
				next := time.Unix(int64(status.NextClaimTime), 0)
				fmt.Printf("next claim: %s\n", next.Format(time.RFC3339))
			}
			return nil
		},
	}
}
