package main

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
	"flowonarc/internal/orchestrator"
)

func newPoolCmd() *cobra.Command {
	pool := &cobra.Command{
		Use:   "pool",
		Short: "AMM liquidity operations",
	}
	pool.AddCommand(newPoolAddCmd())
	pool.AddCommand(newPoolRemoveCmd())
	pool.AddCommand(newPoolShowCmd())
	return pool
}

func newPoolAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <amount-a> <token-a> <amount-b> <token-b>",
		Short: "Deposit both sides of a pair",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			tokenA, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			tokenB, err := tokenArg(args[3])
			if err != nil {
				return err
			}
			amountA, err := amount.ToBaseUnits(args[0], tokenA.Decimals)
			if err != nil {
				return err
			}
			amountB, err := amount.ToBaseUnits(args[2], tokenB.Decimals)
			if err != nil {
				return err
			}

			if err := app.checkBalance(ctx, tokenA, amountA); err != nil {
				return err
			}
			if err := app.checkBalance(ctx, tokenB, amountB); err != nil {
				return err
			}

			return app.runFlow(ctx, model.OpAddLiquidity, orchestrator.Params{
				TokenIn:  tokenA,
				TokenOut: tokenB,
				AmountIn: amountA,
				AmountB:  amountB,
			})
		},
	}
}

func newPoolRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <shares> <token-a> <token-b>",
		Short: "Burn LP shares for the underlying reserves",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			tokenA, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			tokenB, err := tokenArg(args[2])
			if err != nil {
				return err
			}
			// LP shares are 18-decimal internal pool accounting.
			shares, err := amount.ToBaseUnits(args[0], 18)
			if err != nil {
				return err
			}

			poolID, err := app.gw.GetPoolID(ctx, common.HexToAddress(tokenA.Address), common.HexToAddress(tokenB.Address))
			if err != nil {
				return err
			}
			owned, err := app.gw.UserLiquidity(ctx, poolID, app.gw.Signer().Address())
			if err != nil {
				return err
			}
			if shares.Cmp(owned) > 0 {
				return fmt.Errorf("%w: own %s shares", model.ErrInsufficientBalance,
					amount.ToDecimalString(owned, 18))
			}

			return app.runFlow(ctx, model.OpRemoveLiquidity, orchestrator.Params{
				TokenIn:  tokenA,
				TokenOut: tokenB,
				Shares:   shares,
			})
		},
	}
}

func newPoolShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <token-a> <token-b>",
		Short: "Show a pool's reserves and your share",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			tokenA, err := tokenArg(args[0])
			if err != nil {
				return err
			}
			tokenB, err := tokenArg(args[1])
			if err != nil {
				return err
			}

			addrA := common.HexToAddress(tokenA.Address)
			addrB := common.HexToAddress(tokenB.Address)
			pair, err := app.gw.PoolReserves(ctx, addrA, addrB)
			if err != nil {
				return err
			}
			if !pair.HasLiquidity() {
				fmt.Printf("%s/%s: no liquidity\n", tokenA.Symbol, tokenB.Symbol)
				return nil
			}

			reserveA, reserveB := pair.Reserve0, pair.Reserve1
			if !strings.EqualFold(pair.Token0, tokenA.Address) {
				reserveA, reserveB = pair.Reserve1, pair.Reserve0
			}
			fmt.Printf("%s/%s reserves: %s / %s\n",
				tokenA.Symbol, tokenB.Symbol,
				amount.ToDecimalString(reserveA, tokenA.Decimals),
				amount.ToDecimalString(reserveB, tokenB.Decimals))

			poolID, err := app.gw.GetPoolID(ctx, addrA, addrB)
			if err != nil {
				return err
			}
			total, err := app.gw.TotalLiquidity(ctx, poolID)
			if err != nil {
				return err
			}
			fmt.Printf("total shares: %s\n", amount.ToDecimalString(total, 18))

			if signer := app.gw.Signer(); signer != nil {
				owned, err := app.gw.UserLiquidity(ctx, poolID, signer.Address())
				if err == nil && owned.Sign() > 0 {
					fmt.Printf("your shares:  %s\n", amount.ToDecimalString(owned, 18))
				}
			}
			return nil
		},
	}
}
