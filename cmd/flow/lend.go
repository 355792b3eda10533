package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
	"flowonarc/internal/orchestrator"
)

func newLendCmd() *cobra.Command {
	lend := &cobra.Command{
		Use:   "lend",
		Short: "Lending pool operations",
	}
	lend.AddCommand(newSupplyCmd())
	lend.AddCommand(newWithdrawCmd())
	lend.AddCommand(newBorrowCmd())
	lend.AddCommand(newRepayCmd())
	lend.AddCommand(newMaxWithdrawCmd())
	lend.AddCommand(newAccountCmd())
	return lend
}

func newSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply <amount> <token>",
		Short: "Supply collateral to the lending pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			token, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			v, err := amount.ToBaseUnits(args[0], token.Decimals)
			if err != nil {
				return err
			}
			if err := app.checkSpendable(ctx, token, v); err != nil {
				return err
			}

			return app.runFlow(ctx, model.OpSupply, orchestrator.Params{TokenIn: token, AmountIn: v})
		},
	}
}

func newWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <amount|max> <token>",
		Short: "Withdraw supplied collateral",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			token, err := tokenArg(args[1])
			if err != nil {
				return err
			}

			// The ceiling is advisory; the contract has the final word on
			// withdrawals near the collateral boundary.
			ceiling, err := app.engine.MaxWithdrawable(ctx, app.gw.Signer().Address(), token)
			if err != nil {
				return err
			}

			v := ceiling
			if args[0] != "max" {
				v, err = amount.ToBaseUnits(args[0], token.Decimals)
				if err != nil {
					return err
				}
				if v.Cmp(ceiling) > 0 {
					return fmt.Errorf("%w: %s %s exceeds withdrawable %s",
						model.ErrInsufficientBalance,
						amount.ToDecimalString(v, token.Decimals), token.Symbol,
						amount.ToDecimalString(ceiling, token.Decimals))
				}
			}

			return app.runFlow(ctx, model.OpWithdraw, orchestrator.Params{TokenIn: token, AmountIn: v})
		},
	}
}

func newBorrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <amount> <token>",
		Short: "Borrow against supplied collateral",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			token, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			v, err := amount.ToBaseUnits(args[0], token.Decimals)
			if err != nil {
				return err
			}

			return app.runFlow(ctx, model.OpBorrow, orchestrator.Params{TokenIn: token, AmountIn: v})
		},
	}
}

func newRepayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repay <amount> <token>",
		Short: "Repay borrowed debt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			token, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			v, err := amount.ToBaseUnits(args[0], token.Decimals)
			if err != nil {
				return err
			}
			// No dust floor here; small residual debts must stay repayable.
			if err := app.checkBalance(ctx, token, v); err != nil {
				return err
			}

			return app.runFlow(ctx, model.OpRepay, orchestrator.Params{TokenIn: token, AmountIn: v})
		},
	}
}

func newMaxWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "max-withdraw <token>",
		Short: "Show the withdrawable ceiling for a supplied asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			token, err := tokenArg(args[0])
			if err != nil {
				return err
			}

			ceiling, err := app.engine.MaxWithdrawable(ctx, app.gw.Signer().Address(), token)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", amount.ToDecimalString(ceiling, token.Decimals), token.Symbol)
			return nil
		},
	}
}

func newAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show the lending account summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			user := app.gw.Signer().Address()
			account, err := app.gw.GetUserAccountData(ctx, user)
			if err != nil {
				return err
			}

			fmt.Printf("collateral: $%s\n", amount.ToDecimalString(account.TotalCollateralUSD, model.USDDecimals))
			fmt.Printf("debt:       $%s\n", amount.ToDecimalString(account.TotalDebtUSD, model.USDDecimals))
			fmt.Printf("borrowable: $%s\n", amount.ToDecimalString(account.AvailableBorrowsUSD, model.USDDecimals))

			for _, token := range model.LendableTokens {
				supplied, err := app.gw.GetUserCollateral(ctx, user, common.HexToAddress(token.Address))
				if err != nil || supplied.Sign() == 0 {
					continue
				}
				debt, _ := app.gw.GetUserDebt(ctx, user, common.HexToAddress(token.Address))
				line := fmt.Sprintf("  %s supplied %s", token.Symbol, amount.ToDecimalString(supplied, token.Decimals))
				if debt != nil && debt.Sign() > 0 {
					line += fmt.Sprintf(", borrowed %s", amount.ToDecimalString(debt, token.Decimals))
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
