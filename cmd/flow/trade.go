package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowonarc/internal/amount"
	"flowonarc/internal/model"
	"flowonarc/internal/orchestrator"
	"flowonarc/internal/pricing"
	"flowonarc/internal/storage"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <amount> <token-in> <token-out>",
		Short: "Quote a swap and its price impact",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer app.Close()

			tokenIn, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			tokenOut, err := tokenArg(args[2])
			if err != nil {
				return err
			}
			amountIn, err := amount.ToBaseUnits(args[0], tokenIn.Decimals)
			if err != nil {
				return err
			}

			out, err := app.engine.QuoteSwap(ctx, amountIn, tokenIn, tokenOut)
			if err != nil {
				return err
			}
			impact, err := app.engine.PriceImpact(ctx, amountIn, tokenIn, tokenOut)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s -> %s %s\n",
				amount.ToDecimalString(amountIn, tokenIn.Decimals), tokenIn.Symbol,
				amount.ToDecimalString(out, tokenOut.Decimals), tokenOut.Symbol)
			fmt.Printf("hops: %d\n", impact.Hops)
			label := ""
			if impact.Estimated {
				label = " (estimated)"
			}
			fmt.Printf("price impact: %.2f%%%s\n", impact.ImpactPercent, label)
			fmt.Printf("swap size: %.2f%% of pool, depth %.0f\n", impact.SwapSizePercent, impact.LiquidityDepth)
			return nil
		},
	}
}

func newSwapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap <amount> <token-in> <token-out>",
		Short: "Swap tokens through the AMM",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			app, err := newApp(ctx, cmd, true)
			if err != nil {
				return err
			}
			defer app.Close()

			tokenIn, err := tokenArg(args[1])
			if err != nil {
				return err
			}
			tokenOut, err := tokenArg(args[2])
			if err != nil {
				return err
			}
			amountIn, err := amount.ToBaseUnits(args[0], tokenIn.Decimals)
			if err != nil {
				return err
			}

			if err := app.checkSpendable(ctx, tokenIn, amountIn); err != nil {
				return err
			}

			quoted, err := app.engine.QuoteSwap(ctx, amountIn, tokenIn, tokenOut)
			if err != nil {
				return err
			}

			return app.runFlow(ctx, model.OpSwap, orchestrator.Params{
				TokenIn:         tokenIn,
				TokenOut:        tokenOut,
				AmountIn:        amountIn,
				QuotedOut:       quoted,
				SlippagePercent: app.cfg.SlippagePercent,
			})
		},
	}
}

// balanceReader is the gateway surface the pre-submission gates read.
type balanceReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	GetReserveData(ctx context.Context, token common.Address) (model.ReserveData, error)
}

// checkBalance rejects amounts the wallet cannot cover.
func checkBalance(ctx context.Context, gw balanceReader, owner common.Address, token model.Token, v *big.Int) error {
	balance, err := gw.BalanceOf(ctx, common.HexToAddress(token.Address), owner)
	if err != nil {
		return fmt.Errorf("balance %s: %w", token.Symbol, err)
	}
	return pricing.ValidateBalance(v, balance)
}

// checkSpendable adds the $5 dust floor on top of the balance check.
// The floor applies to swaps and supplies only; repaying residual debt
// or topping up a pool below it stays allowed.
func checkSpendable(ctx context.Context, gw balanceReader, owner common.Address, token model.Token, v *big.Int, logger *zap.Logger) error {
	if err := checkBalance(ctx, gw, owner, token, v); err != nil {
		return err
	}

	reserve, err := gw.GetReserveData(ctx, common.HexToAddress(token.Address))
	if err != nil {
		// Unpriced assets skip the dust gate.
		logger.Debug("no reserve price, skipping minimum value check")
		return nil
	}
	return pricing.CheckMinimumValue(v, token, reserve.PriceUSD)
}

func (a *app) checkBalance(ctx context.Context, token model.Token, v *big.Int) error {
	return checkBalance(ctx, a.gw, a.gw.Signer().Address(), token, v)
}

func (a *app) checkSpendable(ctx context.Context, token model.Token, v *big.Int) error {
	return checkSpendable(ctx, a.gw, a.gw.Signer().Address(), token, v, a.logger)
}

// runFlow executes an operation and streams its progress to stdout.
// Flow events are journaled when a journal path is configured.
func (a *app) runFlow(ctx context.Context, op model.OperationType, p orchestrator.Params) error {
	bus := orchestrator.NewBus()
	if a.cfg.Journal != "" {
		journal := storage.NewJournal(a.cfg.Journal)
		go storage.NewRecorder(bus).Run(ctx, journal, a.logger)
	}

	orch := orchestrator.New(
		orchestrator.NewGatewaySubmitter(a.gw),
		bus,
		a.logger,
		orchestrator.WithSettleDelay(a.cfg.SettleDelay),
		orchestrator.WithOnSettled(a.engine.InvalidateSpot),
	)

	flow, err := orch.Run(ctx, op, p)
	if err != nil {
		return err
	}

	for ev := range flow.Events {
		switch ev.Kind {
		case model.EventStepStarted:
			fmt.Printf("[%s] submitting...\n", ev.Step)
		case model.EventHashKnown:
			fmt.Printf("[%s] tx %s\n", ev.Step, ev.TxHash)
		case model.EventStepCompleted:
			fmt.Printf("[%s] confirmed\n", ev.Step)
		case model.EventFlowSucceeded:
			if ev.FromAmount != "" && ev.ToAmount != "" {
				fmt.Printf("done: %s -> %s\n", ev.FromAmount, ev.ToAmount)
			} else if ev.FromAmount != "" {
				fmt.Printf("done: %s\n", ev.FromAmount)
			} else {
				fmt.Println("done")
			}
		case model.EventFlowFailed:
			fmt.Printf("failed at %s: %s\n", ev.Step, ev.Error)
		}
	}
	return flow.Wait(ctx)
}

func tokenArg(symbol string) (model.Token, error) {
	token, ok := model.TokenBySymbol(symbol)
	if !ok {
		return model.Token{}, fmt.Errorf("unknown token %q", symbol)
	}
	return token, nil
}
