package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, cmd, false, false)
	if err != nil {
		return err
	}
	defer e.close()

	token, err := flagAddress(cmd, "token")
	if err != nil {
		return err
	}
	amount, err := flagAmount(cmd, "amount", true)
	if err != nil {
		return err
	}
	deposit, err := flagAmount(cmd, "deposit", false)
	if err != nil {
		return err
	}

	required, err := e.settler.QuoteRequiredInput(ctx, token, amount)
	if err != nil {
		return err
	}

	e.logger.Info("quote",
		zap.String("token", token.Hex()),
		zap.String("amount_out", amount.String()),
		zap.String("required_input", required.String()),
	)
	fmt.Printf("required input: %s\n", required)

	// Feed the quote back through the exact-input direction so the
	// caller sees what that input buys at current reserves.
	roundTrip, err := e.settler.QuoteExpectedOutput(ctx, token, required)
	if err != nil {
		return err
	}
	fmt.Printf("round-trip output: %s\n", roundTrip)

	if deposit != nil {
		total, err := e.settler.QuoteTotalFundsNeeded(ctx, token, amount, deposit)
		if err != nil {
			return err
		}
		fmt.Printf("total with deposit: %s\n", total)
	}
	return nil
}

func runPair(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, cmd, false, false)
	if err != nil {
		return err
	}
	defer e.close()

	token, err := flagAddress(cmd, "token")
	if err != nil {
		return err
	}

	exists, err := e.settler.PairExists(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("pair exists: %v\n", exists)
	return nil
}
