package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairSettle/internal/settle"
)

func runSwap(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, cmd, true, false)
	if err != nil {
		return err
	}
	defer e.close()

	req, err := swapRequest(cmd, e)
	if err != nil {
		return err
	}

	e.logger.Info("swap start",
		zap.String("token", req.OutputToken.Hex()),
		zap.String("amount_out", req.DesiredOutput.String()),
		zap.String("funds", req.Funds.String()),
	)

	result, err := e.settler.SwapExactOut(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("spent: %s refunded: %s\n", result.BaseSpent, result.Refund)
	return nil
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, cmd, true, true)
	if err != nil {
		return err
	}
	defer e.close()

	swapReq, err := swapRequest(cmd, e)
	if err != nil {
		return err
	}
	deposit, err := flagAmount(cmd, "deposit", true)
	if err != nil {
		return err
	}
	minToken, err := flagAmount(cmd, "min-token", true)
	if err != nil {
		return err
	}
	minBase, err := flagAmount(cmd, "min-base", true)
	if err != nil {
		return err
	}

	req := settle.DepositRequest{
		SwapRequest:      swapReq,
		SecondaryDeposit: deposit,
		MinTokenDeposit:  minToken,
		MinBaseDeposit:   minBase,
	}

	e.logger.Info("swap and deposit start",
		zap.String("token", req.OutputToken.Hex()),
		zap.String("amount_out", req.DesiredOutput.String()),
		zap.String("deposit", deposit.String()),
		zap.String("funds", req.Funds.String()),
	)

	result, err := e.settler.SwapAndDeposit(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("spent: %s token deposited: %s base deposited: %s liquidity: %s refunded: %s\n",
		result.BaseSpent, result.TokenDeposited, result.BaseDeposited, result.LiquidityUnits, result.Refund)
	return nil
}

func runRecover(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, cmd, true, false)
	if err != nil {
		return err
	}
	defer e.close()

	token, err := flagAddress(cmd, "token")
	if err != nil {
		return err
	}
	to, err := flagAddress(cmd, "to")
	if err != nil {
		return err
	}

	recovered, err := e.settler.RecoverToken(ctx, token, to)
	if err != nil {
		return err
	}
	fmt.Printf("recovered: %s\n", recovered)
	return nil
}

func swapRequest(cmd *cobra.Command, e *env) (settle.SwapRequest, error) {
	token, err := flagAddress(cmd, "token")
	if err != nil {
		return settle.SwapRequest{}, err
	}
	amount, err := flagAmount(cmd, "amount", true)
	if err != nil {
		return settle.SwapRequest{}, err
	}
	funds, err := flagAmount(cmd, "funds", true)
	if err != nil {
		return settle.SwapRequest{}, err
	}

	caller := e.client.From()
	if value, _ := cmd.Flags().GetString("recipient"); value != "" {
		if !common.IsHexAddress(value) {
			return settle.SwapRequest{}, fmt.Errorf("recipient: %q is not a valid address", value)
		}
		caller = common.HexToAddress(value)
	}

	window, _ := cmd.Flags().GetDuration("deadline")
	return settle.SwapRequest{
		Caller:        caller,
		OutputToken:   token,
		DesiredOutput: amount,
		Funds:         funds,
		Deadline:      time.Now().Add(window).Unix(),
	}, nil
}
