package settle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairSettle/internal/amm"
)

// SwapExecutor prices and performs a single exact-output swap against a
// pair, paying with the wrapped-native asset.
type SwapExecutor struct {
	oracle  *ReserveOracle
	wrapped Wrapped
	logger  *zap.Logger
}

func NewSwapExecutor(oracle *ReserveOracle, wrapped Wrapped, logger *zap.Logger) *SwapExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapExecutor{oracle: oracle, wrapped: wrapped, logger: logger}
}

// Price resolves the pair for the wrapped-native/outputToken pair and
// returns it with the exact input amount the swap will cost.
func (e *SwapExecutor) Price(ctx context.Context, outputToken common.Address, desiredOutput *big.Int) (Pair, *big.Int, error) {
	pair, reserveIn, reserveOut, err := e.oracle.ReservesFor(ctx, e.wrapped.Address(), outputToken)
	if err != nil {
		return nil, nil, err
	}
	amountIn, err := amm.RequiredInput(desiredOutput, reserveIn, reserveOut)
	if err != nil {
		return nil, nil, err
	}
	return pair, amountIn, nil
}

// Execute wraps exactly amountIn of native funds, moves the wrapped
// amount into the pair and claims desiredOutput of the output token for
// the recipient. The nonzero output slot is chosen by comparing the
// input token against the pair's slot-0 token. No retries: any failure
// aborts the surrounding operation.
func (e *SwapExecutor) Execute(ctx context.Context, pair Pair, outputToken common.Address, desiredOutput, amountIn *big.Int, recipient common.Address) error {
	if err := e.wrapped.Wrap(ctx, amountIn); err != nil {
		return fmt.Errorf("wrap native funds: %w", err)
	}

	ok, err := e.wrapped.Transfer(ctx, pair.Address(), amountIn)
	if err != nil {
		return fmt.Errorf("fund pair: %w", err)
	}
	if !ok {
		return fmt.Errorf("fund pair: %w", ErrTransferFailed)
	}

	amount0Out := new(big.Int)
	amount1Out := new(big.Int)
	token0, _ := amm.SortTokens(e.wrapped.Address(), outputToken)
	if e.wrapped.Address() == token0 {
		amount1Out.Set(desiredOutput)
	} else {
		amount0Out.Set(desiredOutput)
	}

	if err := pair.Swap(ctx, amount0Out, amount1Out, recipient, nil); err != nil {
		return fmt.Errorf("pair swap: %w", err)
	}

	e.logger.Debug("swap executed",
		zap.String("pair", pair.Address().Hex()),
		zap.String("token", outputToken.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", desiredOutput.String()),
		zap.String("recipient", recipient.Hex()),
	)
	return nil
}
