package settle

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pairSettle/internal/amm"
)

// QuoteService estimates settlement costs without moving funds. Quotes
// are ephemeral: reserves change between blocks, so every call reprices
// from current state.
type QuoteService struct {
	oracle  *ReserveOracle
	wrapped common.Address
}

func NewQuoteService(oracle *ReserveOracle, wrapped common.Address) *QuoteService {
	return &QuoteService{oracle: oracle, wrapped: wrapped}
}

// RequiredInput returns the exact wrapped-native input needed to obtain
// desiredOutput of token, applying the same validation as the swap path.
func (q *QuoteService) RequiredInput(ctx context.Context, token common.Address, desiredOutput *big.Int) (*big.Int, error) {
	if desiredOutput == nil || desiredOutput.Sign() <= 0 {
		return nil, amm.ErrInsufficientOutputAmount
	}
	if token == (common.Address{}) || token == q.wrapped {
		return nil, ErrInvalidToken
	}

	_, reserveIn, reserveOut, err := q.oracle.ReservesFor(ctx, q.wrapped, token)
	if err != nil {
		return nil, err
	}
	return amm.RequiredInput(desiredOutput, reserveIn, reserveOut)
}

// ExpectedOutput returns the token amount an exact input of the
// wrapped-native asset would buy at current reserves. Display only;
// settlement always prices through RequiredInput.
func (q *QuoteService) ExpectedOutput(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	if token == (common.Address{}) || token == q.wrapped {
		return nil, ErrInvalidToken
	}

	_, reserveIn, reserveOut, err := q.oracle.ReservesFor(ctx, q.wrapped, token)
	if err != nil {
		return nil, err
	}
	return amm.ExpectedOutput(amountIn, reserveIn, reserveOut)
}

// TotalFundsNeeded returns the total native funds required for a
// swap-and-deposit: the priced swap input plus the secondary deposit.
func (q *QuoteService) TotalFundsNeeded(ctx context.Context, token common.Address, desiredOutput, secondaryDeposit *big.Int) (*big.Int, error) {
	amountIn, err := q.RequiredInput(ctx, token, desiredOutput)
	if err != nil {
		return nil, err
	}
	if secondaryDeposit == nil {
		return amountIn, nil
	}
	return new(big.Int).Add(amountIn, secondaryDeposit), nil
}
