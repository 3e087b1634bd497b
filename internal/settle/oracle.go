package settle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pairSettle/internal/amm"
)

// ReserveOracle resolves a pair through the registry and reads its
// reserves ordered for a requested trade direction. Read-only.
type ReserveOracle struct {
	registry Registry
}

func NewReserveOracle(registry Registry) *ReserveOracle {
	return &ReserveOracle{registry: registry}
}

// ReservesFor returns the pair for tokenIn/tokenOut together with its
// reserves ordered as (reserveIn, reserveOut). Reserve slot 0 belongs
// to the lower-addressed token, so the canonical ordering decides which
// slot backs the input side. The pair's own slot-0 token is read and
// checked against that ordering; a registry that hands back a pair for
// different assets must not price a trade.
func (o *ReserveOracle) ReservesFor(ctx context.Context, tokenIn, tokenOut common.Address) (Pair, *big.Int, *big.Int, error) {
	pair, ok, err := o.registry.LookupPair(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("lookup pair: %w", err)
	}
	if !ok || pair == nil {
		return nil, nil, nil, ErrPairNotFound
	}

	token0, err := pair.Token0(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read token0: %w", err)
	}
	if want0, _ := amm.SortTokens(tokenIn, tokenOut); token0 != want0 {
		return nil, nil, nil, fmt.Errorf("pair %s slot 0 holds %s, want %s", pair.Address().Hex(), token0.Hex(), want0.Hex())
	}

	reserve0, reserve1, err := pair.Reserves(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read reserves: %w", err)
	}

	if tokenIn == token0 {
		return pair, reserve0, reserve1, nil
	}
	return pair, reserve1, reserve0, nil
}

// PairExists reports whether the registry has a pair for the two tokens.
func (o *ReserveOracle) PairExists(ctx context.Context, tokenA, tokenB common.Address) (bool, error) {
	pair, ok, err := o.registry.LookupPair(ctx, tokenA, tokenB)
	if err != nil {
		return false, fmt.Errorf("lookup pair: %w", err)
	}
	return ok && pair != nil, nil
}
