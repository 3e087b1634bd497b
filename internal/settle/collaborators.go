// Package settle performs direct pair settlement: exact-output swaps
// against a constant-product pair and optional follow-up liquidity
// deposits, with refund reconciliation. All external contracts are
// reached through the collaborator interfaces below; chain-backed
// implementations live in internal/chain.
package settle

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Registry resolves the pair contract for an unordered token pair.
// The second return is false when no pair exists.
type Registry interface {
	LookupPair(ctx context.Context, tokenA, tokenB common.Address) (Pair, bool, error)
}

// Pair is the constant-product pair contract surface used here.
type Pair interface {
	Address() common.Address
	// Reserves returns the pair's reserves in slot order: reserve0
	// belongs to the lower-addressed token.
	Reserves(ctx context.Context) (reserve0, reserve1 *big.Int, err error)
	// Token0 returns the token the pair assigned to slot 0.
	Token0(ctx context.Context) (common.Address, error)
	// Swap invokes the pair's low-level exchange primitive, sending the
	// nonzero output amount to the recipient. An empty data payload
	// means no flash callback.
	Swap(ctx context.Context, amount0Out, amount1Out *big.Int, to common.Address, data []byte) error
}

// Token is the fungible-token surface used for reconciliation.
// Transfer and Approve report the token's own success flag in addition
// to transport errors.
type Token interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (ok bool, err error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (ok bool, err error)
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)
}

// Wrapped is the tokenized form of the native asset. Wrap converts
// native funds held by the settlement account into the token form the
// pair accepts; Unwrap is the reverse.
type Wrapped interface {
	Token
	Address() common.Address
	Wrap(ctx context.Context, amount *big.Int) error
	Unwrap(ctx context.Context, amount *big.Int) error
}

// DepositRouter is the external liquidity router. AddLiquidity may use
// less than the supplied amounts on either side; it returns what was
// actually deposited and the liquidity units minted to the recipient.
type DepositRouter interface {
	Address() common.Address
	AddLiquidity(ctx context.Context, token common.Address, tokenAmount, baseAmount, minToken, minBase *big.Int, recipient common.Address, deadline int64) (tokenUsed, baseUsed, liquidity *big.Int, err error)
}

// Treasury returns unused native funds to the caller.
type Treasury interface {
	Refund(ctx context.Context, to common.Address, amount *big.Int) error
}

// TokenResolver binds a Token view for an arbitrary token address.
type TokenResolver interface {
	TokenAt(address common.Address) Token
}
