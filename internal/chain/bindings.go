// Chain-backed implementations of the settle collaborator interfaces.
// Reads go through eth_call; state changes are signed transactions. A
// reverted transaction on a bool-returning token method surfaces as the
// method's own failure flag, matching how the settlement layer treats
// transfer-like failures.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pairSettle/internal/settle"
)

// FactoryRegistry resolves pairs through the factory's getPair view.
type FactoryRegistry struct {
	client *Client
	addr   common.Address
}

func NewFactoryRegistry(client *Client, addr common.Address) (*FactoryRegistry, error) {
	if err := loadABIs(); err != nil {
		return nil, fmt.Errorf("parse abis: %w", err)
	}
	return &FactoryRegistry{client: client, addr: addr}, nil
}

func (r *FactoryRegistry) LookupPair(ctx context.Context, tokenA, tokenB common.Address) (settle.Pair, bool, error) {
	data, err := factoryABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return nil, false, fmt.Errorf("pack getPair: %w", err)
	}
	resp, err := r.client.Call(ctx, r.addr, data)
	if err != nil {
		return nil, false, err
	}
	values, err := factoryABI.Unpack("getPair", resp)
	if err != nil {
		return nil, false, fmt.Errorf("unpack getPair: %w", err)
	}
	pairAddr, err := asAddress(values[0])
	if err != nil {
		return nil, false, fmt.Errorf("getPair: %w", err)
	}
	if pairAddr == (common.Address{}) {
		return nil, false, nil
	}
	return &PairBinding{client: r.client, addr: pairAddr}, true, nil
}

// PairBinding is the pair contract surface.
type PairBinding struct {
	client *Client
	addr   common.Address
}

func (p *PairBinding) Address() common.Address { return p.addr }

func (p *PairBinding) Reserves(ctx context.Context) (*big.Int, *big.Int, error) {
	data, err := pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("pack getReserves: %w", err)
	}
	resp, err := p.client.Call(ctx, p.addr, data)
	if err != nil {
		return nil, nil, err
	}
	values, err := pairABI.Unpack("getReserves", resp)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack getReserves: %w", err)
	}
	reserve0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return reserve0, reserve1, nil
}

func (p *PairBinding) Token0(ctx context.Context) (common.Address, error) {
	data, err := pairABI.Pack("token0")
	if err != nil {
		return common.Address{}, fmt.Errorf("pack token0: %w", err)
	}
	resp, err := p.client.Call(ctx, p.addr, data)
	if err != nil {
		return common.Address{}, err
	}
	values, err := pairABI.Unpack("token0", resp)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack token0: %w", err)
	}
	return asAddress(values[0])
}

func (p *PairBinding) Swap(ctx context.Context, amount0Out, amount1Out *big.Int, to common.Address, payload []byte) error {
	if payload == nil {
		payload = []byte{}
	}
	data, err := pairABI.Pack("swap", amount0Out, amount1Out, to, payload)
	if err != nil {
		return fmt.Errorf("pack swap: %w", err)
	}
	if _, err := p.client.Transact(ctx, p.addr, nil, data); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	return nil
}

// TokenBinding is the generic fungible-token surface.
type TokenBinding struct {
	client *Client
	addr   common.Address
}

func (t *TokenBinding) Transfer(ctx context.Context, to common.Address, amount *big.Int) (bool, error) {
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return false, fmt.Errorf("pack transfer: %w", err)
	}
	return t.transactBool(ctx, data)
}

func (t *TokenBinding) Approve(ctx context.Context, spender common.Address, amount *big.Int) (bool, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return false, fmt.Errorf("pack approve: %w", err)
	}
	return t.transactBool(ctx, data)
}

func (t *TokenBinding) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	resp, err := t.client.Call(ctx, t.addr, data)
	if err != nil {
		return nil, err
	}
	values, err := erc20ABI.Unpack("balanceOf", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	return asBigInt(values[0])
}

func (t *TokenBinding) transactBool(ctx context.Context, data []byte) (bool, error) {
	_, err := t.client.Transact(ctx, t.addr, nil, data)
	if err != nil {
		if errors.Is(err, ErrTxReverted) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WrappedBinding adds native wrap/unwrap on top of the token surface.
type WrappedBinding struct {
	TokenBinding
}

func NewWrappedBinding(client *Client, addr common.Address) (*WrappedBinding, error) {
	if err := loadABIs(); err != nil {
		return nil, fmt.Errorf("parse abis: %w", err)
	}
	return &WrappedBinding{TokenBinding: TokenBinding{client: client, addr: addr}}, nil
}

func (w *WrappedBinding) Address() common.Address { return w.addr }

func (w *WrappedBinding) Wrap(ctx context.Context, amount *big.Int) error {
	data, err := wethABI.Pack("deposit")
	if err != nil {
		return fmt.Errorf("pack deposit: %w", err)
	}
	if _, err := w.client.Transact(ctx, w.addr, amount, data); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

func (w *WrappedBinding) Unwrap(ctx context.Context, amount *big.Int) error {
	data, err := wethABI.Pack("withdraw", amount)
	if err != nil {
		return fmt.Errorf("pack withdraw: %w", err)
	}
	if _, err := w.client.Transact(ctx, w.addr, nil, data); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	return nil
}

// RouterBinding calls the liquidity router's payable add-liquidity
// entrypoint. The deposited amounts are read by simulating the exact
// call first, then the transaction is submitted; both run against the
// same request so a divergence between them reverts on chain and aborts
// the operation.
type RouterBinding struct {
	client *Client
	addr   common.Address
}

func NewRouterBinding(client *Client, addr common.Address) (*RouterBinding, error) {
	if err := loadABIs(); err != nil {
		return nil, fmt.Errorf("parse abis: %w", err)
	}
	return &RouterBinding{client: client, addr: addr}, nil
}

func (r *RouterBinding) Address() common.Address { return r.addr }

func (r *RouterBinding) AddLiquidity(ctx context.Context, token common.Address, tokenAmount, baseAmount, minToken, minBase *big.Int, recipient common.Address, deadline int64) (*big.Int, *big.Int, *big.Int, error) {
	data, err := routerABI.Pack("addLiquidityETH",
		token, tokenAmount, minToken, minBase, recipient, big.NewInt(deadline))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pack addLiquidityETH: %w", err)
	}

	resp, err := r.client.CallWithValue(ctx, r.addr, baseAmount, data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("simulate addLiquidityETH: %w", err)
	}
	values, err := routerABI.Unpack("addLiquidityETH", resp)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unpack addLiquidityETH: %w", err)
	}
	tokenUsed, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("amountToken: %w", err)
	}
	baseUsed, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("amountETH: %w", err)
	}
	liquidity, err := asBigInt(values[2])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("liquidity: %w", err)
	}

	if _, err := r.client.Transact(ctx, r.addr, baseAmount, data); err != nil {
		return nil, nil, nil, fmt.Errorf("addLiquidityETH: %w", err)
	}
	return tokenUsed, baseUsed, liquidity, nil
}

// NativeTreasury refunds native funds by plain value transfer from the
// signing account.
type NativeTreasury struct {
	client *Client
}

func NewNativeTreasury(client *Client) *NativeTreasury {
	return &NativeTreasury{client: client}
}

func (t *NativeTreasury) Refund(ctx context.Context, to common.Address, amount *big.Int) error {
	// A refund to the settlement account itself is a no-op: the funds
	// never left it.
	if to == t.client.From() {
		return nil
	}
	if _, err := t.client.Transact(ctx, to, amount, nil); err != nil {
		return fmt.Errorf("refund %s: %w", to.Hex(), err)
	}
	return nil
}

// Tokens resolves token bindings by address.
type Tokens struct {
	client *Client
}

func NewTokens(client *Client) (*Tokens, error) {
	if err := loadABIs(); err != nil {
		return nil, fmt.Errorf("parse abis: %w", err)
	}
	return &Tokens{client: client}, nil
}

func (t *Tokens) TokenAt(address common.Address) settle.Token {
	return &TokenBinding{client: t.client, addr: address}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
