package settle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"pairSettle/internal/amm"
)

var (
	addrSelf    = common.HexToAddress("0x00000000000000000000000000000000000005e1")
	addrCaller  = common.HexToAddress("0x00000000000000000000000000000000000000ca")
	addrWrapped = common.HexToAddress("0x0000000000000000000000000000000000000010")
	addrToken   = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	addrPair    = common.HexToAddress("0x0000000000000000000000000000000000001111")
	addrRouter  = common.HexToAddress("0x0000000000000000000000000000000000002222")
)

var fixedNow = time.Unix(1_700_000_000, 0)

// fakeToken is an in-memory token ledger. Transfer and Approve act on
// behalf of the configured actor, mirroring a binding that signs for
// the settlement account.
type fakeToken struct {
	actor        common.Address
	balances     map[common.Address]*big.Int
	allowance    map[common.Address]*big.Int
	transferFail bool
	approveFail  bool
}

func newFakeToken(actor common.Address) *fakeToken {
	return &fakeToken{
		actor:     actor,
		balances:  make(map[common.Address]*big.Int),
		allowance: make(map[common.Address]*big.Int),
	}
}

func (t *fakeToken) credit(to common.Address, amount *big.Int) {
	cur, ok := t.balances[to]
	if !ok {
		cur = new(big.Int)
		t.balances[to] = cur
	}
	cur.Add(cur, amount)
}

func (t *fakeToken) move(from, to common.Address, amount *big.Int) error {
	cur := t.balances[from]
	if cur == nil || cur.Cmp(amount) < 0 {
		return fmt.Errorf("balance of %s too low", from.Hex())
	}
	cur.Sub(cur, amount)
	t.credit(to, amount)
	return nil
}

func (t *fakeToken) balance(holder common.Address) *big.Int {
	if b, ok := t.balances[holder]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *fakeToken) allowanceOf(spender common.Address) *big.Int {
	if a, ok := t.allowance[spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (t *fakeToken) Transfer(_ context.Context, to common.Address, amount *big.Int) (bool, error) {
	if t.transferFail {
		return false, nil
	}
	if err := t.move(t.actor, to, amount); err != nil {
		return false, err
	}
	return true, nil
}

func (t *fakeToken) Approve(_ context.Context, spender common.Address, amount *big.Int) (bool, error) {
	if t.approveFail {
		return false, nil
	}
	t.allowance[spender] = new(big.Int).Set(amount)
	return true, nil
}

func (t *fakeToken) BalanceOf(_ context.Context, holder common.Address) (*big.Int, error) {
	return t.balance(holder), nil
}

type fakeWrapped struct {
	*fakeToken
	addr common.Address
}

func (w *fakeWrapped) Address() common.Address { return w.addr }

func (w *fakeWrapped) Wrap(_ context.Context, amount *big.Int) error {
	w.credit(w.actor, amount)
	return nil
}

func (w *fakeWrapped) Unwrap(_ context.Context, amount *big.Int) error {
	cur := w.balances[w.actor]
	if cur == nil || cur.Cmp(amount) < 0 {
		return fmt.Errorf("wrapped balance too low")
	}
	cur.Sub(cur, amount)
	return nil
}

// fakePair holds reserves backed by token ledgers. Swap pays out the
// requested amounts and then syncs reserves to the pair's balances,
// like the real pair's update step.
type fakePair struct {
	addr      common.Address
	order     [2]common.Address
	ledgers   map[common.Address]*fakeToken
	reserve0  *big.Int
	reserve1  *big.Int
	swapErr   error
	token0Err error
}

func (p *fakePair) Address() common.Address { return p.addr }

func (p *fakePair) Reserves(_ context.Context) (*big.Int, *big.Int, error) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), nil
}

func (p *fakePair) Token0(_ context.Context) (common.Address, error) {
	if p.token0Err != nil {
		return common.Address{}, p.token0Err
	}
	return p.order[0], nil
}

func (p *fakePair) Swap(_ context.Context, amount0Out, amount1Out *big.Int, to common.Address, _ []byte) error {
	if p.swapErr != nil {
		return p.swapErr
	}
	if amount0Out.Sign() > 0 {
		if err := p.ledgers[p.order[0]].move(p.addr, to, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out.Sign() > 0 {
		if err := p.ledgers[p.order[1]].move(p.addr, to, amount1Out); err != nil {
			return err
		}
	}
	p.reserve0 = p.ledgers[p.order[0]].balance(p.addr)
	p.reserve1 = p.ledgers[p.order[1]].balance(p.addr)
	return nil
}

type fakeRegistry struct {
	pairs map[[2]common.Address]*fakePair
	err   error
}

func pairKey(a, b common.Address) [2]common.Address {
	t0, t1 := amm.SortTokens(a, b)
	return [2]common.Address{t0, t1}
}

func (r *fakeRegistry) LookupPair(_ context.Context, tokenA, tokenB common.Address) (Pair, bool, error) {
	if r.err != nil {
		return nil, false, r.err
	}
	pair, ok := r.pairs[pairKey(tokenA, tokenB)]
	if !ok {
		return nil, false, nil
	}
	return pair, true, nil
}

type fakeTreasury struct {
	refunds map[common.Address]*big.Int
	err     error
}

func newFakeTreasury() *fakeTreasury {
	return &fakeTreasury{refunds: make(map[common.Address]*big.Int)}
}

func (t *fakeTreasury) Refund(_ context.Context, to common.Address, amount *big.Int) error {
	if t.err != nil {
		return t.err
	}
	cur, ok := t.refunds[to]
	if !ok {
		cur = new(big.Int)
		t.refunds[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

func (t *fakeTreasury) refunded(to common.Address) *big.Int {
	if r, ok := t.refunds[to]; ok {
		return new(big.Int).Set(r)
	}
	return new(big.Int)
}

// fakeRouter pulls the authorized token amount from the settlement
// account and mints a fixed number of liquidity units to the recipient.
// useToken/useBase override how much of each side is consumed.
type fakeRouter struct {
	addr      common.Address
	ledger    *fakeToken
	self      common.Address
	liquidity map[common.Address]*big.Int
	mint      *big.Int
	useToken  *big.Int
	useBase   *big.Int
	err       error
	reenter   func() error

	lastMinToken *big.Int
	lastMinBase  *big.Int
	lastDeadline int64
}

func (r *fakeRouter) Address() common.Address { return r.addr }

func (r *fakeRouter) AddLiquidity(_ context.Context, _ common.Address, tokenAmount, baseAmount, minToken, minBase *big.Int, recipient common.Address, deadline int64) (*big.Int, *big.Int, *big.Int, error) {
	if r.reenter != nil {
		if err := r.reenter(); err != nil {
			return nil, nil, nil, err
		}
	}
	if r.err != nil {
		return nil, nil, nil, r.err
	}

	r.lastMinToken = minToken
	r.lastMinBase = minBase
	r.lastDeadline = deadline

	tokenUsed := new(big.Int).Set(tokenAmount)
	if r.useToken != nil {
		tokenUsed.Set(r.useToken)
	}
	baseUsed := new(big.Int).Set(baseAmount)
	if r.useBase != nil {
		baseUsed.Set(r.useBase)
	}

	if minToken != nil && tokenUsed.Cmp(minToken) < 0 {
		return nil, nil, nil, fmt.Errorf("token slippage floor not met")
	}
	if minBase != nil && baseUsed.Cmp(minBase) < 0 {
		return nil, nil, nil, fmt.Errorf("base slippage floor not met")
	}

	allowance := r.ledger.allowance[r.addr]
	if allowance == nil || allowance.Cmp(tokenUsed) < 0 {
		return nil, nil, nil, fmt.Errorf("allowance too low")
	}
	allowance.Sub(allowance, tokenUsed)
	if err := r.ledger.move(r.self, r.addr, tokenUsed); err != nil {
		return nil, nil, nil, err
	}

	cur, ok := r.liquidity[recipient]
	if !ok {
		cur = new(big.Int)
		r.liquidity[recipient] = cur
	}
	cur.Add(cur, r.mint)

	return tokenUsed, baseUsed, new(big.Int).Set(r.mint), nil
}

func (r *fakeRouter) minted(to common.Address) *big.Int {
	if m, ok := r.liquidity[to]; ok {
		return new(big.Int).Set(m)
	}
	return new(big.Int)
}

type fakeResolver map[common.Address]*fakeToken

func (r fakeResolver) TokenAt(address common.Address) Token {
	if t, ok := r[address]; ok {
		return t
	}
	return newFakeToken(addrSelf)
}

type world struct {
	registry *fakeRegistry
	wrapped  *fakeWrapped
	token    *fakeToken
	pair     *fakePair
	router   *fakeRouter
	treasury *fakeTreasury
	settler  *Settler
	tokAddr  common.Address
}

// newWorldAt builds a settlement world around one pair of the wrapped
// asset and tokenAddr, with the given starting reserves on each side.
func newWorldAt(tokenAddr common.Address, reserveBase, reserveToken int64) *world {
	wrappedLedger := newFakeToken(addrSelf)
	tokenLedger := newFakeToken(addrSelf)
	wrapped := &fakeWrapped{fakeToken: wrappedLedger, addr: addrWrapped}

	token0, token1 := amm.SortTokens(addrWrapped, tokenAddr)
	pair := &fakePair{
		addr:    addrPair,
		order:   [2]common.Address{token0, token1},
		ledgers: map[common.Address]*fakeToken{addrWrapped: wrappedLedger, tokenAddr: tokenLedger},
	}
	wrappedLedger.credit(addrPair, big.NewInt(reserveBase))
	tokenLedger.credit(addrPair, big.NewInt(reserveToken))
	if token0 == addrWrapped {
		pair.reserve0 = big.NewInt(reserveBase)
		pair.reserve1 = big.NewInt(reserveToken)
	} else {
		pair.reserve0 = big.NewInt(reserveToken)
		pair.reserve1 = big.NewInt(reserveBase)
	}

	registry := &fakeRegistry{pairs: map[[2]common.Address]*fakePair{
		pairKey(addrWrapped, tokenAddr): pair,
	}}
	router := &fakeRouter{
		addr:      addrRouter,
		ledger:    tokenLedger,
		self:      addrSelf,
		liquidity: make(map[common.Address]*big.Int),
		mint:      big.NewInt(777),
	}
	treasury := newFakeTreasury()
	resolver := fakeResolver{tokenAddr: tokenLedger}

	w := &world{
		registry: registry,
		wrapped:  wrapped,
		token:    tokenLedger,
		pair:     pair,
		router:   router,
		treasury: treasury,
		tokAddr:  tokenAddr,
	}
	w.settler = New(Deps{
		Registry: registry,
		Wrapped:  wrapped,
		Router:   router,
		Tokens:   resolver,
		Treasury: treasury,
		Self:     addrSelf,
		ChainID:  56,
		Now:      func() time.Time { return fixedNow },
	})
	return w
}

func newWorld(reserveBase, reserveToken int64) *world {
	return newWorldAt(addrToken, reserveBase, reserveToken)
}

func (w *world) swapRequest(out, funds int64) SwapRequest {
	return SwapRequest{
		Caller:        addrCaller,
		OutputToken:   w.tokAddr,
		DesiredOutput: big.NewInt(out),
		Funds:         big.NewInt(funds),
		Deadline:      fixedNow.Unix() + 600,
	}
}

func (w *world) depositRequest(out, funds, secondary int64) DepositRequest {
	return DepositRequest{
		SwapRequest:      w.swapRequest(out, funds),
		SecondaryDeposit: big.NewInt(secondary),
		MinTokenDeposit:  big.NewInt(0),
		MinBaseDeposit:   big.NewInt(0),
	}
}
