package settle

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairSettle/internal/amm"
	"pairSettle/internal/model"
	"pairSettle/internal/storage"
)

// SwapRequest describes one exact-output swap. Validated once at entry
// and treated as immutable for the rest of the operation.
type SwapRequest struct {
	Caller        common.Address
	OutputToken   common.Address
	DesiredOutput *big.Int
	// Funds is the native amount the caller attached; anything beyond
	// what the operation consumes is refunded before it returns.
	Funds    *big.Int
	Deadline int64
}

// DepositRequest extends a SwapRequest with the follow-up liquidity
// deposit parameters.
type DepositRequest struct {
	SwapRequest
	SecondaryDeposit *big.Int
	MinTokenDeposit  *big.Int
	MinBaseDeposit   *big.Int
}

// SettlementResult is the authoritative receipt of one operation.
type SettlementResult struct {
	BaseSpent      *big.Int
	TokenDeposited *big.Int
	BaseDeposited  *big.Int
	LiquidityUnits *big.Int
	Refund         *big.Int
}

// Deps carries the collaborators a Settler needs. Logger, Now and Sink
// are optional.
type Deps struct {
	Registry Registry
	Wrapped  Wrapped
	Router   DepositRouter
	Tokens   TokenResolver
	Treasury Treasury
	// Self is the settlement account that escrows funds mid-operation.
	Self    common.Address
	ChainID uint64
	Sink    storage.ReceiptSink
	Logger  *zap.Logger
	Now     func() time.Time
}

// Settler sequences swap and deposit settlement against the injected
// collaborators. The escrowed funds of one operation are fully
// disbursed (to the pair, the router, or back to the caller) before the
// operation returns; no balance survives across operations.
type Settler struct {
	oracle   *ReserveOracle
	executor *SwapExecutor
	quotes   *QuoteService
	wrapped  Wrapped
	router   DepositRouter
	tokens   TokenResolver
	treasury Treasury
	self     common.Address
	chainID  uint64
	sink     storage.ReceiptSink
	logger   *zap.Logger
	now      func() time.Time

	// busy is the reentrancy flag: every funds-moving operation holds it
	// for its full duration and releases it on every exit path.
	busy atomic.Bool
}

func New(deps Deps) *Settler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	oracle := NewReserveOracle(deps.Registry)
	return &Settler{
		oracle:   oracle,
		executor: NewSwapExecutor(oracle, deps.Wrapped, logger),
		quotes:   NewQuoteService(oracle, deps.Wrapped.Address()),
		wrapped:  deps.Wrapped,
		router:   deps.Router,
		tokens:   deps.Tokens,
		treasury: deps.Treasury,
		self:     deps.Self,
		chainID:  deps.ChainID,
		sink:     deps.Sink,
		logger:   logger,
		now:      now,
	}
}

func (s *Settler) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrReentrancy
	}
	return nil
}

func (s *Settler) release() {
	s.busy.Store(false)
}

func (s *Settler) validate(req SwapRequest) error {
	if req.Deadline < s.now().Unix() {
		return ErrDeadlineExpired
	}
	if req.DesiredOutput == nil || req.DesiredOutput.Sign() <= 0 {
		return amm.ErrInsufficientOutputAmount
	}
	if req.OutputToken == (common.Address{}) || req.OutputToken == s.wrapped.Address() {
		return ErrInvalidToken
	}
	return nil
}

// SwapExactOut performs an exact-output swap delivered straight to the
// caller and refunds any attached funds beyond the priced input.
func (s *Settler) SwapExactOut(ctx context.Context, req SwapRequest) (SettlementResult, error) {
	if err := s.acquire(); err != nil {
		return SettlementResult{}, err
	}
	defer s.release()

	if err := s.validate(req); err != nil {
		return SettlementResult{}, err
	}

	pair, amountIn, err := s.executor.Price(ctx, req.OutputToken, req.DesiredOutput)
	if err != nil {
		return SettlementResult{}, err
	}

	funds := req.Funds
	if funds == nil {
		funds = new(big.Int)
	}
	if funds.Cmp(amountIn) < 0 {
		return SettlementResult{}, fmt.Errorf("attached %s, need %s: %w", funds, amountIn, amm.ErrInsufficientInputAmount)
	}

	if err := s.executor.Execute(ctx, pair, req.OutputToken, req.DesiredOutput, amountIn, req.Caller); err != nil {
		return SettlementResult{}, err
	}

	refund := new(big.Int).Sub(funds, amountIn)
	if refund.Sign() > 0 {
		if err := s.treasury.Refund(ctx, req.Caller, refund); err != nil {
			return SettlementResult{}, fmt.Errorf("refund: %w", err)
		}
	}

	s.recordSwap(req, amountIn)
	s.logger.Info("swap settled",
		zap.String("caller", req.Caller.Hex()),
		zap.String("token", req.OutputToken.Hex()),
		zap.String("amount_spent", amountIn.String()),
		zap.String("amount_out", req.DesiredOutput.String()),
		zap.String("refund", refund.String()),
	)

	return SettlementResult{
		BaseSpent:      amountIn,
		TokenDeposited: new(big.Int),
		BaseDeposited:  new(big.Int),
		LiquidityUnits: new(big.Int),
		Refund:         refund,
	}, nil
}

// SwapAndDeposit performs the two-phase flow: swap with the settlement
// account as recipient, authorize the router for exactly the acquired
// amount, deposit token plus secondary base funds, then reconcile
// leftovers back to the caller.
func (s *Settler) SwapAndDeposit(ctx context.Context, req DepositRequest) (SettlementResult, error) {
	if err := s.acquire(); err != nil {
		return SettlementResult{}, err
	}
	defer s.release()

	if err := s.validate(req.SwapRequest); err != nil {
		return SettlementResult{}, err
	}
	if req.SecondaryDeposit == nil || req.SecondaryDeposit.Sign() <= 0 {
		return SettlementResult{}, fmt.Errorf("secondary deposit: %w", amm.ErrInsufficientInputAmount)
	}

	pair, amountIn, err := s.executor.Price(ctx, req.OutputToken, req.DesiredOutput)
	if err != nil {
		return SettlementResult{}, err
	}

	funds := req.Funds
	if funds == nil {
		funds = new(big.Int)
	}
	total := new(big.Int).Add(amountIn, req.SecondaryDeposit)
	if funds.Cmp(total) < 0 {
		return SettlementResult{}, fmt.Errorf("attached %s, need %s: %w", funds, total, amm.ErrInsufficientInputAmount)
	}

	// The router pulls tokens from an authorized balance, so the swap
	// must land on the settlement account first.
	if err := s.executor.Execute(ctx, pair, req.OutputToken, req.DesiredOutput, amountIn, s.self); err != nil {
		return SettlementResult{}, err
	}

	token := s.tokens.TokenAt(req.OutputToken)

	// Exact-amount allowance: grant precisely what was acquired so no
	// authorization dangles beyond this deposit.
	ok, err := token.Approve(ctx, s.router.Address(), req.DesiredOutput)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("approve router: %w", err)
	}
	if !ok {
		return SettlementResult{}, fmt.Errorf("approve router: %w", ErrTransferFailed)
	}

	tokenUsed, baseUsed, liquidity, err := s.router.AddLiquidity(ctx,
		req.OutputToken, req.DesiredOutput, req.SecondaryDeposit,
		req.MinTokenDeposit, req.MinBaseDeposit, req.Caller, req.Deadline)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("add liquidity: %w", err)
	}

	leftover := new(big.Int).Sub(req.DesiredOutput, tokenUsed)
	if leftover.Sign() > 0 {
		ok, err := token.Transfer(ctx, req.Caller, leftover)
		if err != nil {
			return SettlementResult{}, fmt.Errorf("return leftover tokens: %w", err)
		}
		if !ok {
			return SettlementResult{}, fmt.Errorf("return leftover tokens: %w", ErrTransferFailed)
		}
	}

	refund := new(big.Int).Sub(funds, amountIn)
	refund.Sub(refund, baseUsed)
	if refund.Sign() > 0 {
		if err := s.treasury.Refund(ctx, req.Caller, refund); err != nil {
			return SettlementResult{}, fmt.Errorf("refund: %w", err)
		}
	}

	s.recordSwap(req.SwapRequest, amountIn)
	s.recordLiquidity(req, tokenUsed, baseUsed, liquidity)
	s.logger.Info("swap and deposit settled",
		zap.String("caller", req.Caller.Hex()),
		zap.String("token", req.OutputToken.Hex()),
		zap.String("amount_spent", amountIn.String()),
		zap.String("token_deposited", tokenUsed.String()),
		zap.String("base_deposited", baseUsed.String()),
		zap.String("liquidity_units", liquidity.String()),
		zap.String("refund", refund.String()),
	)

	return SettlementResult{
		BaseSpent:      amountIn,
		TokenDeposited: tokenUsed,
		BaseDeposited:  baseUsed,
		LiquidityUnits: liquidity,
		Refund:         refund,
	}, nil
}

// QuoteRequiredInput prices an exact-output swap without moving funds.
func (s *Settler) QuoteRequiredInput(ctx context.Context, token common.Address, desiredOutput *big.Int) (*big.Int, error) {
	return s.quotes.RequiredInput(ctx, token, desiredOutput)
}

// QuoteExpectedOutput prices the exact-input direction without moving funds.
func (s *Settler) QuoteExpectedOutput(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	return s.quotes.ExpectedOutput(ctx, token, amountIn)
}

// QuoteTotalFundsNeeded prices a swap-and-deposit without moving funds.
func (s *Settler) QuoteTotalFundsNeeded(ctx context.Context, token common.Address, desiredOutput, secondaryDeposit *big.Int) (*big.Int, error) {
	return s.quotes.TotalFundsNeeded(ctx, token, desiredOutput, secondaryDeposit)
}

// PairExists reports whether a wrapped-native pair exists for token.
func (s *Settler) PairExists(ctx context.Context, token common.Address) (bool, error) {
	return s.oracle.PairExists(ctx, s.wrapped.Address(), token)
}

// RecoverToken sweeps the settlement account's full balance of a stray
// token to the given address. The wrapped-native asset is not
// recoverable through this path.
func (s *Settler) RecoverToken(ctx context.Context, token, to common.Address) (*big.Int, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	if token == (common.Address{}) || token == s.wrapped.Address() {
		return nil, ErrInvalidToken
	}

	balance, err := s.tokens.TokenAt(token).BalanceOf(ctx, s.self)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if balance.Sign() == 0 {
		return new(big.Int), nil
	}

	ok, err := s.tokens.TokenAt(token).Transfer(ctx, to, balance)
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("recover: %w", ErrTransferFailed)
	}

	s.logger.Info("token recovered",
		zap.String("token", token.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", balance.String()),
	)
	return balance, nil
}

func (s *Settler) recordSwap(req SwapRequest, amountIn *big.Int) {
	if s.sink == nil {
		return
	}
	receipt := model.SwapReceipt{
		ChainID:     s.chainID,
		Caller:      req.Caller.Hex(),
		Token:       req.OutputToken.Hex(),
		AmountSpent: amountIn.String(),
		AmountOut:   req.DesiredOutput.String(),
		RecordedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.sink.PutSwapReceipt(receipt); err != nil {
		s.logger.Warn("swap receipt not persisted", zap.Error(err))
	}
}

func (s *Settler) recordLiquidity(req DepositRequest, tokenUsed, baseUsed, liquidity *big.Int) {
	if s.sink == nil {
		return
	}
	receipt := model.LiquidityReceipt{
		ChainID:        s.chainID,
		Caller:         req.Caller.Hex(),
		Token:          req.OutputToken.Hex(),
		TokenDeposited: tokenUsed.String(),
		BaseDeposited:  baseUsed.String(),
		LiquidityUnits: liquidity.String(),
		RecordedAt:     s.now().UTC().Format(time.RFC3339),
	}
	if err := s.sink.PutLiquidityReceipt(receipt); err != nil {
		s.logger.Warn("liquidity receipt not persisted", zap.Error(err))
	}
}
