package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pairSettle/internal/model"
)

// Store provides Postgres persistence for settlement receipts.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutSwapReceipt inserts one swap receipt.
func (s *Store) PutSwapReceipt(receipt model.SwapReceipt) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO swap_receipts (
			chain_id, caller, token, amount_spent, amount_out, recorded_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
	`,
		int64(receipt.ChainID),
		receipt.Caller,
		receipt.Token,
		receipt.AmountSpent,
		receipt.AmountOut,
		receipt.RecordedAt,
	)
	return err
}

// PutLiquidityReceipt inserts one liquidity receipt.
func (s *Store) PutLiquidityReceipt(receipt model.LiquidityReceipt) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO liquidity_receipts (
			chain_id, caller, token, token_deposited, base_deposited, liquidity_units, recorded_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`,
		int64(receipt.ChainID),
		receipt.Caller,
		receipt.Token,
		receipt.TokenDeposited,
		receipt.BaseDeposited,
		receipt.LiquidityUnits,
		receipt.RecordedAt,
	)
	return err
}
