package amm

import "errors"

var (
	// ErrInsufficientOutputAmount means the desired output amount is zero or negative.
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	// ErrInsufficientInputAmount means no input amount can satisfy the trade,
	// including the case where the desired output meets or exceeds the reserve.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	// ErrInsufficientLiquidity means one or both pair reserves are empty.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)
