// Package amm implements constant-product pricing for two-asset pairs
// with the standard 0.3% input-side fee (997/1000 effective rate).
package amm

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
	one    = big.NewInt(1)
)

// RequiredInput returns the exact input amount needed to withdraw
// desiredOutput from a pair holding reserveIn/reserveOut:
//
//	floor(reserveIn * desiredOutput * 1000 / ((reserveOut - desiredOutput) * 997)) + 1
//
// The +1 rounds in the pair's favour so the post-trade product never
// decreases after fee extraction. Fails when the desired output is not
// positive, when either reserve is empty, or when the desired output
// meets or exceeds the output reserve (the denominator would go
// non-positive; the guard replaces what unchecked uint arithmetic would
// silently wrap).
func RequiredInput(desiredOutput, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if desiredOutput == nil || desiredOutput.Sign() <= 0 {
		return nil, ErrInsufficientOutputAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if desiredOutput.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientInputAmount
	}

	numerator := new(big.Int).Mul(reserveIn, desiredOutput)
	numerator.Mul(numerator, feeDen)
	denominator := new(big.Int).Sub(reserveOut, desiredOutput)
	denominator.Mul(denominator, feeMul)

	amountIn := numerator.Div(numerator, denominator)
	amountIn.Add(amountIn, one)
	return amountIn, nil
}

// ExpectedOutput returns the maximum output amount for a given exact
// input under the same fee schedule. Used for display only; settlement
// always prices through RequiredInput.
func ExpectedOutput(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDen)
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

// SortTokens returns the pair's canonical token ordering: the
// lower-addressed token occupies slot 0, matching how the pair itself
// assigns reserve0/reserve1.
func SortTokens(tokenA, tokenB common.Address) (token0, token1 common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}
