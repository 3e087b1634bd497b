package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrTxReverted marks a mined transaction whose receipt reports failure.
var ErrTxReverted = errors.New("transaction reverted")

// Client wraps go-ethereum RPC with view-call and transaction helpers
// for one signing account. Read calls are retried with backoff;
// transactions never are.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	maxRetries   int
	retryBackoff time.Duration

	mu        sync.Mutex
	nonce     uint64
	nonceInit bool
}

// ClientConfig holds connection and signing settings. PrivateKey may be
// empty for read-only use; Transact then fails.
type ClientConfig struct {
	RPCURL       string
	PrivateKey   string
	MaxRetries   int
	RetryBackoff time.Duration
}

// NewClient dials the RPC endpoint and resolves the chain ID.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	c := &Client{
		rpcClient:    rpcClient,
		ethClient:    ethClient,
		chainID:      chainID,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(cfg.PrivateKey)
		if err != nil {
			rpcClient.Close()
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the connected chain's ID.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// From returns the signing account, or the zero address in read-only mode.
func (c *Client) From() common.Address {
	return c.from
}

// Call performs a read-only contract call with retry.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.call(ctx, to, nil, data)
}

// CallWithValue simulates a payable call from the signing account,
// returning the call's return data without submitting a transaction.
func (c *Client) CallWithValue(ctx context.Context, to common.Address, value *big.Int, data []byte) ([]byte, error) {
	return c.call(ctx, to, value, data)
}

func (c *Client) call(ctx context.Context, to common.Address, value *big.Int, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{From: c.from, To: &to, Value: value, Data: data}
	var resp []byte
	err := withRetry(ctx, c.maxRetries, c.retryBackoff, func(ctx context.Context) error {
		var err error
		resp, err = c.ethClient.CallContract(ctx, msg, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return resp, nil
}

// Transact signs, submits and waits for one transaction. Returns
// ErrTxReverted when the receipt reports failure. Never retried.
func (c *Client) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	if c.key == nil {
		return nil, fmt.Errorf("no signing key configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.nonceInit {
		nonce, err := c.ethClient.PendingNonceAt(ctx, c.from)
		if err != nil {
			return nil, fmt.Errorf("get nonce: %w", err)
		}
		c.nonce = nonce
		c.nonceInit = true
	}

	gasPrice, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	msg := ethereum.CallMsg{From: c.from, To: &to, Value: value, Data: data, GasPrice: gasPrice}
	gasLimit, err := c.ethClient.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    c.nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.ethClient.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}
	c.nonce++

	receipt, err := bind.WaitMined(ctx, c.ethClient, signed)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("tx %s: %w", signed.Hash().Hex(), ErrTxReverted)
	}
	return receipt, nil
}
