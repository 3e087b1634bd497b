package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairSettle/internal/chain"
	"pairSettle/internal/config"
	"pairSettle/internal/settle"
	"pairSettle/internal/storage"
	"pairSettle/internal/storage/postgres"
)

// env bundles the wired collaborators one command run needs.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	settler *settle.Settler
	store   *postgres.Store
}

// newEnv loads config, connects the chain client and wires a Settler.
// needKey requires a signing key (funds-moving commands); needRouter
// requires the liquidity router address.
func newEnv(ctx context.Context, cmd *cobra.Command, needKey, needRouter bool) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.Factory == "" {
		return nil, fmt.Errorf("factory address is required")
	}
	if cfg.Wrapped == "" {
		return nil, fmt.Errorf("wrapped token address is required")
	}
	if needKey && cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key is required")
	}
	if needRouter && cfg.Router == "" {
		return nil, fmt.Errorf("router address is required")
	}

	client, err := chain.NewClient(ctx, chain.ClientConfig{
		RPCURL:       cfg.RPCURL,
		PrivateKey:   cfg.PrivateKey,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	registry, err := chain.NewFactoryRegistry(client, common.HexToAddress(cfg.Factory))
	if err != nil {
		client.Close()
		return nil, err
	}
	wrapped, err := chain.NewWrappedBinding(client, common.HexToAddress(cfg.Wrapped))
	if err != nil {
		client.Close()
		return nil, err
	}
	tokens, err := chain.NewTokens(client)
	if err != nil {
		client.Close()
		return nil, err
	}

	var router settle.DepositRouter
	if cfg.Router != "" {
		r, err := chain.NewRouterBinding(client, common.HexToAddress(cfg.Router))
		if err != nil {
			client.Close()
			return nil, err
		}
		router = r
	}

	e := &env{cfg: cfg, logger: logger, client: client}

	var sink storage.ReceiptSink
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		e.store = store
		sink = store
	} else if cfg.Out != "" {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	e.settler = settle.New(settle.Deps{
		Registry: registry,
		Wrapped:  wrapped,
		Router:   router,
		Tokens:   tokens,
		Treasury: chain.NewNativeTreasury(client),
		Self:     client.From(),
		ChainID:  client.ChainID().Uint64(),
		Sink:     sink,
		Logger:   logger,
	})
	return e, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.client != nil {
		e.client.Close()
	}
	if e.logger != nil {
		e.logger.Sync()
	}
}

func flagAddress(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: %q is not a valid address", name, value)
	}
	return common.HexToAddress(value), nil
}

func flagAmount(cmd *cobra.Command, name string, required bool) (*big.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		if required {
			return nil, fmt.Errorf("%s is required", name)
		}
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%s: %q is not a valid amount", name, value)
	}
	return amount, nil
}
