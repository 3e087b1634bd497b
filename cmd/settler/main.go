package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "settler",
		Short:        "Direct pair settlement helper",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote the native funds needed for an exact-output swap",
		RunE:  runQuote,
	}
	addCommonFlags(quoteCmd)
	quoteCmd.Flags().String("token", "", "output token address")
	quoteCmd.Flags().String("amount", "", "desired output amount (wei)")
	quoteCmd.Flags().String("deposit", "", "optional secondary deposit amount (wei)")
	root.AddCommand(quoteCmd)

	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "Check whether a wrapped-native pair exists for a token",
		RunE:  runPair,
	}
	addCommonFlags(pairCmd)
	pairCmd.Flags().String("token", "", "token address")
	root.AddCommand(pairCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap native funds for an exact token output",
		RunE:  runSwap,
	}
	addCommonFlags(swapCmd)
	swapCmd.Flags().String("token", "", "output token address")
	swapCmd.Flags().String("amount", "", "desired output amount (wei)")
	swapCmd.Flags().String("funds", "", "attached native funds (wei)")
	swapCmd.Flags().String("recipient", "", "output recipient (defaults to the signing account)")
	swapCmd.Flags().Duration("deadline", 10*time.Minute, "deadline from now")
	root.AddCommand(swapCmd)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Swap for an exact token output and deposit liquidity",
		RunE:  runAdd,
	}
	addCommonFlags(addCmd)
	addCmd.Flags().String("token", "", "output token address")
	addCmd.Flags().String("amount", "", "desired output amount (wei)")
	addCmd.Flags().String("deposit", "", "secondary base deposit amount (wei)")
	addCmd.Flags().String("min-token", "0", "minimum acceptable token deposit (wei)")
	addCmd.Flags().String("min-base", "0", "minimum acceptable base deposit (wei)")
	addCmd.Flags().String("funds", "", "attached native funds (wei)")
	addCmd.Flags().String("recipient", "", "liquidity recipient (defaults to the signing account)")
	addCmd.Flags().Duration("deadline", 10*time.Minute, "deadline from now")
	root.AddCommand(addCmd)

	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover a stray token balance held by the settlement account",
		RunE:  runRecover,
	}
	addCommonFlags(recoverCmd)
	recoverCmd.Flags().String("token", "", "token address")
	recoverCmd.Flags().String("to", "", "recovery destination address")
	root.AddCommand(recoverCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain RPC URL")
	cmd.Flags().String("private-key", "", "hex private key of the settlement account")
	cmd.Flags().String("factory", "", "pair factory address")
	cmd.Flags().String("router", "", "liquidity router address")
	cmd.Flags().String("wrapped", "", "wrapped-native token address")
	cmd.Flags().String("out", "./data/receipts.jsonl", "receipt JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for receipts (overrides JSONL)")
	cmd.Flags().Int("max-retries", 5, "maximum read retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial read retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
