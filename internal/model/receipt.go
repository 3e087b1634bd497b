package model

// SwapReceipt is the durable record of a completed exact-output swap.
type SwapReceipt struct {
	ChainID     uint64 `json:"chain_id"`
	Caller      string `json:"caller"`
	Token       string `json:"token"`
	AmountSpent string `json:"amount_spent"`
	AmountOut   string `json:"amount_out"`
	RecordedAt  string `json:"recorded_at"`
}

// LiquidityReceipt is the durable record of a completed liquidity deposit.
type LiquidityReceipt struct {
	ChainID        uint64 `json:"chain_id"`
	Caller         string `json:"caller"`
	Token          string `json:"token"`
	TokenDeposited string `json:"token_deposited"`
	BaseDeposited  string `json:"base_deposited"`
	LiquidityUnits string `json:"liquidity_units"`
	RecordedAt     string `json:"recorded_at"`
}
