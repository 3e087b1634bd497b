package storage

import "pairSettle/internal/model"

// ReceiptSink is a sink for settlement receipts.
type ReceiptSink interface {
	PutSwapReceipt(receipt model.SwapReceipt) error
	PutLiquidityReceipt(receipt model.LiquidityReceipt) error
}
