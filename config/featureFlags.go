package config

import (
	"os"
	"strings"
)

const (
	ReceiptReuseLatest = "latest"
	ReceiptReuseNew    = "new"
)

// StockInReceiptReusePolicy controls what happens when a stock-in arrives
// without a receipt id.
//
// Set via env:
// - STOCKIN_RECEIPT_REUSE="latest"  reuse the most recent receipt (default)
// - STOCKIN_RECEIPT_REUSE="new"     always mint a new receipt
func StockInReceiptReusePolicy() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STOCKIN_RECEIPT_REUSE")))
	if v == ReceiptReuseNew {
		return ReceiptReuseNew
	}
	return ReceiptReuseLatest
}
