package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pairSettle/internal/model"
)

// JsonlStorage appends settlement receipts to a JSONL file, one line per
// receipt, tagged with the receipt kind.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

type jsonlLine struct {
	Kind    string      `json:"kind"`
	Receipt interface{} `json:"receipt"`
}

// PutSwapReceipt appends a swap receipt line.
func (s *JsonlStorage) PutSwapReceipt(receipt model.SwapReceipt) error {
	return s.append(jsonlLine{Kind: "swap", Receipt: receipt})
}

// PutLiquidityReceipt appends a liquidity receipt line.
func (s *JsonlStorage) PutLiquidityReceipt(receipt model.LiquidityReceipt) error {
	return s.append(jsonlLine{Kind: "liquidity", Receipt: receipt})
}

func (s *JsonlStorage) append(line jsonlLine) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoded, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if _, err := writer.Write(encoded); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
