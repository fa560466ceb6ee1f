// Package journal records every contract write the server submits, whatever
// its outcome, so operators can audit what the wallet signed.
package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the final state of a recorded write.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusReverted Status = "reverted"
	StatusFailed   Status = "failed"
)

// Entry is one contract write.
type Entry struct {
	ID          string          `json:"id"`
	CallID      string          `json:"call_id,omitempty"`
	Contract    string          `json:"contract"`
	Address     string          `json:"address"`
	Chain       string          `json:"chain,omitempty"`
	Function    string          `json:"function"`
	Args        json.RawMessage `json:"args,omitempty"`
	Status      Status          `json:"status"`
	TxHash      string          `json:"tx_hash,omitempty"`
	BlockNumber uint64          `json:"block_number,omitempty"`
	GasUsed     uint64          `json:"gas_used,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// Recorder accepts journal entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Store is a Recorder that can also list what it recorded, newest first.
type Store interface {
	Recorder
	Latest(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

func prepare(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	return entry
}

// NopStore discards entries.
type NopStore struct{}

func (NopStore) Record(context.Context, Entry) error { return nil }

func (NopStore) Latest(context.Context, int) ([]Entry, error) { return []Entry{}, nil }

func (NopStore) Close() error { return nil }
