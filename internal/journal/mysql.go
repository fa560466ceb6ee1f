package journal

import (
	"context"
	"encoding/json"

	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/storage/mysql"
)

// MySQLStore persists entries in the contract_transactions table.
type MySQLStore struct {
	repo *mysql.TransactionRepository
}

// NewMySQLStore wraps an opened repository.
func NewMySQLStore(repo *mysql.TransactionRepository) *MySQLStore {
	return &MySQLStore{repo: repo}
}

func (s *MySQLStore) Record(ctx context.Context, entry Entry) error {
	if err := s.repo.Save(ctx, toRecord(prepare(entry))); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入交易流水失败")
	}
	return nil
}

func (s *MySQLStore) Latest(ctx context.Context, limit int) ([]Entry, error) {
	records, err := s.repo.ListLatest(ctx, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询交易流水失败")
	}
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, fromRecord(record))
	}
	return entries, nil
}

func (s *MySQLStore) Close() error {
	return s.repo.Close()
}

func toRecord(entry Entry) mysql.TransactionRecord {
	return mysql.TransactionRecord{
		ID:          entry.ID,
		CallID:      entry.CallID,
		Contract:    entry.Contract,
		Address:     entry.Address,
		Chain:       entry.Chain,
		Function:    entry.Function,
		Args:        string(entry.Args),
		Status:      string(entry.Status),
		TxHash:      entry.TxHash,
		BlockNumber: entry.BlockNumber,
		GasUsed:     entry.GasUsed,
		Error:       entry.Error,
		CreatedAt:   entry.CreatedAt,
	}
}

func fromRecord(record mysql.TransactionRecord) Entry {
	entry := Entry{
		ID:          record.ID,
		CallID:      record.CallID,
		Contract:    record.Contract,
		Address:     record.Address,
		Chain:       record.Chain,
		Function:    record.Function,
		Status:      Status(record.Status),
		TxHash:      record.TxHash,
		BlockNumber: record.BlockNumber,
		GasUsed:     record.GasUsed,
		Error:       record.Error,
		CreatedAt:   record.CreatedAt,
	}
	if record.Args != "" && json.Valid([]byte(record.Args)) {
		entry.Args = json.RawMessage(record.Args)
	}
	return entry
}
