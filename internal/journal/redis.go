package journal

import (
	"context"
	"encoding/json"

	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/storage/redis"
)

// RedisStore keeps entries as JSON in a capped Redis list.
type RedisStore struct {
	list *redis.CappedList
}

// NewRedisStore wraps a connected list.
func NewRedisStore(list *redis.CappedList) *RedisStore {
	return &RedisStore{list: list}
}

func (s *RedisStore) Record(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(prepare(entry))
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化交易流水失败")
	}
	if err := s.list.Push(ctx, payload); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入交易流水失败")
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, limit int) ([]Entry, error) {
	payloads, err := s.list.Latest(ctx, int64(limit))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询交易流水失败")
	}
	return decodeEntries(payloads), nil
}

func (s *RedisStore) Close() error {
	return s.list.Close()
}

// decodeEntries skips payloads that are not valid entries.
func decodeEntries(payloads [][]byte) []Entry {
	entries := make([]Entry, 0, len(payloads))
	for _, payload := range payloads {
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
