package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Config 描述 Redis 连接参数。
type Config struct {
	Address  string
	Password string
	DB       int
	Key      string
	MaxLen   int64
}

// CappedList 使用 LPUSH + LTRIM 维护一个定长列表，最新的元素位于表头。
type CappedList struct {
	client goredis.UniversalClient
	key    string
	maxLen int64
}

// NewCappedList 连接 Redis 并返回列表实例。
func NewCappedList(ctx context.Context, cfg Config) (*CappedList, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return NewCappedListWithClient(client, cfg.Key, cfg.MaxLen), nil
}

// NewCappedListWithClient 复用已有的客户端。
func NewCappedListWithClient(client goredis.UniversalClient, key string, maxLen int64) *CappedList {
	if key == "" {
		key = "openmcp:transactions"
	}
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &CappedList{client: client, key: key, maxLen: maxLen}
}

// Push 写入一条记录并裁剪超出上限的旧记录。
func (l *CappedList) Push(ctx context.Context, payload []byte) error {
	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, l.key, payload)
	pipe.LTrim(ctx, l.key, 0, l.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("Redis 写入失败: %w", err)
	}
	return nil
}

// Latest 返回最新的 limit 条记录。
func (l *CappedList) Latest(ctx context.Context, limit int64) ([][]byte, error) {
	if limit <= 0 || limit > l.maxLen {
		limit = l.maxLen
	}
	values, err := l.client.LRange(ctx, l.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("Redis 读取失败: %w", err)
	}
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out, nil
}

// Close 关闭 Redis 连接。
func (l *CappedList) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
