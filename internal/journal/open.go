package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"OpenMCP-ABI/internal/config"
	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/storage/mysql"
	"OpenMCP-ABI/internal/storage/redis"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.JournalConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryStore(0), nil
	case "none":
		return NopStore{}, nil
	case "mysql":
		repo, err := mysql.NewTransactionRepository(ctx, mysql.Config{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.MySQL.ConnMaxLifetimeSeconds) * time.Second,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化 MySQL 交易流水失败")
		}
		return NewMySQLStore(repo), nil
	case "redis":
		list, err := redis.NewCappedList(ctx, redis.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			MaxLen:   cfg.Redis.MaxLen,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化 Redis 交易流水失败")
		}
		return NewRedisStore(list), nil
	case "rabbitmq":
		publisher, err := NewRabbitMQPublisher(RabbitMQConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "初始化 RabbitMQ 交易流水失败")
		}
		return publisher, nil
	default:
		return nil, xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("未知的流水存储驱动: %s", cfg.Driver))
	}
}
