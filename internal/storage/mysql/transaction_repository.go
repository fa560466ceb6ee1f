package mysql

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateTransaction 表示同一流水 ID 被重复写入。
var ErrDuplicateTransaction = stdErrors.New("交易流水已存在")

// TransactionRecord 表示一次合约写调用的落库结构。
type TransactionRecord struct {
	ID          string
	CallID      string
	Contract    string
	Address     string
	Chain       string
	Function    string
	Args        string
	Status      string
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Error       string
	CreatedAt   int64
}

// TransactionRepository 使用 MySQL 存储合约交易流水。
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository 创建连接池并执行内置迁移。
func NewTransactionRepository(ctx context.Context, cfg Config) (*TransactionRepository, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo := &TransactionRepository{db: db}
	if err := repo.migrate(ctx, nil); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

const insertTransactionSQL = `INSERT INTO contract_transactions
        (id, call_id, contract, address, chain, function_name, args, status, tx_hash, block_number, gas_used, error, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectTransactionColumns = `SELECT id, call_id, contract, address, chain, function_name, args, status, tx_hash, block_number, gas_used, error, created_at
        FROM contract_transactions`

// Save 写入一条交易流水。
func (r *TransactionRepository) Save(ctx context.Context, record TransactionRecord) error {
	_, err := r.db.ExecContext(ctx, insertTransactionSQL,
		record.ID,
		record.CallID,
		record.Contract,
		record.Address,
		record.Chain,
		record.Function,
		record.Args,
		record.Status,
		record.TxHash,
		record.BlockNumber,
		record.GasUsed,
		record.Error,
		record.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("写入交易流水失败: %w", err)
	}
	return nil
}

// ListLatest 查询最近的若干条交易流水，按写入时间倒序排列。
func (r *TransactionRepository) ListLatest(ctx context.Context, limit int) ([]TransactionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectTransactionColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询交易流水失败: %w", err)
	}
	return scanRecords(rows)
}

// FindByHash 按交易哈希查询流水，未找到时返回 sql.ErrNoRows。
func (r *TransactionRepository) FindByHash(ctx context.Context, hash string) (*TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactionColumns+` WHERE tx_hash = ? LIMIT 1`, hash)
	if err != nil {
		return nil, fmt.Errorf("查询交易流水失败: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sql.ErrNoRows
	}
	return &records[0], nil
}

func scanRecords(rows *sql.Rows) ([]TransactionRecord, error) {
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var (
			record TransactionRecord
			args   sql.NullString
			errMsg sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.CallID, &record.Contract, &record.Address, &record.Chain,
			&record.Function, &args, &record.Status, &record.TxHash, &record.BlockNumber, &record.GasUsed,
			&errMsg, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("解析交易流水失败: %w", err)
		}
		record.Args = args.String
		record.Error = errMsg.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历交易流水失败: %w", err)
	}
	return records, nil
}

// Close 关闭底层数据库连接。
func (r *TransactionRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
