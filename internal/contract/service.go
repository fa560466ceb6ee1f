package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"OpenMCP-ABI/internal/contractabi"
	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/journal"
	"OpenMCP-ABI/internal/normalize"
	"OpenMCP-ABI/internal/observability/metrics"
	"OpenMCP-ABI/internal/retry"
	"OpenMCP-ABI/internal/web3"
	"OpenMCP-ABI/pkg/logger"
)

// Options carries the collaborators of a Service. Only Name is required.
type Options struct {
	// Name is the contract name used in logs and journal entries.
	Name  string
	Chain string
	Retry retry.Options

	Journal journal.Recorder
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Audit   *slog.Logger
}

// WriteResult is a confirmed transaction.
type WriteResult struct {
	Hash    common.Hash
	Receipt *types.Receipt
}

// Service calls the functions of the contract at a fixed address. The writer
// is optional; without it the service is read-only.
type Service struct {
	reader  web3.ContractReader
	writer  web3.ContractWriter
	address common.Address
	iface   *contractabi.Interface
	opts    Options
}

// NewService validates the collaborators and returns a ready service.
func NewService(reader web3.ContractReader, writer web3.ContractWriter, address common.Address, iface *contractabi.Interface, opts Options) (*Service, error) {
	if reader == nil {
		return nil, xerrors.New(xerrors.CodeConfiguration, "contract service requires a read client")
	}
	if iface == nil {
		return nil, xerrors.New(xerrors.CodeConfiguration, "contract service requires an ABI")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("contract")
	}
	if opts.Audit == nil {
		opts.Audit = logger.Audit()
	}
	if opts.Journal == nil {
		opts.Journal = journal.NopStore{}
	}
	opts.Logger = opts.Logger.With(slog.String("contract", opts.Name), slog.String("address", address.Hex()))
	return &Service{reader: reader, writer: writer, address: address, iface: iface, opts: opts}, nil
}

// Address returns the contract address.
func (s *Service) Address() common.Address { return s.address }

// CanWrite reports whether a signing wallet is configured.
func (s *Service) CanWrite() bool { return s.writer != nil }

// CallReadFunction runs an eth_call of the named function and returns its
// normalized outputs: nil for none, the value for one, a list otherwise.
func (s *Service) CallReadFunction(ctx context.Context, name string, args []contractabi.Value) (any, error) {
	method, _, data, err := s.pack(name, args)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Debug("calling read function", slog.String("function", name), slog.String("call_id", CallIDFrom(ctx)))

	msg := gethcore.CallMsg{To: &s.address, Data: data}
	return retry.Do(ctx, func(ctx context.Context) (any, error) {
		raw, err := s.reader.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeCallFailure, err, fmt.Sprintf("call %s failed", name))
		}
		values, err := method.Outputs.Unpack(raw)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeCallFailure, err, fmt.Sprintf("decode %s result", name))
		}
		return normalize.Format(collapse(values)), nil
	}, s.retryOptions("Read "+name))
}

// CallWriteFunction submits a transaction calling the named function and
// waits for its receipt. A reverted transaction is returned, not an error;
// callers inspect Receipt.Status.
func (s *Service) CallWriteFunction(ctx context.Context, name string, args []contractabi.Value) (*WriteResult, error) {
	if s.writer == nil {
		return nil, xerrors.New(xerrors.CodeWalletUnavailable,
			"wallet client not initialized: configure a private key to call write functions",
			xerrors.WithMetadata("function", name))
	}
	_, packed, data, err := s.pack(name, args)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Debug("calling write function", slog.String("function", name), slog.String("call_id", CallIDFrom(ctx)))

	started := time.Now()
	result, err := retry.Do(ctx, func(ctx context.Context) (*WriteResult, error) {
		tx, err := s.writer.Transact(ctx, s.address, data)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeTransactionFailure, err, fmt.Sprintf("submit %s failed", name))
		}
		if tx == nil {
			return nil, xerrors.New(xerrors.CodeTransactionFailure, "transaction hash is undefined")
		}
		receipt, err := s.writer.WaitMined(ctx, tx)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeTransactionFailure, err, fmt.Sprintf("wait for receipt of %s", tx.Hash().Hex()))
		}
		return &WriteResult{Hash: tx.Hash(), Receipt: receipt}, nil
	}, s.retryOptions("Write "+name))

	s.record(ctx, name, packed, result, err, time.Since(started))
	return result, err
}

func (s *Service) pack(name string, args []contractabi.Value) (abi.Method, []any, []byte, error) {
	method, ok := s.iface.Contract.Methods[name]
	if !ok {
		return abi.Method{}, nil, nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("function %s not found in ABI", name))
	}
	coerced, err := contractabi.CoerceArgs(method.Inputs, args)
	if err != nil {
		return abi.Method{}, nil, nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, fmt.Sprintf("invalid arguments for %s", name))
	}
	data, err := s.iface.Contract.Pack(name, coerced...)
	if err != nil {
		return abi.Method{}, nil, nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, fmt.Sprintf("encode %s call", name))
	}
	return method, coerced, data, nil
}

func (s *Service) retryOptions(prefix string) retry.Options {
	opts := s.opts.Retry
	opts.LogPrefix = prefix
	if opts.Logger == nil {
		opts.Logger = s.opts.Logger
	}
	next := opts.OnRetry
	m := s.opts.Metrics
	opts.OnRetry = func(attempt int, err error) {
		m.ObserveRetry(prefix)
		if next != nil {
			next(attempt, err)
		}
	}
	return opts
}

// record journals a write attempt and writes the audit line. Journal
// failures are logged and never fail the call.
func (s *Service) record(ctx context.Context, name string, args []any, result *WriteResult, callErr error, elapsed time.Duration) {
	entry := journal.Entry{
		CallID:   CallIDFrom(ctx),
		Contract: s.opts.Name,
		Address:  s.address.Hex(),
		Chain:    s.opts.Chain,
		Function: name,
		Status:   journal.StatusFailed,
	}
	if encoded, err := json.Marshal(normalize.Format(args)); err == nil {
		entry.Args = encoded
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if result != nil {
		entry.TxHash = result.Hash.Hex()
		entry.Status = journal.StatusReverted
		if result.Receipt != nil {
			if result.Receipt.BlockNumber != nil {
				entry.BlockNumber = result.Receipt.BlockNumber.Uint64()
			}
			entry.GasUsed = result.Receipt.GasUsed
			if result.Receipt.Status == types.ReceiptStatusSuccessful {
				entry.Status = journal.StatusSuccess
			}
			s.opts.Metrics.ObserveTransaction(name, result.Receipt.Status)
		}
	}

	s.opts.Audit.Info("contract transaction",
		slog.String("call_id", entry.CallID),
		slog.String("contract", entry.Contract),
		slog.String("address", entry.Address),
		slog.String("function", name),
		slog.String("status", string(entry.Status)),
		slog.String("tx_hash", entry.TxHash),
		slog.Duration("elapsed", elapsed),
	)

	if err := s.opts.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.opts.Logger.Warn("failed to journal transaction",
			slog.String("function", name),
			slog.String("tx_hash", entry.TxHash),
			slog.Any("error", err),
		)
	}
}

func collapse(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}
