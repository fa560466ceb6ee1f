package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"OpenMCP-ABI/internal/contract"
	"OpenMCP-ABI/internal/contractabi"
	xerrors "OpenMCP-ABI/internal/errors"
	"OpenMCP-ABI/internal/observability/metrics"
	"OpenMCP-ABI/pkg/logger"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Invoker is the part of contract.Service the tools call.
type Invoker interface {
	CallReadFunction(ctx context.Context, name string, args []contractabi.Value) (any, error)
	CallWriteFunction(ctx context.Context, name string, args []contractabi.Value) (*contract.WriteResult, error)
}

// Tool is one invokable contract function.
type Tool struct {
	Name        string                         `json:"name"`
	Description string                         `json:"description"`
	Function    contractabi.FunctionDescriptor `json:"-"`
	InputSchema json.RawMessage                `json:"input_schema"`

	execute func(ctx context.Context, args []any) Result
}

// Execute runs the tool with a positional argument list.
func (t Tool) Execute(ctx context.Context, args []any) Result {
	if t.execute == nil {
		return Result{Tool: t.Name, Function: t.Function.Name, Error: fmt.Sprintf("tool %q has no handler", t.Name)}
	}
	return t.execute(ctx, args)
}

// Option customizes Generate.
type Option func(*generator)

// WithExplorer links write results to a block explorer.
func WithExplorer(txURL func(hash string) string) Option {
	return func(g *generator) { g.explorer = txURL }
}

// WithMetrics records call counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *generator) { g.metrics = m }
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *generator) { g.logger = l }
}

type generator struct {
	invoker  Invoker
	contract string
	explorer func(string) string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// ToolName derives the tool name of a function: the lowercased contract name
// and the function name joined by an underscore.
func ToolName(contractName, function string) string {
	return strings.ToLower(contractName) + "_" + function
}

// Generate builds one tool per function, in order.
func Generate(invoker Invoker, contractName string, functions []contractabi.FunctionDescriptor, opts ...Option) []Tool {
	g := &generator{invoker: invoker, contract: contractName}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.logger == nil {
		g.logger = logger.Named("tools")
	}

	out := make([]Tool, 0, len(functions))
	for _, fn := range functions {
		name := ToolName(contractName, fn.Name)
		out = append(out, Tool{
			Name:        name,
			Description: describe(contractName, fn),
			Function:    fn,
			InputSchema: CallInputSchema,
			execute:     g.handler(name, fn),
		})
	}
	return out
}

func describe(contractName string, fn contractabi.FunctionDescriptor) string {
	verb := "Execute"
	if fn.IsRead {
		verb = "Query"
	}
	parts := []string{fmt.Sprintf("%s the %s function on %s contract.", verb, fn.Name, contractName)}
	if fn.Description != "" {
		parts = append(parts, fn.Description)
	}
	if len(fn.Inputs) > 0 {
		parts = append(parts, "Inputs: "+contractabi.Signature(fn.Inputs, "arg"))
	}
	if len(fn.Outputs) > 0 {
		parts = append(parts, "Outputs: "+contractabi.Signature(fn.Outputs, "result"))
	}
	return strings.Join(parts, "\n\n")
}

func (g *generator) handler(toolName string, fn contractabi.FunctionDescriptor) func(context.Context, []any) Result {
	action := ActionExecute
	if fn.IsRead {
		action = ActionQuery
	}

	return func(ctx context.Context, args []any) (result Result) {
		callID := uuid.NewString()
		started := time.Now()
		log := g.logger.With(slog.String("tool", toolName), slog.String("call_id", callID))
		result = Result{Tool: toolName, Function: fn.Name, Action: action, CallID: callID}

		defer func() {
			if r := recover(); r != nil {
				result.Success = false
				result.Error = fmt.Sprintf("internal error: %v", r)
				log.Error("tool panicked", slog.Any("panic", r))
			}
			g.metrics.ObserveToolCall(toolName, action, result.Success, time.Since(started))
		}()

		log.Info("tool called", slog.Int("args", len(args)))

		if len(args) != len(fn.Inputs) {
			result.Error = fmt.Sprintf("invalid argument count: expected %d, got %d. Required: %s",
				len(fn.Inputs), len(args), contractabi.Signature(fn.Inputs, "arg"))
			log.Warn("argument count mismatch", slog.Int("expected", len(fn.Inputs)), slog.Int("got", len(args)))
			return result
		}

		values, err := contractabi.ValuesFrom(args)
		if err != nil {
			result.Error = err.Error()
			return result
		}

		ctx = contract.WithCallID(ctx, callID)
		if fn.IsRead {
			value, err := g.invoker.CallReadFunction(ctx, fn.Name, values)
			if err != nil {
				result.Error = err.Error()
				log.Log(ctx, xerrors.SeverityOf(err).Level(), "query failed", slog.Any("error", err))
				return result
			}
			result.Success = true
			result.Value = value
			return result
		}

		written, err := g.invoker.CallWriteFunction(ctx, fn.Name, values)
		if err != nil {
			result.Error = err.Error()
			log.Log(ctx, xerrors.SeverityOf(err).Level(), "transaction failed", slog.Any("error", err))
			return result
		}
		result.Success = true
		result.TxHash = written.Hash.Hex()
		result.Status = StatusFailed
		if receipt := written.Receipt; receipt != nil {
			if receipt.BlockNumber != nil {
				result.BlockNumber = receipt.BlockNumber.Uint64()
			}
			result.GasUsed = receipt.GasUsed
			if receipt.Status == types.ReceiptStatusSuccessful {
				result.Status = StatusSuccess
			}
		}
		if g.explorer != nil {
			result.ExplorerURL = g.explorer(result.TxHash)
		}
		log.Info("transaction confirmed", slog.String("tx_hash", result.TxHash), slog.String("status", result.Status))
		return result
	}
}
