package web3

import (
	"context"
	"math/big"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainSnapshot represents summarized network metadata for UI/reporting.
type ChainSnapshot struct {
	Chain       string `json:"chain"`
	ChainID     string `json:"chain_id"`
	BlockNumber string `json:"block_number"`
	Notes       string `json:"notes,omitempty"`
}

// ContractReader executes stateless contract calls against a read endpoint.
type ContractReader interface {
	CallContract(ctx context.Context, call gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ContractWriter submits signed transactions and waits for their receipts.
type ContractWriter interface {
	// From is the account transactions are signed with.
	From() common.Address
	// Transact signs and broadcasts a call to the contract at to with the
	// given calldata.
	Transact(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error)
	// WaitMined blocks until tx is included and returns its receipt.
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Client defines what the process needs from a chain connection.
type Client interface {
	ContractReader
	FetchChainSnapshot(ctx context.Context) (ChainSnapshot, error)
	Close()
}
