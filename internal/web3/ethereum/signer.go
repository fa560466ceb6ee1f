package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds a single private key and sends contract transactions with it.
// Gas pricing, gas limits and nonces are left to go-ethereum's transactor
// defaults.
type Signer struct {
	backend Backend
	opts    *bind.TransactOpts
}

// NewSigner derives a keyed transactor from a hex private key, with or
// without the 0x prefix. When chainID is nil it is read from the backend.
func NewSigner(ctx context.Context, backend Backend, privateKeyHex string, chainID *big.Int) (*Signer, error) {
	if backend == nil {
		return nil, errors.New("signer requires a backend")
	}
	keyHex := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if keyHex == "" {
		return nil, errors.New("private key is empty")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize wallet: invalid private key: %w", err)
	}

	if chainID == nil || chainID.Sign() == 0 {
		chainID, err = backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize wallet: chain id: %w", err)
		}
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize wallet: %w", err)
	}
	return &Signer{backend: backend, opts: opts}, nil
}

// From returns the signing account.
func (s *Signer) From() common.Address {
	return s.opts.From
}

// Transact signs and broadcasts calldata to the contract at to.
func (s *Signer) Transact(ctx context.Context, to common.Address, data []byte) (*coretypes.Transaction, error) {
	opts := *s.opts
	opts.Context = ctx
	contract := bind.NewBoundContract(to, abi.ABI{}, s.backend, s.backend, s.backend)
	return contract.RawTransact(&opts, data)
}

// WaitMined blocks until tx is included in a block.
func (s *Signer) WaitMined(ctx context.Context, tx *coretypes.Transaction) (*coretypes.Receipt, error) {
	return bind.WaitMined(ctx, s.backend, tx)
}
