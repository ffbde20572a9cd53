package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

var (
	// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
	ErrNoTransactOpts = errors.New("no authorized transactor available")

	// ErrReverted is returned when a mined transaction did not succeed.
	ErrReverted = errors.New("transaction reverted")
)

// Backend holds the chain connection and the operator's transactor shared by
// every contract client. It implements SubsystemFactory and RouterFactory.
type Backend struct {
	client  bind.ContractBackend
	backend bind.DeployBackend
	auth    *bind.TransactOpts
	log     *slog.Logger

	// sendMu serializes submissions so pending nonces are not reused.
	sendMu sync.Mutex
}

// NewBackend creates a backend reading through client and waiting for receipts through backend.
func NewBackend(client bind.ContractBackend, backend bind.DeployBackend, log *slog.Logger) *Backend {
	return &Backend{
		client:  client,
		backend: backend,
		log:     log,
	}
}

// SetTransactOpts sets the transaction options required for functions that modify state.
// This must be called before using any methods that send transactions to the blockchain.
func (b *Backend) SetTransactOpts(auth *bind.TransactOpts) {
	b.auth = auth
}

// From returns the operator address transactions are sent from.
func (b *Backend) From() interfaces.Address {
	if b.auth == nil {
		return interfaces.Address{}
	}
	return interfaces.Address(b.auth.From)
}

// SubsystemFor returns a client for the bonding sub-system at addr.
func (b *Backend) SubsystemFor(addr interfaces.Address) (interfaces.Subsystem, error) {
	return NewBondingClient(b, addr), nil
}

// RouterFor returns a client for the router at addr.
func (b *Backend) RouterFor(addr interfaces.Address) (interfaces.Router, error) {
	return NewRouterClient(b, addr), nil
}

func (b *Backend) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// send submits a transaction built by submit and waits until it is mined.
func (b *Backend) send(ctx context.Context, what string, submit func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	if b.auth == nil {
		return nil, ErrNoTransactOpts
	}

	opts := *b.auth
	opts.Context = ctx

	b.sendMu.Lock()
	tx, err := submit(&opts)
	b.sendMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", what, err)
	}

	receipt, err := bind.WaitMined(ctx, b.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s tx %s: %w", what, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s tx %s", ErrReverted, what, tx.Hash().Hex())
	}

	b.log.Debug("Transaction mined",
		slog.String("call", what),
		slog.String("tx", tx.Hash().Hex()),
		slog.String("block", receipt.BlockNumber.String()))
	return receipt, nil
}

// NewTransactOpts builds a keyed transactor from a hex encoded private key.
func NewTransactOpts(hexKey string, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid operator key: %w", err)
	}
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}
