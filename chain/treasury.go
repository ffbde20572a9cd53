package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// NativeTreasury implements interfaces.Treasury with plain value transfers from the operator account.
type NativeTreasury struct {
	backend *Backend
}

func NewNativeTreasury(backend *Backend) *NativeTreasury {
	return &NativeTreasury{backend: backend}
}

// Send transfers amount of native currency to the given address and waits until it is mined.
func (t *NativeTreasury) Send(ctx context.Context, to interfaces.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", interfaces.ErrInvalidArgument)
	}

	recipient := common.Address(to)
	contract := bind.NewBoundContract(recipient, abi.ABI{}, t.backend.client, t.backend.client, t.backend.client)

	receipt, err := t.backend.send(ctx, "transfer", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		opts.Value = new(big.Int).Set(amount)
		return contract.Transfer(opts)
	})
	if err != nil {
		return err
	}

	t.backend.log.Info("Transferred native currency",
		slog.String("to", recipient.Hex()),
		slog.String("amount", amount.String()),
		slog.String("tx", receipt.TxHash.Hex()))
	return nil
}
