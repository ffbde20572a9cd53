package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// PaymentVerifier implements interfaces.PaymentVerifier against mined native transfers.
// A payment is accepted only when it was sent by the payer to receiver and succeeded.
type PaymentVerifier struct {
	reader   ethereum.TransactionReader
	signer   types.Signer
	receiver common.Address
}

func NewPaymentVerifier(reader ethereum.TransactionReader, chainID *big.Int, receiver interfaces.Address) *PaymentVerifier {
	return &PaymentVerifier{
		reader:   reader,
		signer:   types.LatestSignerForChainID(chainID),
		receiver: common.Address(receiver),
	}
}

// VerifyPayment looks up the transaction ref and returns the native amount it carried.
func (v *PaymentVerifier) VerifyPayment(ctx context.Context, ref string, payer interfaces.Address) (interfaces.Payment, error) {
	raw, err := hexutil.Decode(ref)
	if err != nil || len(raw) != common.HashLength {
		return interfaces.Payment{}, fmt.Errorf("%w: payment reference %q is not a transaction hash", interfaces.ErrInvalidArgument, ref)
	}
	hash := common.BytesToHash(raw)

	tx, isPending, err := v.reader.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return interfaces.Payment{}, fmt.Errorf("%w: transaction %s not found", interfaces.ErrPaymentNotVerified, hash.Hex())
	}
	if err != nil {
		return interfaces.Payment{}, fmt.Errorf("failed to fetch transaction %s: %w", hash.Hex(), err)
	}
	if isPending {
		return interfaces.Payment{}, fmt.Errorf("%w: transaction %s is not mined yet", interfaces.ErrPaymentNotVerified, hash.Hex())
	}

	receipt, err := v.reader.TransactionReceipt(ctx, hash)
	if err != nil {
		return interfaces.Payment{}, fmt.Errorf("failed to fetch receipt of %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return interfaces.Payment{}, fmt.Errorf("%w: transaction %s failed", interfaces.ErrPaymentNotVerified, hash.Hex())
	}

	if tx.To() == nil || *tx.To() != v.receiver {
		return interfaces.Payment{}, fmt.Errorf("%w: transaction %s was not sent to %s", interfaces.ErrPaymentNotVerified, hash.Hex(), v.receiver.Hex())
	}

	sender, err := types.Sender(v.signer, tx)
	if err != nil {
		return interfaces.Payment{}, fmt.Errorf("%w: cannot recover sender of %s: %v", interfaces.ErrPaymentNotVerified, hash.Hex(), err)
	}
	if sender != common.Address(payer) {
		return interfaces.Payment{}, fmt.Errorf("%w: transaction %s was sent by %s", interfaces.ErrPaymentNotVerified, hash.Hex(), sender.Hex())
	}

	return interfaces.Payment{Asset: interfaces.NativeAsset, Amount: new(big.Int).Set(tx.Value())}, nil
}
