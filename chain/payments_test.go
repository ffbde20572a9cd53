package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// sendValue signs and submits a plain transfer without mining it.
func sendValue(t *testing.T, sim *simulated.Backend, auth *bind.TransactOpts, to interfaces.Address, value int64) common.Hash {
	t.Helper()
	ctx := context.Background()
	client := sim.Client()

	nonce, err := client.PendingNonceAt(ctx, auth.From)
	require.NoError(t, err)
	head, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	tip, err := client.SuggestGasTipCap(ctx)
	require.NoError(t, err)

	recipient := common.Address(to)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1337),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2))),
		Gas:       21000,
		To:        &recipient,
		Value:     big.NewInt(value),
	})
	signed, err := auth.Signer(auth.From, tx)
	require.NoError(t, err)
	require.NoError(t, client.SendTransaction(ctx, signed))
	return signed.Hash()
}

func TestPaymentVerifier(t *testing.T) {
	sim, auth := setupTestChain(t)
	defer sim.Close()

	treasury := interfaces.Address{0x42}
	payer := interfaces.Address(auth.From)
	verifier := NewPaymentVerifier(sim.Client(), big.NewInt(1337), treasury)
	ctx := context.Background()

	paid := sendValue(t, sim, auth, treasury, 100)
	sim.Commit()

	t.Run("mined transfer to the treasury", func(t *testing.T) {
		payment, err := verifier.VerifyPayment(ctx, paid.Hex(), payer)
		require.NoError(t, err)
		assert.True(t, payment.IsNative())
		assert.Equal(t, 0, payment.Amount.Cmp(big.NewInt(100)))
	})

	t.Run("claimed by someone else", func(t *testing.T) {
		_, err := verifier.VerifyPayment(ctx, paid.Hex(), interfaces.Address{0x99})
		assert.ErrorIs(t, err, interfaces.ErrPaymentNotVerified)
	})

	t.Run("sent elsewhere", func(t *testing.T) {
		elsewhere := sendValue(t, sim, auth, interfaces.Address{0x43}, 100)
		sim.Commit()

		_, err := verifier.VerifyPayment(ctx, elsewhere.Hex(), payer)
		assert.ErrorIs(t, err, interfaces.ErrPaymentNotVerified)
	})

	t.Run("not mined", func(t *testing.T) {
		pending := sendValue(t, sim, auth, treasury, 100)
		_, err := verifier.VerifyPayment(ctx, pending.Hex(), payer)
		assert.ErrorIs(t, err, interfaces.ErrPaymentNotVerified)
		sim.Commit()
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := verifier.VerifyPayment(ctx, common.Hash{0x01}.Hex(), payer)
		assert.ErrorIs(t, err, interfaces.ErrPaymentNotVerified)
	})

	t.Run("malformed reference", func(t *testing.T) {
		for _, ref := range []string{"", "100", "0x1234", "0xzz"} {
			_, err := verifier.VerifyPayment(ctx, ref, payer)
			assert.ErrorIs(t, err, interfaces.ErrInvalidArgument, ref)
		}
	})
}
