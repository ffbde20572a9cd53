package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// BondingClient implements interfaces.Subsystem for a bonding sub-system contract.
type BondingClient struct {
	backend  *Backend
	address  common.Address
	contract *bind.BoundContract
}

// pairDataTuple mirrors the getPairData return tuple.
type pairDataTuple struct {
	FirstAssetId  string
	SecondAssetId string
	FirstReserve  *big.Int
	SecondReserve *big.Int
	FeePercent    uint64
	MarketCap     *big.Int
	DbId          string
	State         uint8
}

// NewBondingClient creates a client for the sub-system at addr.
func NewBondingClient(backend *Backend, addr interfaces.Address) *BondingClient {
	address := common.Address(addr)
	return &BondingClient{
		backend:  backend,
		address:  address,
		contract: bind.NewBoundContract(address, bondingABI, backend.client, backend.client, backend.client),
	}
}

func (c *BondingClient) Pause(ctx context.Context) error {
	return c.transact(ctx, "pause")
}

func (c *BondingClient) Resume(ctx context.Context) error {
	return c.transact(ctx, "resume")
}

func (c *BondingClient) SetRouter(ctx context.Context, router interfaces.Address) error {
	return c.transact(ctx, "setRouter", common.Address(router))
}

// SetAssetIdentifier hands the issued asset over to the sub-system.
func (c *BondingClient) SetAssetIdentifier(ctx context.Context, payment interfaces.Payment, buyIn bool, caller interfaces.Address) error {
	amount := new(big.Int)
	if payment.Amount != nil {
		amount.Set(payment.Amount)
	}
	return c.transact(ctx, "setAssetIdentifier", string(payment.Asset), amount, buyIn, common.Address(caller))
}

// GetPairData queries the sub-system's reported pair data.
func (c *BondingClient) GetPairData(ctx context.Context) (*interfaces.PairData, error) {
	var out []interface{}
	if err := c.contract.Call(c.backend.callOpts(ctx), &out, "getPairData"); err != nil {
		return nil, fmt.Errorf("getPairData on %s: %w", c.address.Hex(), err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getPairData on %s: unexpected output length %d", c.address.Hex(), len(out))
	}

	raw := *abi.ConvertType(out[0], new(pairDataTuple)).(*pairDataTuple)
	return &interfaces.PairData{
		FirstAssetID:  interfaces.AssetID(raw.FirstAssetId),
		SecondAssetID: interfaces.AssetID(raw.SecondAssetId),
		FirstReserve:  raw.FirstReserve,
		SecondReserve: raw.SecondReserve,
		FeePercent:    raw.FeePercent,
		MarketCap:     raw.MarketCap,
		CorrelationID: raw.DbId,
		State:         interfaces.LifecycleState(raw.State),
	}, nil
}

func (c *BondingClient) transact(ctx context.Context, method string, params ...interface{}) error {
	_, err := c.backend.send(ctx, method, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.Transact(opts, method, params...)
	})
	return err
}

// RouterClient implements interfaces.Router for the router contract.
type RouterClient struct {
	backend  *Backend
	contract *bind.BoundContract
}

// NewRouterClient creates a client for the router at addr.
func NewRouterClient(backend *Backend, addr interfaces.Address) *RouterClient {
	return &RouterClient{
		backend:  backend,
		contract: bind.NewBoundContract(common.Address(addr), routerABI, backend.client, backend.client, backend.client),
	}
}

// SetPendingPair registers pair as a pending (not yet listed) pair on the router.
func (c *RouterClient) SetPendingPair(ctx context.Context, pair interfaces.Address) error {
	_, err := c.backend.send(ctx, "setPendingPair", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.contract.Transact(opts, "setPendingPair", common.Address(pair))
	})
	return err
}
