package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// ErrMissingDeployEvent is returned when a deploy transaction emitted no SubsystemDeployed event.
var ErrMissingDeployEvent = errors.New("no SubsystemDeployed event in receipt")

// TemplateDeployer implements interfaces.TemplateBackend through a template factory
// contract that clones the template and calls its initializer.
type TemplateDeployer struct {
	backend  *Backend
	address  common.Address
	contract *bind.BoundContract
}

type subsystemDeployed struct {
	Template  common.Address
	Subsystem common.Address
}

// NewTemplateDeployer creates a deployer for the template factory contract at addr.
func NewTemplateDeployer(backend *Backend, addr interfaces.Address) *TemplateDeployer {
	address := common.Address(addr)
	return &TemplateDeployer{
		backend:  backend,
		address:  address,
		contract: bind.NewBoundContract(address, templateFactoryABI, backend.client, backend.client, backend.client),
	}
}

// DeployFromTemplate deploys a new sub-system and returns the address reported by the factory contract.
func (d *TemplateDeployer) DeployFromTemplate(ctx context.Context, template interfaces.Address, args *interfaces.InitArgs) (interfaces.Address, error) {
	packed, err := PackInitArgs(args)
	if err != nil {
		return interfaces.Address{}, err
	}

	receipt, err := d.backend.send(ctx, "deployFromTemplate", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return d.contract.Transact(opts, "deployFromTemplate", common.Address(template), packed)
	})
	if err != nil {
		return interfaces.Address{}, err
	}

	return d.deployedSubsystem(receipt)
}

// UpgradeFromTemplate re-initializes target in place.
func (d *TemplateDeployer) UpgradeFromTemplate(ctx context.Context, target interfaces.Address, template interfaces.Address, args *interfaces.InitArgs) error {
	packed, err := PackInitArgs(args)
	if err != nil {
		return err
	}

	_, err = d.backend.send(ctx, "upgradeFromTemplate", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return d.contract.Transact(opts, "upgradeFromTemplate", common.Address(target), common.Address(template), packed)
	})
	return err
}

func (d *TemplateDeployer) deployedSubsystem(receipt *types.Receipt) (interfaces.Address, error) {
	for _, log := range receipt.Logs {
		if log.Address != d.address {
			continue
		}
		var event subsystemDeployed
		if err := d.contract.UnpackLog(&event, "SubsystemDeployed", *log); err != nil {
			continue
		}
		return interfaces.Address(event.Subsystem), nil
	}
	return interfaces.Address{}, fmt.Errorf("%w: tx %s", ErrMissingDeployEvent, receipt.TxHash.Hex())
}

// PackInitArgs ABI-encodes the sub-system initializer arguments in their fixed order.
func PackInitArgs(args *interfaces.InitArgs) ([]byte, error) {
	if args == nil {
		return nil, fmt.Errorf("%w: nil init args", interfaces.ErrInvalidArgument)
	}

	packed, err := initArgsLayout.Pack(
		string(args.AllowedQuoteAsset),
		common.Address(args.FeesCollector),
		orZero(args.InitialVirtualLiquidity),
		common.Address(args.OracleAddress),
		orZero(args.MaxMarketCap),
		common.Address(args.RouterAddress),
		orZero(args.IssuanceCost),
		common.Address(args.UnwrapHelper),
		orZero(args.FeeThreshold),
		args.CorrelationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack init args: %w", err)
	}
	return packed, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
