// Package factory is the caller-facing surface of the bonding factory. It
// composes the registry, deployer, admin gateway and provisioning workflow,
// enforces ownership and persists state after every mutation.
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ruteri/bonding-factory-backend/admin"
	"github.com/ruteri/bonding-factory-backend/deployer"
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/metrics"
	"github.com/ruteri/bonding-factory-backend/provisioning"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// Config holds the factory's process-level settings.
type Config struct {
	// Self is the address administrative commands target to act on the factory itself.
	Self interfaces.Address

	// IssuanceBudget is the execution time that must remain before an issuance request is sent.
	IssuanceBudget time.Duration

	// Owner is the only caller allowed to initialize the factory. When zero, the first
	// caller to initialize becomes the owner.
	Owner interfaces.Address
}

// Dependencies are the external collaborators. Store and Metrics may be nil.
// Without Payments every payment reference is rejected.
type Dependencies struct {
	Issuer     interfaces.IssuingAuthority
	Payments   interfaces.PaymentVerifier
	Templates  interfaces.TemplateBackend
	Routers    interfaces.RouterFactory
	Subsystems interfaces.SubsystemFactory
	Treasury   interfaces.Treasury
	Store      interfaces.StateStore
	Metrics    *metrics.Metrics
}

// Factory implements every caller-facing operation.
type Factory struct {
	registry   *registry.Registry
	deployer   *deployer.Deployer
	gateway    *admin.Gateway
	workflow   *provisioning.Workflow
	subsystems interfaces.SubsystemFactory
	verifier   interfaces.PaymentVerifier
	payments   *paymentLedger
	owner      interfaces.Address
	store      interfaces.StateStore
	metrics    *metrics.Metrics
	log        *slog.Logger

	saveMu sync.Mutex
}

func New(cfg Config, deps Dependencies, log *slog.Logger) *Factory {
	reg := registry.NewRegistry()
	dep := deployer.NewDeployer(reg, deps.Templates, log)

	var adminRecorder admin.Recorder
	var provisioningRecorder provisioning.Recorder
	if deps.Metrics != nil {
		adminRecorder = deps.Metrics
		provisioningRecorder = deps.Metrics
	}

	return &Factory{
		registry: reg,
		deployer: dep,
		gateway:  admin.NewGateway(cfg.Self, reg, deps.Subsystems, adminRecorder, log),
		workflow: provisioning.NewWorkflow(provisioning.Dependencies{
			Registry:   reg,
			Deployer:   dep,
			Issuer:     deps.Issuer,
			Routers:    deps.Routers,
			Subsystems: deps.Subsystems,
			Treasury:   deps.Treasury,
			Recorder:   provisioningRecorder,
		}, nil, cfg.IssuanceBudget, log),
		subsystems: deps.Subsystems,
		verifier:   deps.Payments,
		payments:   newPaymentLedger(),
		owner:      cfg.Owner,
		store:      deps.Store,
		metrics:    deps.Metrics,
		log:        log,
	}
}

// Self returns the factory's own address.
func (f *Factory) Self() interfaces.Address {
	return f.gateway.Self()
}

func (f *Factory) requireOwner(caller interfaces.Address) error {
	cfg := f.registry.Config()
	if !cfg.Initialized || caller != cfg.Owner {
		return interfaces.ErrNotOwner
	}
	return nil
}

// Initialize stores the initialization parameters with set-if-absent semantics.
// The caller becomes the owner: it must be the configured owner, if any, and later
// calls require the owner.
func (f *Factory) Initialize(ctx context.Context, caller interfaces.Address, params *registry.InitParams) error {
	if f.registry.Config().Initialized {
		if err := f.requireOwner(caller); err != nil {
			return err
		}
	} else if !f.owner.IsZero() && caller != f.owner {
		return interfaces.ErrNotOwner
	}
	if err := f.registry.Initialize(caller, params); err != nil {
		return err
	}

	f.log.Info("Factory initialized", slog.String("owner", f.registry.Config().Owner.String()))
	f.save(ctx)
	return nil
}

// UpgradeSelf marks the factory as upgraded. An upgraded factory comes back paused.
func (f *Factory) UpgradeSelf(ctx context.Context, caller interfaces.Address) error {
	if err := f.requireOwner(caller); err != nil {
		return err
	}
	f.registry.SetActive(false)
	f.log.Info("Factory upgraded, now paused")
	f.save(ctx)
	return nil
}

func (f *Factory) Pause(ctx context.Context, caller, target interfaces.Address) error {
	if err := f.requireOwner(caller); err != nil {
		return err
	}
	if err := f.gateway.Pause(ctx, target); err != nil {
		return err
	}
	f.save(ctx)
	return nil
}

func (f *Factory) Resume(ctx context.Context, caller, target interfaces.Address) error {
	if err := f.requireOwner(caller); err != nil {
		return err
	}
	if err := f.gateway.Resume(ctx, target); err != nil {
		return err
	}
	f.save(ctx)
	return nil
}

func (f *Factory) SetRouter(ctx context.Context, caller, target, router interfaces.Address) error {
	if err := f.requireOwner(caller); err != nil {
		return err
	}
	if err := f.gateway.SetRouter(ctx, target, router); err != nil {
		return err
	}
	f.save(ctx)
	return nil
}

// ProvisionNewAsset starts provisioning and returns the job id of the pending issuance.
// The fee is taken from the transfer req.PaymentTx names, which must have been sent by
// caller and may fund a single job only.
//
// When the issuance request could not be confirmed the job id is returned together
// with the error, and the job stays pending.
func (f *Factory) ProvisionNewAsset(ctx context.Context, caller interfaces.Address, req provisioning.Request) (string, error) {
	var funds interfaces.Payment
	if req.PaymentTx != "" {
		if !f.payments.claim(req.PaymentTx) {
			return "", fmt.Errorf("%w: %s", interfaces.ErrPaymentReused, req.PaymentTx)
		}
		paid, err := f.verifyPayment(ctx, req.PaymentTx, caller)
		if err != nil {
			f.payments.release(req.PaymentTx)
			return "", err
		}
		funds = paid
	}

	jobID, err := f.workflow.Start(ctx, caller, req, funds)
	if jobID == "" {
		if req.PaymentTx != "" {
			f.payments.release(req.PaymentTx)
		}
		return "", err
	}
	f.save(ctx)
	return jobID, err
}

func (f *Factory) verifyPayment(ctx context.Context, ref string, payer interfaces.Address) (interfaces.Payment, error) {
	if f.verifier == nil {
		return interfaces.Payment{}, fmt.Errorf("%w: no payment verifier configured", interfaces.ErrPaymentNotVerified)
	}
	return f.verifier.VerifyPayment(ctx, ref, payer)
}

// CompleteIssuance resumes the job named by result.
func (f *Factory) CompleteIssuance(ctx context.Context, result interfaces.IssuanceResult) (*provisioning.Outcome, error) {
	outcome, err := f.workflow.Complete(ctx, result)
	if errors.Is(err, interfaces.ErrUnknownJob) {
		return nil, err
	}
	// Either the job finished or its progress changed.
	f.save(ctx)
	return outcome, err
}

// UpgradePair re-initializes the sub-system registered for the pair with the current configuration.
func (f *Factory) UpgradePair(ctx context.Context, caller interfaces.Address, first, second interfaces.AssetID) error {
	if err := f.requireOwner(caller); err != nil {
		return err
	}

	cfg := f.registry.Config()
	switch {
	case !cfg.Active:
		return interfaces.ErrSystemPaused
	case first == second:
		return interfaces.ErrIdenticalAssets
	case !first.IsValid(), !second.IsValid():
		return interfaces.ErrInvalidAssetID
	case second != cfg.AllowedQuoteAsset:
		return interfaces.ErrQuoteAssetNotAllowed
	}

	addr, ok := f.registry.ResolvePair(first, second)
	if !ok {
		return fmt.Errorf("%w: %s/%s", interfaces.ErrPairNotFound, first, second)
	}

	args, err := f.deployer.BuildInitArgs("")
	if err != nil {
		return err
	}
	return f.deployer.UpgradeExisting(ctx, addr, args)
}

// SetFeesCollector replaces the address receiving the fee remainder.
func (f *Factory) SetFeesCollector(ctx context.Context, caller, addr interfaces.Address) error {
	return f.ownerSet(ctx, caller, func() error { return f.registry.SetFeesCollector(addr) })
}

func (f *Factory) SetInitialVirtualLiquidity(ctx context.Context, caller interfaces.Address, v *big.Int) error {
	return f.ownerSet(ctx, caller, func() error { return f.registry.SetInitialVirtualLiquidity(v) })
}

func (f *Factory) SetTokenSupply(ctx context.Context, caller interfaces.Address, v *big.Int) error {
	return f.ownerSet(ctx, caller, func() error { return f.registry.SetTokenSupply(v) })
}

func (f *Factory) SetNewAssetFee(ctx context.Context, caller interfaces.Address, v *big.Int) error {
	return f.ownerSet(ctx, caller, func() error { return f.registry.SetNewAssetFee(v) })
}

func (f *Factory) SetMaxMarketCap(ctx context.Context, caller interfaces.Address, v *big.Int) error {
	return f.ownerSet(ctx, caller, func() error { return f.registry.SetMaxMarketCap(v) })
}

func (f *Factory) SetTemplateAddress(ctx context.Context, caller, addr interfaces.Address) error {
	return f.ownerSet(ctx, caller, func() error { return f.registry.SetTemplateAddress(addr) })
}

func (f *Factory) ownerSet(ctx context.Context, caller interfaces.Address, set func() error) error {
	if err := f.requireOwner(caller); err != nil {
		return err
	}
	if err := set(); err != nil {
		return err
	}
	f.save(ctx)
	return nil
}

// GetAllPairMetadata lists every registered pair in registration order.
func (f *Factory) GetAllPairMetadata() []interfaces.PairMetadata {
	entries := f.registry.ListPairs()
	out := make([]interfaces.PairMetadata, 0, len(entries))
	for _, entry := range entries {
		out = append(out, interfaces.PairMetadata{
			FirstAssetID:  entry.Key.First,
			SecondAssetID: entry.Key.Second,
			Address:       entry.Address,
		})
	}
	return out
}

// GetAllPairData queries every registered sub-system. Any failed query fails the whole view.
func (f *Factory) GetAllPairData(ctx context.Context) ([]interfaces.PairContractData, error) {
	entries := f.registry.ListPairs()
	out := make([]interfaces.PairContractData, 0, len(entries))
	for _, entry := range entries {
		subsystem, err := f.subsystems.SubsystemFor(entry.Address)
		if err != nil {
			return nil, err
		}
		data, err := subsystem.GetPairData(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get pair data from %s: %w", entry.Address, err)
		}
		out = append(out, interfaces.PairContractData{Address: entry.Address, PairData: *data})
	}
	return out, nil
}

// GetState reports whether the factory is active.
func (f *Factory) GetState() bool {
	return f.registry.IsActive()
}

func (f *Factory) GetTokenSupply() *big.Int {
	return f.registry.Config().TokenSupply
}

func (f *Factory) GetNewAssetFee() *big.Int {
	return f.registry.Config().NewAssetFee
}

func (f *Factory) GetTemplateAddress() interfaces.Address {
	return f.registry.Config().TemplateAddress
}

// Config returns a copy of the full configuration.
func (f *Factory) Config() registry.Config {
	return f.registry.Config()
}

// PendingJobs lists provisioning jobs awaiting their issuance callback.
func (f *Factory) PendingJobs() []provisioning.Context {
	return f.workflow.Pending().List()
}
