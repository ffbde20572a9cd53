// Package provisioning drives a new asset from its issuance request to a live,
// registered bonding sub-system.
//
// The workflow is split around the asynchronous issuance call. Start validates
// the request, records a Context under a fresh job id and sends the issuance
// request. Complete is the resumption: it takes the Context and either deploys,
// registers and funds the new sub-system, or refunds the caller. A resumption that
// fails part way puts the Context back so a redelivered callback can finish it.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// DefaultIssuanceBudget is the minimum execution time that must remain before an
// issuance request may be sent.
const DefaultIssuanceBudget = 10 * time.Second

// Registry is the subset of the pair registry used by the workflow.
type Registry interface {
	Config() registry.Config
	InsertPair(key interfaces.PairKey, addr interfaces.Address) error
	RemovePair(key interfaces.PairKey, addr interfaces.Address) error
}

// Deployer deploys new sub-systems from the configured template.
type Deployer interface {
	BuildInitArgs(correlationID string) (*interfaces.InitArgs, error)
	DeployNew(ctx context.Context, args *interfaces.InitArgs) (interfaces.Address, error)
}

// Recorder observes workflow transitions.
type Recorder interface {
	ProvisioningStarted(err error)
	ProvisioningCompleted(status Status, err error)
}

// Request is the caller supplied asset metadata.
type Request struct {
	DisplayName   string
	Ticker        string
	CorrelationID string
	BuyIn         bool

	// PaymentTx references the transfer the attached funds were verified from, if any.
	PaymentTx string
}

// Status is the terminal state of a provisioning job.
type Status string

const (
	StatusProvisioned Status = "provisioned"
	StatusRefunded    Status = "refunded"
	StatusFailed      Status = "failed"
)

// Outcome describes what the resumption did.
type Outcome struct {
	JobID        string             `json:"job_id"`
	Status       Status             `json:"status"`
	Pair         interfaces.PairKey `json:"pair"`
	Subsystem    interfaces.Address `json:"subsystem"`
	FeeForwarded *big.Int           `json:"fee_forwarded,omitempty"`
	Refunded     *big.Int           `json:"refunded,omitempty"`
}

// Dependencies are the collaborators of a Workflow. Recorder may be nil.
type Dependencies struct {
	Registry   Registry
	Deployer   Deployer
	Issuer     interfaces.IssuingAuthority
	Routers    interfaces.RouterFactory
	Subsystems interfaces.SubsystemFactory
	Treasury   interfaces.Treasury
	Recorder   Recorder
}

// Workflow is the provisioning state machine.
type Workflow struct {
	deps    Dependencies
	pending *PendingStore
	budget  time.Duration
	now     func() time.Time
	log     *slog.Logger
}

// NewWorkflow creates a workflow. A zero budget selects DefaultIssuanceBudget.
func NewWorkflow(deps Dependencies, pending *PendingStore, budget time.Duration, log *slog.Logger) *Workflow {
	if budget <= 0 {
		budget = DefaultIssuanceBudget
	}
	if pending == nil {
		pending = NewPendingStore()
	}
	return &Workflow{
		deps:    deps,
		pending: pending,
		budget:  budget,
		now:     time.Now,
		log:     log,
	}
}

// Pending returns the store of contexts awaiting their callback.
func (w *Workflow) Pending() *PendingStore {
	return w.pending
}

// Start validates the request and sends the issuance request. It returns the job id
// the issuing authority's callback must carry.
//
// Validation failures and an explicit rejection by the authority leave nothing pending.
// Any other failure to send returns the job id together with ErrIssuanceUnconfirmed
// and keeps the job pending.
func (w *Workflow) Start(ctx context.Context, caller interfaces.Address, req Request, funds interfaces.Payment) (jobID string, err error) {
	defer func() {
		if w.deps.Recorder != nil {
			w.deps.Recorder.ProvisioningStarted(err)
		}
	}()

	cfg := w.deps.Registry.Config()
	if !cfg.Active {
		return "", interfaces.ErrSystemPaused
	}
	if cfg.NewAssetFee != nil {
		if !funds.IsNative() || funds.Amount == nil || funds.Amount.Cmp(cfg.NewAssetFee) != 0 {
			return "", interfaces.ErrFeeMismatch
		}
	}
	if cfg.TokenSupply == nil || cfg.TokenSupply.Sign() == 0 {
		return "", interfaces.ErrSupplyUnset
	}
	if err := w.checkBudget(ctx); err != nil {
		return "", err
	}
	if req.DisplayName == "" || req.Ticker == "" {
		return "", fmt.Errorf("%w: display name and ticker are required", interfaces.ErrInvalidArgument)
	}

	pc := Context{
		JobID:         uuid.NewString(),
		Caller:        caller,
		DisplayName:   req.DisplayName,
		Ticker:        req.Ticker,
		CorrelationID: req.CorrelationID,
		BuyIn:         req.BuyIn,
		Funds:         copyPayment(funds),
		PaymentTx:     req.PaymentTx,
		CreatedAt:     w.now().UTC(),
	}
	if err := w.pending.Put(pc); err != nil {
		return "", err
	}

	issuance := interfaces.IssuanceRequest{
		JobID:       pc.JobID,
		Cost:        cfg.IssuanceCost,
		DisplayName: req.DisplayName,
		Ticker:      req.Ticker,
		Supply:      cfg.TokenSupply,
		Properties:  interfaces.FixedSupplyProperties(),
		GasLimit:    interfaces.IssuanceGasLimit,
	}
	if err := w.deps.Issuer.RequestIssuance(ctx, issuance); err != nil {
		if errors.Is(err, interfaces.ErrIssuanceRejected) {
			w.pending.Take(pc.JobID)
			return "", fmt.Errorf("failed to request issuance: %w", err)
		}
		// The authority may still have accepted the request, so its callback must find the job.
		w.log.Warn("Issuance request unconfirmed, job kept pending", "err", err, slog.String("jobID", pc.JobID))
		return pc.JobID, fmt.Errorf("%w: %w", interfaces.ErrIssuanceUnconfirmed, err)
	}

	w.log.Info("Issuance requested",
		slog.String("jobID", pc.JobID),
		slog.String("ticker", pc.Ticker),
		slog.String("caller", caller.String()),
		slog.String("dbID", pc.CorrelationID))
	return pc.JobID, nil
}

func (w *Workflow) checkBudget(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	if remaining := deadline.Sub(w.now()); remaining < w.budget {
		return fmt.Errorf("%w: %s remaining, %s required", interfaces.ErrInsufficientResources, remaining.Round(time.Millisecond), w.budget)
	}
	return nil
}

// Complete resumes the job named by result. The pending context is taken first, so a
// repeated callback for a finished job fails with ErrUnknownJob.
//
// When a step fails that a redelivered callback can finish (deployment, hand-over of
// the asset, fee forwarding or the refund), the context is put back together with the
// progress made so far.
func (w *Workflow) Complete(ctx context.Context, result interfaces.IssuanceResult) (outcome *Outcome, err error) {
	pc, ok := w.pending.Take(result.JobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnknownJob, result.JobID)
	}

	log := w.log.With(slog.String("jobID", pc.JobID), slog.String("ticker", pc.Ticker))
	defer func() {
		if w.deps.Recorder != nil {
			status := StatusFailed
			if outcome != nil {
				status = outcome.Status
			}
			w.deps.Recorder.ProvisioningCompleted(status, err)
		}
	}()

	var keep bool
	switch {
	case result.Success:
		outcome, keep, err = w.provision(ctx, &pc, result.Returned, log)
	case !pc.Subsystem.IsZero():
		keep = true
		err = fmt.Errorf("%w: job %s already deployed %s", interfaces.ErrInvalidIssuanceResult, pc.JobID, pc.Subsystem)
	default:
		outcome, keep, err = w.refund(ctx, pc, result, log)
	}
	if err != nil && keep {
		w.retain(pc, log)
	}
	return outcome, err
}

// provision runs the success branch. It skips the steps pc records as done and
// reports whether a failure can be retried from pc.
func (w *Workflow) provision(ctx context.Context, pc *Context, issued interfaces.Payment, log *slog.Logger) (*Outcome, bool, error) {
	if issued.IsNative() || !issued.Asset.IsValid() {
		return nil, !pc.Subsystem.IsZero(), fmt.Errorf("%w: issued asset %q", interfaces.ErrInvalidIssuanceResult, issued.Asset)
	}

	cfg := w.deps.Registry.Config()

	if pc.Subsystem.IsZero() {
		args, err := w.deps.Deployer.BuildInitArgs(pc.CorrelationID)
		if err != nil {
			return nil, true, err
		}
		addr, err := w.deps.Deployer.DeployNew(ctx, args)
		if err != nil {
			log.Error("Failed to deploy sub-system", "err", err)
			return nil, true, err
		}
		pc.Subsystem = addr
		w.registerPendingPair(ctx, cfg.RouterAddress, addr, log.With(slog.String("subsystem", addr.String())))
	}

	addr := pc.Subsystem
	log = log.With(slog.String("subsystem", addr.String()))
	key := interfaces.PairKey{First: issued.Asset, Second: cfg.AllowedQuoteAsset}

	if !pc.AssetForwarded {
		if err := w.deps.Registry.InsertPair(key, addr); err != nil {
			log.Error("Deployed sub-system could not be registered", "err", err)
			return nil, false, fmt.Errorf("sub-system %s deployed but not registered: %w", addr, err)
		}
		if err := w.forwardAsset(ctx, *pc, issued); err != nil {
			log.Error("Failed to hand over issued asset", "err", err)
			if rerr := w.deps.Registry.RemovePair(key, addr); rerr != nil {
				log.Error("Failed to unregister sub-system", "err", rerr)
			}
			return nil, true, err
		}
		pc.AssetForwarded = true
	}

	outcome := &Outcome{
		JobID:     pc.JobID,
		Status:    StatusProvisioned,
		Pair:      key,
		Subsystem: addr,
	}

	if remaining := remainingFee(cfg.NewAssetFee, cfg.IssuanceCost); remaining.Sign() > 0 {
		if err := w.deps.Treasury.Send(ctx, cfg.FeesCollector, remaining); err != nil {
			log.Error("Failed to forward remaining fee", "err", err, "amount", remaining.String())
			return nil, true, fmt.Errorf("failed to forward fee to %s: %w", cfg.FeesCollector, err)
		}
		outcome.FeeForwarded = remaining
	}

	log.Info("Sub-system provisioned", slog.String("pair", key.String()))
	return outcome, false, nil
}

func (w *Workflow) forwardAsset(ctx context.Context, pc Context, issued interfaces.Payment) error {
	subsystem, err := w.deps.Subsystems.SubsystemFor(pc.Subsystem)
	if err != nil {
		return err
	}
	if err := subsystem.SetAssetIdentifier(ctx, issued, pc.BuyIn, pc.Caller); err != nil {
		return fmt.Errorf("failed to set asset identifier on %s: %w", pc.Subsystem, err)
	}
	return nil
}

func (w *Workflow) retain(pc Context, log *slog.Logger) {
	if err := w.pending.Put(pc); err != nil {
		log.Error("Failed to keep job pending", "err", err)
		return
	}
	log.Warn("Job kept pending for redelivery",
		slog.String("subsystem", pc.Subsystem.String()),
		slog.Bool("assetForwarded", pc.AssetForwarded))
}

// registerPendingPair notifies the router of the new sub-system. The call is
// fire-and-forget: its result does not affect the workflow.
func (w *Workflow) registerPendingPair(ctx context.Context, routerAddr, pair interfaces.Address, log *slog.Logger) {
	router, err := w.deps.Routers.RouterFor(routerAddr)
	if err == nil {
		err = router.SetPendingPair(ctx, pair)
	}
	if err != nil {
		log.Warn("Router did not accept pending pair", "err", err, slog.String("router", routerAddr.String()))
	}
}

func (w *Workflow) refund(ctx context.Context, pc Context, result interfaces.IssuanceResult, log *slog.Logger) (*Outcome, bool, error) {
	outcome := &Outcome{JobID: pc.JobID, Status: StatusFailed}

	fee := w.deps.Registry.Config().NewAssetFee
	if !result.Returned.IsNative() || result.Returned.IsZero() || fee == nil || fee.Sign() <= 0 {
		log.Warn("Issuance failed without refund", slog.String("reason", result.Reason))
		return outcome, false, nil
	}

	// The configured fee is refunded, not the returned amount.
	if err := w.deps.Treasury.Send(ctx, pc.Caller, fee); err != nil {
		log.Error("Failed to refund caller", "err", err, slog.String("caller", pc.Caller.String()))
		return nil, true, fmt.Errorf("failed to refund %s: %w", pc.Caller, err)
	}

	outcome.Status = StatusRefunded
	outcome.Refunded = new(big.Int).Set(fee)
	log.Info("Issuance failed, caller refunded",
		slog.String("caller", pc.Caller.String()),
		slog.String("amount", fee.String()),
		slog.String("returned", result.Returned.Amount.String()),
		slog.String("reason", result.Reason))
	return outcome, false, nil
}

func remainingFee(fee, cost *big.Int) *big.Int {
	remaining := new(big.Int)
	if fee != nil {
		remaining.Set(fee)
	}
	if cost != nil {
		remaining.Sub(remaining, cost)
	}
	return remaining
}

func copyPayment(p interfaces.Payment) interfaces.Payment {
	if p.Amount != nil {
		p.Amount = new(big.Int).Set(p.Amount)
	}
	return p
}
