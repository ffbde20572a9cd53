package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/provisioning"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// State is the persisted snapshot of everything the factory must survive a restart with.
type State struct {
	Registry registry.Snapshot     `json:"registry"`
	Pending  []provisioning.Context `json:"pending"`

	// SpentPayments are the payment references that already funded a job.
	SpentPayments []string `json:"spent_payments,omitempty"`
}

// Snapshot returns the current state.
func (f *Factory) Snapshot() State {
	return State{
		Registry: f.registry.Export(),
		Pending:  f.workflow.Pending().List(),

		SpentPayments: f.payments.list(),
	}
}

// Restore replaces the registry, the pending jobs and the spent payments with s.
func (f *Factory) Restore(s State) error {
	if err := f.registry.Restore(s.Registry); err != nil {
		return err
	}
	f.workflow.Pending().Restore(s.Pending)
	f.payments.restore(s.SpentPayments)
	f.updateGauges()
	return nil
}

// Load restores the last saved state. A store with nothing saved yet leaves the factory fresh.
func (f *Factory) Load(ctx context.Context) error {
	if f.store == nil {
		return nil
	}

	data, err := f.store.Load(ctx)
	if errors.Is(err, interfaces.ErrStateNotFound) {
		f.log.Info("No saved state, starting fresh", slog.String("store", f.store.Name()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load state from %s: %w", f.store.Name(), err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode state from %s: %w", f.store.Name(), err)
	}
	if err := f.Restore(s); err != nil {
		return err
	}

	f.log.Info("Restored state",
		slog.String("store", f.store.Name()),
		slog.Int("pairs", len(s.Registry.Pairs)),
		slog.Int("pending", len(s.Pending)))
	return nil
}

// save persists the current state. A failed save is logged and counted but never fails the
// operation that triggered it: the in-memory state is authoritative.
func (f *Factory) save(ctx context.Context) {
	f.updateGauges()
	if f.store == nil {
		return
	}

	f.saveMu.Lock()
	defer f.saveMu.Unlock()

	data, err := json.Marshal(f.Snapshot())
	if err == nil {
		err = f.store.Save(ctx, data)
	}
	if err != nil {
		f.log.Error("Failed to save state", "err", err, slog.String("store", f.store.Name()))
	}
	if f.metrics != nil {
		f.metrics.StateSaved(err)
	}
}

func (f *Factory) updateGauges() {
	if f.metrics == nil {
		return
	}
	pairs, _ := f.registry.Len()
	f.metrics.SetRegistrySize(pairs, f.workflow.Pending().Len())
}
