package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// MultiStore replicates the snapshot across several stores.
type MultiStore struct {
	stores []interfaces.StateStore
	log    *slog.Logger
}

func NewMultiStore(stores []interfaces.StateStore, logger *slog.Logger) *MultiStore {
	return &MultiStore{
		stores: stores,
		log:    logger,
	}
}

// Load returns the snapshot from the first available store that holds one.
// Returns ErrStateNotFound only if every reachable store reports no snapshot.
func (m *MultiStore) Load(ctx context.Context) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", slog.String("store", store.Name()))
			errs = append(errs, fmt.Errorf("%s: unavailable", store.Name()))
			continue
		}

		data, err := store.Load(ctx)
		if err == nil {
			m.log.Info("Loaded state",
				slog.String("store", store.Name()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}
		if errors.Is(err, interfaces.ErrStateNotFound) {
			notFound++
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}

	if len(errs) == 0 && notFound > 0 {
		return nil, interfaces.ErrStateNotFound
	}
	return nil, fmt.Errorf("all stores failed to load state: %w", errors.Join(errs...))
}

// Save writes the snapshot to all available stores. It succeeds if at least one store accepted it.
func (m *MultiStore) Save(ctx context.Context, data []byte) error {
	var errs []error
	saved := 0

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", slog.String("store", store.Name()))
			errs = append(errs, fmt.Errorf("%s: unavailable", store.Name()))
			continue
		}
		if err := store.Save(ctx, data); err != nil {
			m.log.Warn("Failed to save state", slog.String("store", store.Name()), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			continue
		}
		saved++
	}

	if saved == 0 {
		return fmt.Errorf("all stores failed to save state: %w", errors.Join(errs...))
	}
	return nil
}

// Available checks if any store is available
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, store := range m.stores {
		if store.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStore) Name() string {
	return "multi-store"
}

func (m *MultiStore) LocationURI() string {
	var locations []string
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}
