// Package admin routes administrative commands either to the factory's own
// state or to a registered bonding sub-system.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

// Registry is the subset of the pair registry the gateway consults and mutates.
type Registry interface {
	IsPairSubsystem(addr interfaces.Address) bool
	Consistent() bool
	SetActive(active bool)
	SetRouterAddress(addr interfaces.Address) error
}

// Recorder receives one observation per dispatched command.
type Recorder interface {
	AdminCommand(command string, local bool, err error)
}

// Gateway dispatches pause, resume and router updates. A command targeting the
// factory's own address mutates local configuration; any other target must be a
// registered sub-system and receives the equivalent remote command.
type Gateway struct {
	self       interfaces.Address
	registry   Registry
	subsystems interfaces.SubsystemFactory
	recorder   Recorder
	log        *slog.Logger
}

// NewGateway creates a gateway for the factory at self. recorder may be nil.
func NewGateway(self interfaces.Address, registry Registry, subsystems interfaces.SubsystemFactory, recorder Recorder, log *slog.Logger) *Gateway {
	return &Gateway{
		self:       self,
		registry:   registry,
		subsystems: subsystems,
		recorder:   recorder,
		log:        log,
	}
}

// Self returns the address commands must target to act on the factory itself.
func (g *Gateway) Self() interfaces.Address {
	return g.self
}

// Pause deactivates the factory, or forwards a pause to a registered sub-system.
func (g *Gateway) Pause(ctx context.Context, target interfaces.Address) (err error) {
	defer func() { g.record("pause", target, err) }()

	if target == g.self {
		g.registry.SetActive(false)
		g.log.Info("Factory paused")
		return nil
	}

	subsystem, err := g.subsystem(target)
	if err != nil {
		return err
	}
	if err := subsystem.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause sub-system %s: %w", target, err)
	}
	return nil
}

// Resume activates the factory if the registry indexes agree, or forwards a
// resume to a registered sub-system.
func (g *Gateway) Resume(ctx context.Context, target interfaces.Address) (err error) {
	defer func() { g.record("resume", target, err) }()

	if target == g.self {
		if !g.registry.Consistent() {
			return interfaces.ErrRegistryInconsistent
		}
		g.registry.SetActive(true)
		g.log.Info("Factory resumed")
		return nil
	}

	subsystem, err := g.subsystem(target)
	if err != nil {
		return err
	}
	if err := subsystem.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume sub-system %s: %w", target, err)
	}
	return nil
}

// SetRouter replaces the configured router address, or forwards the new router
// to a registered sub-system.
func (g *Gateway) SetRouter(ctx context.Context, target interfaces.Address, router interfaces.Address) (err error) {
	defer func() { g.record("set_router", target, err) }()

	if target == g.self {
		if err := g.registry.SetRouterAddress(router); err != nil {
			return err
		}
		g.log.Info("Router address updated", slog.String("router", router.String()))
		return nil
	}

	subsystem, err := g.subsystem(target)
	if err != nil {
		return err
	}
	if err := subsystem.SetRouter(ctx, router); err != nil {
		return fmt.Errorf("failed to set router on sub-system %s: %w", target, err)
	}
	return nil
}

func (g *Gateway) subsystem(target interfaces.Address) (interfaces.Subsystem, error) {
	if !g.registry.IsPairSubsystem(target) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrUnauthorizedTarget, target)
	}
	return g.subsystems.SubsystemFor(target)
}

func (g *Gateway) record(command string, target interfaces.Address, err error) {
	local := target == g.self
	if g.recorder != nil {
		g.recorder.AdminCommand(command, local, err)
	}
	if err != nil {
		g.log.Warn("Admin command failed",
			slog.String("command", command),
			slog.String("target", target.String()),
			"err", err)
	}
}
