// Package deployer builds and issues deploy and upgrade requests for bonding
// sub-system instances from the configured template.
package deployer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/registry"
)

// ConfigSource provides the configuration snapshot init arguments are built from.
type ConfigSource interface {
	Config() registry.Config
}

// Deployer creates sub-system instances. It never retries: a deploy is an
// irreversible resource creation and retry policy belongs to the caller.
type Deployer struct {
	config  ConfigSource
	backend interfaces.TemplateBackend
	log     *slog.Logger
}

// NewDeployer creates a deployer reading configuration from config and issuing
// requests through backend.
func NewDeployer(config ConfigSource, backend interfaces.TemplateBackend, log *slog.Logger) *Deployer {
	return &Deployer{
		config:  config,
		backend: backend,
		log:     log,
	}
}

// BuildInitArgs assembles the sub-system init arguments from the current configuration.
// It fails with ErrConfigurationIncomplete if no template address is configured.
func (d *Deployer) BuildInitArgs(correlationID string) (*interfaces.InitArgs, error) {
	cfg := d.config.Config()
	if cfg.TemplateAddress.IsZero() {
		return nil, fmt.Errorf("%w: pair contract template is empty", interfaces.ErrConfigurationIncomplete)
	}

	return &interfaces.InitArgs{
		AllowedQuoteAsset:       cfg.AllowedQuoteAsset,
		FeesCollector:           cfg.FeesCollector,
		InitialVirtualLiquidity: cfg.InitialVirtualLiquidity,
		OracleAddress:           cfg.OracleAddress,
		MaxMarketCap:            cfg.MaxMarketCap,
		RouterAddress:           cfg.RouterAddress,
		IssuanceCost:            cfg.IssuanceCost,
		UnwrapHelper:            cfg.UnwrapHelper,
		FeeThreshold:            cfg.FeeThreshold,
		CorrelationID:           correlationID,
	}, nil
}

// DeployNew deploys a new sub-system from the template and returns its address.
func (d *Deployer) DeployNew(ctx context.Context, args *interfaces.InitArgs) (interfaces.Address, error) {
	template, err := d.template()
	if err != nil {
		return interfaces.Address{}, err
	}

	addr, err := d.backend.DeployFromTemplate(ctx, template, args)
	if err != nil {
		return interfaces.Address{}, fmt.Errorf("failed to deploy from template %s: %w", template, err)
	}

	d.log.Info("Deployed sub-system",
		slog.String("address", addr.String()),
		slog.String("template", template.String()),
		slog.String("correlationID", args.CorrelationID))
	return addr, nil
}

// UpgradeExisting re-initializes the sub-system at addr in place from the template.
func (d *Deployer) UpgradeExisting(ctx context.Context, addr interfaces.Address, args *interfaces.InitArgs) error {
	template, err := d.template()
	if err != nil {
		return err
	}

	if err := d.backend.UpgradeFromTemplate(ctx, addr, template, args); err != nil {
		return fmt.Errorf("failed to upgrade %s from template %s: %w", addr, template, err)
	}

	d.log.Info("Upgraded sub-system",
		slog.String("address", addr.String()),
		slog.String("template", template.String()))
	return nil
}

func (d *Deployer) template() (interfaces.Address, error) {
	template := d.config.Config().TemplateAddress
	if template.IsZero() {
		return interfaces.Address{}, fmt.Errorf("%w: pair contract template is empty", interfaces.ErrConfigurationIncomplete)
	}
	return template, nil
}
