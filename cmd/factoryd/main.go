package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/bonding-factory-backend/api/clients"
	"github.com/ruteri/bonding-factory-backend/api/factoryhandler"
	"github.com/ruteri/bonding-factory-backend/api/servers"
	"github.com/ruteri/bonding-factory-backend/chain"
	"github.com/ruteri/bonding-factory-backend/cmd/flags"
	"github.com/ruteri/bonding-factory-backend/factory"
	"github.com/ruteri/bonding-factory-backend/interfaces"
	"github.com/ruteri/bonding-factory-backend/metrics"
	"github.com/ruteri/bonding-factory-backend/provisioning"
	"github.com/ruteri/bonding-factory-backend/storage"
)

var serverFlags = []cli.Flag{
	flags.RpcAddrFlag,
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:8080",
		Usage:   "address to listen on for API",
		EnvVars: []string{"FACTORY_LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:     "operator-key",
		Usage:    "hex encoded private key transactions are signed with",
		EnvVars:  []string{"FACTORY_OPERATOR_KEY"},
		Required: true,
	},
	&cli.StringFlag{
		Name:     "template-factory",
		Usage:    "address of the contract that deploys and upgrades sub-systems from a template",
		EnvVars:  []string{"FACTORY_TEMPLATE_FACTORY"},
		Required: true,
	},
	&cli.StringFlag{
		Name:    "self-address",
		Usage:   "address administrative commands target to act on the factory itself (defaults to the operator address)",
		EnvVars: []string{"FACTORY_SELF_ADDRESS"},
	},
	&cli.StringFlag{
		Name:     "issuer-url",
		Usage:    "base URL of the issuing authority",
		EnvVars:  []string{"FACTORY_ISSUER_URL"},
		Required: true,
	},
	&cli.StringFlag{
		Name:    "public-url",
		Value:   "http://127.0.0.1:8080",
		Usage:   "externally reachable base URL the issuing authority posts results to",
		EnvVars: []string{"FACTORY_PUBLIC_URL"},
	},
	&cli.StringFlag{
		Name:     "callback-token",
		Usage:    "shared secret the issuing authority must present with issuance results",
		EnvVars:  []string{"FACTORY_CALLBACK_TOKEN"},
		Required: true,
	},
	&cli.StringFlag{
		Name:    "owner",
		Usage:   "only address allowed to initialize the factory (defaults to the operator address)",
		EnvVars: []string{"FACTORY_OWNER"},
	},
	&cli.StringSliceFlag{
		Name:    "state",
		Usage:   "state store URI (file://, s3://, postgres://, vault://); repeat to replicate",
		EnvVars: []string{"FACTORY_STATE"},
	},
	&cli.StringFlag{
		Name:    "init-params",
		Usage:   "TOML file with initialization parameters applied on startup",
		EnvVars: []string{"FACTORY_INIT_PARAMS"},
	},
	&cli.DurationFlag{
		Name:  "issuance-budget",
		Value: provisioning.DefaultIssuanceBudget,
		Usage: "execution time that must remain before an issuance request is sent",
	},
}

func main() {
	app := &cli.App{
		Name:   "factoryd",
		Usage:  "Serve the bonding factory API",
		Flags:  append(serverFlags, flags.CommonFlags...),
		Action: runServer,
	}

	if err := flags.LoadEnvFile(); err != nil {
		log.Fatal(err)
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := cCtx.Context

	rpcAddress := cCtx.String(flags.RpcAddrFlag.Name)
	logger.Info("Connecting to Ethereum RPC", "address", rpcAddress)
	ethClient, err := ethclient.DialContext(ctx, rpcAddress)
	if err != nil {
		logger.Error("Failed to dial RPC", "err", err)
		return err
	}
	defer ethClient.Close()

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		logger.Error("Failed to query chain id", "err", err)
		return err
	}

	auth, err := chain.NewTransactOpts(cCtx.String("operator-key"), chainID)
	if err != nil {
		logger.Error("Failed to load operator key", "err", err)
		return err
	}
	backend := chain.NewBackend(ethClient, ethClient, logger)
	backend.SetTransactOpts(auth)

	templateFactory, err := flags.Address(cCtx, "template-factory")
	if err != nil {
		return fmt.Errorf("invalid template-factory: %w", err)
	}

	self := backend.From()
	if cCtx.IsSet("self-address") {
		if self, err = flags.Address(cCtx, "self-address"); err != nil {
			return fmt.Errorf("invalid self-address: %w", err)
		}
	}

	owner := backend.From()
	if cCtx.IsSet("owner") {
		if owner, err = flags.Address(cCtx, "owner"); err != nil {
			return fmt.Errorf("invalid owner: %w", err)
		}
	}

	var store interfaces.StateStore
	if uris := cCtx.StringSlice("state"); len(uris) > 0 {
		store, err = storage.NewStoreFactory(logger).CreateMultiStore(ctx, uris)
		if err != nil {
			logger.Error("Failed to create state store", "err", err)
			return err
		}
	} else {
		logger.Warn("No state store configured, state is kept in memory only")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := factory.New(factory.Config{
		Self:           self,
		IssuanceBudget: cCtx.Duration("issuance-budget"),
		Owner:          owner,
	}, factory.Dependencies{
		Issuer: &clients.IssuerClient{
			AuthorityURL:    cCtx.String("issuer-url"),
			CallbackBaseURL: cCtx.String("public-url"),
			HTTPClient:      &http.Client{Timeout: 30 * time.Second},
		},
		// Fees are paid to the operator account, which funds refunds and fee forwarding.
		Payments:   chain.NewPaymentVerifier(ethClient, chainID, backend.From()),
		Templates:  chain.NewTemplateDeployer(backend, templateFactory),
		Routers:    backend,
		Subsystems: backend,
		Treasury:   chain.NewNativeTreasury(backend),
		Store:      store,
		Metrics:    metrics.NewMetrics(reg),
	}, logger)

	if err := f.Load(ctx); err != nil {
		logger.Error("Failed to restore state", "err", err)
		return err
	}

	if path := cCtx.String("init-params"); path != "" {
		params, err := factory.LoadInitParams(path)
		if err != nil {
			logger.Error("Failed to load init params", "err", err)
			return err
		}
		caller := owner
		if cfg := f.Config(); cfg.Initialized {
			caller = cfg.Owner
		}
		if err := f.Initialize(ctx, caller, params); err != nil {
			logger.Error("Failed to initialize factory", "err", err)
			return err
		}
	}

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"), reg)
	server := servers.New(cfg, factoryhandler.NewHandler(f, cCtx.String("callback-token"), logger))

	logger.Info("Starting factory",
		"self", self.String(),
		"operator", backend.From().String(),
		"owner", owner.String(),
		"templateFactory", templateFactory.String())
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	return nil
}

