package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/bonding-factory-backend/api/clients"
	"github.com/ruteri/bonding-factory-backend/cmd/flags"
	"github.com/ruteri/bonding-factory-backend/factory"
	"github.com/ruteri/bonding-factory-backend/interfaces"
)

const usage = "Query and administer a running factoryd"

var flagTarget = &cli.StringFlag{
	Name:     "target",
	Required: true,
	Usage:    "address of the factory itself or of a registered sub-system",
}

func main() {
	app := &cli.App{
		Name:  "factoryctl",
		Usage: usage,
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flags.CallerFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "print the factory configuration and active flag",
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					cfg, err := c.Config(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(cfg)
				}),
			},
			{
				Name:  "pairs",
				Usage: "list registered pairs",
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					pairs, err := c.Pairs(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(pairs)
				}),
			},
			{
				Name:  "pairs-data",
				Usage: "query every registered sub-system for its pair data",
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					data, err := c.PairsData(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(data)
				}),
			},
			{
				Name:  "jobs",
				Usage: "list provisioning jobs awaiting their issuance result",
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					jobs, err := c.Jobs(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(jobs)
				}),
			},
			{
				Name:  "init",
				Usage: "initialize the factory from a TOML parameter file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "params", Required: true, Usage: "TOML file with initialization parameters"},
				},
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					raw, err := factory.LoadRawInitParams(cCtx.String("params"))
					if err != nil {
						return err
					}
					if _, err := raw.Parse(); err != nil {
						return err
					}
					return c.Initialize(cCtx.Context, raw)
				}),
			},
			{
				Name:  "pause",
				Usage: "pause the factory or a sub-system",
				Flags: []cli.Flag{flagTarget},
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					target, err := flags.Address(cCtx, flagTarget.Name)
					if err != nil {
						return err
					}
					return c.Pause(cCtx.Context, target)
				}),
			},
			{
				Name:  "resume",
				Usage: "resume the factory or a sub-system",
				Flags: []cli.Flag{flagTarget},
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					target, err := flags.Address(cCtx, flagTarget.Name)
					if err != nil {
						return err
					}
					return c.Resume(cCtx.Context, target)
				}),
			},
			{
				Name:  "set-router",
				Usage: "set the router of the factory or a sub-system",
				Flags: []cli.Flag{
					flagTarget,
					&cli.StringFlag{Name: "router", Required: true, Usage: "router address"},
				},
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					target, err := flags.Address(cCtx, flagTarget.Name)
					if err != nil {
						return err
					}
					router, err := flags.Address(cCtx, "router")
					if err != nil {
						return err
					}
					return c.SetRouter(cCtx.Context, target, router)
				}),
			},
			{
				Name:  "upgrade-pair",
				Usage: "re-initialize the sub-system of a pair with the current configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first", Required: true, Usage: "first asset id"},
					&cli.StringFlag{Name: "second", Required: true, Usage: "second asset id"},
				},
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					return c.UpgradePair(cCtx.Context,
						interfaces.AssetID(cCtx.String("first")),
						interfaces.AssetID(cCtx.String("second")))
				}),
			},
			{
				Name:  "upgrade",
				Usage: "mark the factory upgraded; it stays paused until resumed",
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					return c.Upgrade(cCtx.Context)
				}),
			},
			{
				Name:      "set-config",
				Usage:     "set one configuration field",
				ArgsUsage: "<field> <value>",
				Description: "fields: fees_collector, template_address, initial_virtual_liquidity, " +
					"token_supply, new_asset_fee, max_market_cap",
				Action: withClient(func(cCtx *cli.Context, c *clients.FactoryClient) error {
					if cCtx.NArg() != 2 {
						return fmt.Errorf("expected <field> <value>, got %d arguments", cCtx.NArg())
					}
					return c.SetConfig(cCtx.Context, cCtx.Args().Get(0), cCtx.Args().Get(1))
				}),
			},
		},
	}

	if err := flags.LoadEnvFile(); err != nil {
		log.Fatal(err)
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withClient(action func(*cli.Context, *clients.FactoryClient) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		c := &clients.FactoryClient{ServerAddr: cCtx.String(flags.ServerAddrFlag.Name)}
		if raw := cCtx.String(flags.CallerFlag.Name); raw != "" {
			caller, err := interfaces.NewAddressFromHex(raw)
			if err != nil {
				return fmt.Errorf("could not parse caller address: %w", err)
			}
			c.Caller = caller
		}
		return action(cCtx, c)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
