package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ratingsmarket/ratings-contract/contracts"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	log, err := newLogger(level)
	if err != nil {
		os.Stderr.WriteString("init logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	r := &runner{ctx: ctx, log: log, level: level}

	err = newApp(r).Run(os.Args)
	_ = log.Sync()
	if err != nil {
		log.Error("command failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func newLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	return cfg.Build()
}

func newApp(r *runner) *cli.App {
	app := cli.NewApp()
	app.Name = "ratings"
	app.Usage = "Ratings marketplace client"
	app.Version = Version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Path to YAML configuration file",
			EnvVar: "RATINGS_CONFIG",
		},
		cli.StringFlag{
			Name:  "rpc, r",
			Usage: "Neo RPC endpoint, overrides configuration",
		},
		cli.StringFlag{
			Name:  "contract",
			Usage: "Ratings contract address or LE script hash, overrides configuration",
		},
		cli.StringFlag{
			Name:  "wallet, w",
			Usage: "Path to NEP-6 wallet, overrides configuration",
		},
		cli.StringFlag{
			Name:  "address, a",
			Usage: "Wallet account to sign transactions with",
		},
		cli.StringFlag{
			Name:   "password",
			Usage:  "Wallet account password",
			EnvVar: "RATINGS_WALLET_PASSWORD",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "Enable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			r.level.SetLevel(zapcore.DebugLevel)
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:   "list",
			Usage:  "Print all submitted requests for rating",
			Action: r.list,
		},
		{
			Name:  "follow",
			Usage: "Print submitted requests and keep following the chain",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "metrics",
					Usage: "Prometheus endpoint address, overrides configuration",
				},
			},
			Action: r.follow,
		},
		{
			Name:      "show",
			Usage:     "Print request for rating",
			ArgsUsage: "KEY",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "auditor",
					Usage: "Also print membership of the auditor",
				},
				cli.StringFlag{
					Name:  "contributor",
					Usage: "Also print total contribution of the account",
				},
			},
			Action: r.show,
		},
		{
			Name:  "submit",
			Usage: "Submit request for rating",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "name", Usage: "Project name"},
				cli.StringFlag{Name: "description", Usage: "Project description"},
				cli.StringFlag{Name: "code", Usage: "Project identifier code (e.g. token symbol)"},
				cli.StringFlag{Name: "url", Usage: "Project locator"},
				cli.StringFlag{Name: "deadline", Usage: "Deadline as unix timestamp or RFC3339 time"},
				cli.Int64Flag{Name: "auditors", Usage: "Maximum number of auditors", Value: 1},
				cli.StringFlag{Name: "pointer", Usage: "Content pointer (IPFS CIDv0)"},
				cli.StringFlag{Name: "value", Usage: "Initial reward in GAS"},
			},
			Action: r.submit,
		},
		{
			Name:      "contribute",
			Usage:     "Increase reward of the request",
			ArgsUsage: "KEY",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "value", Usage: "Amount of GAS"},
			},
			Action: r.contribute,
		},
		{
			Name:      "join",
			Usage:     "Join the request as an auditor",
			ArgsUsage: "KEY",
			Action:    r.join,
		},
		{
			Name:      "rate",
			Usage:     "Submit rating of the request",
			ArgsUsage: "KEY",
			Flags: []cli.Flag{
				cli.Int64Flag{Name: "rating", Usage: "Rating value from 0 to 100"},
				cli.StringFlag{Name: "pointer", Usage: "Analysis content pointer (IPFS CIDv0)"},
			},
			Action: r.rate,
		},
		{
			Name:      "payout",
			Usage:     "Distribute the reward between auditors",
			ArgsUsage: "KEY",
			Action:    r.payout,
		},
		{
			Name:      "refund",
			Usage:     "Return contributions to contributors",
			ArgsUsage: "KEY",
			Action:    r.refund,
		},
		{
			Name:   "balance",
			Usage:  "Print GAS balance of the wallet account",
			Action: r.balance,
		},
		{
			Name:  "deploy",
			Usage: "Deploy or update Ratings contract",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir",
					Usage: "Directory with compiled contract.nef and manifest.json",
					Value: contracts.RatingsDir,
				},
				cli.BoolFlag{
					Name:  "update",
					Usage: "Update contract configured with --contract instead of computing its address",
				},
			},
			Action: r.deploy,
		},
	}

	return app
}
