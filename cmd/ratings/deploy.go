package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/contracts"
	"github.com/ratingsmarket/ratings-contract/deploy"
	"github.com/ratingsmarket/ratings-contract/poller"
	"github.com/ratingsmarket/ratings-contract/session"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func (r *runner) deploy(c *cli.Context) error {
	cfg, err := r.config(c)
	if err != nil {
		return err
	}

	if cfg.Wallet.Path == "" {
		return errors.New("wallet is required for deployment")
	}

	var addr *util.Uint160
	if c.Bool("update") {
		if cfg.Contract == "" {
			return errors.New("contract address is required for update")
		}

		h, err := session.ParseHash160(cfg.Contract)
		if err != nil {
			return fmt.Errorf("invalid contract address: %w", err)
		}
		addr = &h
	}

	ctr, err := contracts.ReadDir(c.String("dir"))
	if err != nil {
		return err
	}

	acc, err := session.OpenAccount(cfg.Wallet)
	if err != nil {
		return err
	}

	rpc, err := rpcclient.New(r.ctx, cfg.RPC.Endpoint, rpcclient.Options{
		DialTimeout:    cfg.RPC.DialTimeout,
		RequestTimeout: cfg.RPC.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("open RPC client: %w", err)
	}
	defer rpc.Close()

	if err := rpc.Init(); err != nil {
		return fmt.Errorf("init RPC client: %w", err)
	}

	h, err := deploy.Deploy(r.ctx, deploy.Prm{
		Logger:       r.log,
		Blockchain:   rpc,
		LocalAccount: acc,
		Contract:     ctr,
		Address:      addr,
		Poller: poller.Prm{
			Interval: cfg.Poller.Interval,
			Timeout:  cfg.Poller.Timeout,
		},
	})
	if err != nil {
		return err
	}

	r.log.Info("Ratings contract is on chain", zap.Stringer("address", h))
	fmt.Fprintf(os.Stdout, "%s (%s)\n", address.Uint160ToString(h), h.StringLE())

	return nil
}
