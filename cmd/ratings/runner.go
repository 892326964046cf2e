package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/session"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// runner executes commands of the application.
type runner struct {
	ctx   context.Context
	log   *zap.Logger
	level zap.AtomicLevel
}

// config loads configuration file and applies global flag overrides.
func (r *runner) config(c *cli.Context) (session.Config, error) {
	cfg, err := session.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return cfg, err
	}

	if v := c.GlobalString("rpc"); v != "" {
		cfg.RPC.Endpoint = v
	}
	if v := c.GlobalString("contract"); v != "" {
		cfg.Contract = v
	}
	if v := c.GlobalString("wallet"); v != "" {
		cfg.Wallet.Path = v
	}
	if v := c.GlobalString("address"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := c.GlobalString("password"); v != "" {
		cfg.Wallet.Password = v
	}

	return cfg, nil
}

func (r *runner) open(c *cli.Context) (*session.Session, error) {
	cfg, err := r.config(c)
	if err != nil {
		return nil, err
	}

	return session.Open(r.ctx, cfg, r.log)
}

// parseKey parses request key in LE with optional 0x prefix.
func parseKey(s string) (util.Uint256, error) {
	if s == "" {
		return util.Uint256{}, errors.New("missing request key")
	}

	key, err := util.Uint256DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint256{}, fmt.Errorf("invalid request key %q: %w", s, err)
	}

	return key, nil
}

// parseGAS parses decimal GAS amount into GAS fractions.
func parseGAS(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("missing GAS amount")
	}

	v, err := fixedn.FromString(s, eventsync.GASPrecision)
	if err != nil {
		return nil, fmt.Errorf("invalid GAS amount %q: %w", s, err)
	}

	return v, nil
}

// parseDeadline accepts unix timestamp in seconds or RFC3339 time.
func parseDeadline(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("missing deadline")
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid deadline %q: neither unix timestamp nor RFC3339 time", s)
	}

	return t.Unix(), nil
}
