/*
Package rpcasync presents ledger operations used by the ratings tooling as
operations returning a Future.

Only the operations listed in Client are asynchronous. Accessors of the local
state (sender account, contract hash) stay synchronous and have no Future
twins.
*/
package rpcasync

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/neorpc"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// RPC is a subset of RPC client methods queried by Client.
type RPC interface {
	GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error)
	GetBlockCount() (uint32, error)
}

// Actor is a subset of [actor.Actor] methods used by Client.
type Actor interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	Sender() util.Uint160
}

// Sent describes a transaction accepted by the RPC node.
type Sent struct {
	Hash            util.Uint256
	ValidUntilBlock uint32
}

// Prm groups parameters of New.
type Prm struct {
	RPC      RPC
	Actor    Actor
	Contract util.Uint160

	Logger *zap.Logger
}

// Client exposes asynchronous ledger operations bound to a single contract.
type Client struct {
	rpc      RPC
	actor    Actor
	contract util.Uint160
	log      *zap.Logger
}

// New constructs Client from the given parameters.
func New(prm Prm) *Client {
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	return &Client{
		rpc:      prm.RPC,
		actor:    prm.Actor,
		contract: prm.Contract,
		log:      prm.Logger,
	}
}

// Sender returns account the transactions are sent from.
func (c *Client) Sender() util.Uint160 {
	return c.actor.Sender()
}

// Contract returns hash of the contract the client is bound to.
func (c *Client) Contract() util.Uint160 {
	return c.contract
}

// ReceiptAsync requests application log of the transaction. The future
// resolves with nil log if the transaction isn't persisted yet.
func (c *Client) ReceiptAsync(ctx context.Context, h util.Uint256) *Future[*result.ApplicationLog] {
	return Go(ctx, func(context.Context) (*result.ApplicationLog, error) {
		res, err := c.rpc.GetApplicationLog(h, nil)
		if err != nil {
			if isUnknown(err) {
				c.log.Debug("receipt is not available yet", zap.Stringer("tx", h))
				return nil, nil
			}
			return nil, err
		}
		return res, nil
	})
}

// BlockCountAsync requests the number of blocks in the chain.
func (c *Client) BlockCountAsync(ctx context.Context) *Future[uint32] {
	return Go(ctx, func(context.Context) (uint32, error) {
		return c.rpc.GetBlockCount()
	})
}

// BalanceAsync requests GAS balance of the account.
func (c *Client) BalanceAsync(ctx context.Context, account util.Uint160) *Future[*big.Int] {
	return Go(ctx, func(context.Context) (*big.Int, error) {
		return gas.NewReader(c.actor).BalanceOf(account)
	})
}

// CallAsync performs test invocation of the contract method. Parameters are
// passed to the contract as is.
func (c *Client) CallAsync(ctx context.Context, method string, params ...any) *Future[*result.Invoke] {
	return Go(ctx, func(context.Context) (*result.Invoke, error) {
		return c.actor.Call(c.contract, method, params...)
	})
}

// SendAsync sends transaction invoking the contract method. Parameters are
// passed to the contract as is.
func (c *Client) SendAsync(ctx context.Context, method string, params ...any) *Future[Sent] {
	return Go(ctx, func(context.Context) (Sent, error) {
		h, vub, err := c.actor.SendCall(c.contract, method, params...)
		if err != nil {
			return Sent{}, err
		}

		c.log.Debug("transaction sent",
			zap.String("method", method),
			zap.Stringer("tx", h),
			zap.Uint32("vub", vub))

		return Sent{Hash: h, ValidUntilBlock: vub}, nil
	})
}

// isUnknown checks whether err is returned by the node for a transaction it
// has not persisted. Nodes without the dedicated error codes are recognized
// by the message.
func isUnknown(err error) bool {
	return errors.Is(err, neorpc.ErrUnknownScriptContainer) ||
		errors.Is(err, neorpc.ErrUnknownTransaction) ||
		strings.Contains(strings.ToLower(err.Error()), "unknown")
}
