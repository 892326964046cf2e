/*
Package deploy synchronizes Ratings contract with the Neo network.

Deploy makes the on-chain contract match the local one: the contract is
deployed if it's missing, updated if its NEF differs and left untouched
otherwise. So Deploy may be called any number of times.
*/
package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/ratingsmarket/ratings-contract/contracts"
	"github.com/ratingsmarket/ratings-contract/poller"
	"github.com/ratingsmarket/ratings-contract/rpc/ratings"
	"github.com/ratingsmarket/ratings-contract/rpcasync"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to the
	// blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)

	// GetApplicationLog returns execution results of the persisted transaction.
	GetApplicationLog(util.Uint256, *trigger.Type) (*result.ApplicationLog, error)
}

// Prm groups all parameters of the deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// The contract address depends on it. Updates require it to be the
	// committee account.
	LocalAccount *wallet.Account

	// Compiled contract.
	Contract contracts.Contract

	// Address of the already deployed contract. Contract address is derived
	// from the NEF checksum of the first deployment, so it must be set to
	// update the contract. If nil, it's calculated from the local contract.
	Address *util.Uint160

	// Transaction waiting parameters.
	Poller poller.Prm
}

// Deploy synchronizes Ratings contract with the chain and returns its
// address.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	// wrap the parent context into the context of the current function so that
	// transaction wait routines do not leak
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}
	if prm.Poller.Logger == nil {
		prm.Poller.Logger = prm.Logger
	}

	act, err := actor.NewTuned(prm.Blockchain, []actor.SignerAccount{{
		Signer: transaction.Signer{
			Account: prm.LocalAccount.ScriptHash(),
			Scopes:  transaction.CalledByEntry,
		},
		Account: prm.LocalAccount,
	}}, actor.Options{
		CheckerModifier: runtimeTransactionModifier(func() uint32 {
			h, err := prm.Blockchain.GetBlockCount()
			if err != nil || h == 0 {
				return 0
			}
			return h - 1
		}),
	})
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	async := rpcasync.New(rpcasync.Prm{
		RPC:    prm.Blockchain,
		Actor:  act,
		Logger: prm.Logger,
	})

	return syncContract(ctx, syncContractPrm{
		logger:        prm.Logger,
		states:        prm.Blockchain,
		deployer:      management.New(act),
		updater:       func(addr util.Uint160) contractUpdater { return ratings.New(act, addr) },
		waiter:        poller.New(async, prm.Poller),
		sender:        act.Sender(),
		address:       prm.Address,
		localNEF:      prm.Contract.NEF,
		localManifest: prm.Contract.Manifest,
	})
}

// ContractStateGetter provides network state of the contracts.
type ContractStateGetter interface {
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

type contractDeployer interface {
	Deploy(exe *nef.File, manif *manifest.Manifest, data any) (util.Uint256, uint32, error)
}

type contractUpdater interface {
	Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error)
}

type txWaiter interface {
	WaitTx(ctx context.Context, tx poller.Tx) (*result.ApplicationLog, error)
}

type syncContractPrm struct {
	logger *zap.Logger

	states   ContractStateGetter
	deployer contractDeployer
	updater  func(util.Uint160) contractUpdater
	waiter   txWaiter

	sender        util.Uint160
	address       *util.Uint160
	localNEF      nef.File
	localManifest manifest.Manifest
}

func syncContract(ctx context.Context, prm syncContractPrm) (util.Uint160, error) {
	addr := state.CreateContractHash(prm.sender, prm.localNEF.Checksum, prm.localManifest.Name)
	if prm.address != nil {
		addr = *prm.address
	}
	l := prm.logger.With(zap.String("contract", prm.localManifest.Name), zap.Stringer("address", addr))

	onChain, err := prm.states.GetContractStateByHash(addr)
	if err != nil {
		if !isErrContractNotFound(err) {
			return util.Uint160{}, fmt.Errorf("get contract state: %w", err)
		}

		l.Info("contract is missing on the chain, deploying...")

		h, vub, err := prm.deployer.Deploy(&prm.localNEF, &prm.localManifest, nil)
		if err != nil {
			return util.Uint160{}, fmt.Errorf("send deployment transaction: %w", err)
		}

		if err := waitHalt(ctx, prm.waiter, poller.Tx{Hash: h, ValidUntilBlock: vub}); err != nil {
			return util.Uint160{}, fmt.Errorf("deploy contract: %w", err)
		}

		l.Info("contract successfully deployed", zap.Stringer("tx", h))

		return addr, nil
	}

	if onChain.NEF.Checksum == prm.localNEF.Checksum {
		l.Info("contract is already up-to-date")
		return addr, nil
	}

	l.Info("on-chain contract differs from the local one, updating...",
		zap.Uint32("on-chain checksum", onChain.NEF.Checksum),
		zap.Uint32("local checksum", prm.localNEF.Checksum))

	bNEF, err := prm.localNEF.Bytes()
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode NEF: %w", err)
	}

	bManifest, err := json.Marshal(prm.localManifest)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode manifest: %w", err)
	}

	h, vub, err := prm.updater(addr).Update(bNEF, bManifest, nil)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("send update transaction: %w", err)
	}

	if err := waitHalt(ctx, prm.waiter, poller.Tx{Hash: h, ValidUntilBlock: vub}); err != nil {
		return util.Uint160{}, fmt.Errorf("update contract: %w", err)
	}

	l.Info("contract successfully updated", zap.Stringer("tx", h))

	return addr, nil
}

func waitHalt(ctx context.Context, w txWaiter, tx poller.Tx) error {
	log, err := w.WaitTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("wait for transaction %s: %w", tx.Hash.StringLE(), err)
	}

	return poller.CheckHalt(log)
}

// isErrContractNotFound checks whether the node reports a missing contract.
// Nodes without the dedicated error code are recognized by the message.
func isErrContractNotFound(err error) bool {
	return errors.Is(err, neorpc.ErrUnknownContract) ||
		strings.Contains(strings.ToLower(err.Error()), "unknown contract")
}

// returns actor.TransactionCheckerModifier which checks that invocation
// finished with 'HALT' state and, if so, sets transaction's nonce and
// ValidUntilBlock to 100*N and 100*(N+1) correspondingly, where
// 100*N <= current height < 100*(N+1). Repeated sending of the same
// transaction within the span produces the same hash.
func runtimeTransactionModifier(getBlockchainHeight func() uint32) actor.TransactionCheckerModifier {
	return func(r *result.Invoke, tx *transaction.Transaction) error {
		err := actor.DefaultCheckerModifier(r, tx)
		if err != nil {
			return err
		}

		curHeight := getBlockchainHeight()
		const span = 100
		n := curHeight / span

		tx.Nonce = n * span

		if math.MaxUint32-span > tx.Nonce {
			tx.ValidUntilBlock = tx.Nonce + span
		} else {
			tx.ValidUntilBlock = math.MaxUint32
		}

		return nil
	}
}
