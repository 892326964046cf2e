package tests

import (
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core"
	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

func iteratorToArray(iter *storage.Iterator) []stackitem.Item {
	stackItems := make([]stackitem.Item, 0)
	for iter.Next() {
		stackItems = append(stackItems, iter.Value())
	}
	return stackItems
}

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

// ledger serves local blockchain the way RPC node does.
type ledger struct {
	bc *core.Blockchain
}

func (l ledger) GetBlockCount() (uint32, error) {
	return l.bc.BlockHeight() + 1, nil
}

func (l ledger) GetBlockByIndex(index uint32) (*block.Block, error) {
	return l.bc.GetBlock(l.bc.GetHeaderHash(index))
}

func (l ledger) GetApplicationLog(h util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error) {
	aers, err := l.bc.GetAppExecResults(h, trigger.All)
	if err != nil {
		return nil, err
	}

	res := &result.ApplicationLog{Container: h, IsTransaction: true}
	for i := range aers {
		if trig == nil || aers[i].Trigger&*trig != 0 {
			res.Executions = append(res.Executions, aers[i].Execution)
		}
	}

	return res, nil
}
