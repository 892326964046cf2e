package poller

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
)

// ExecutionError describes transaction persisted with FAULT state.
type ExecutionError struct {
	Log       *result.ApplicationLog
	State     vmstate.State
	Exception string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transaction %s failed with %s: %s", e.Log.Container.StringLE(), e.State, e.Exception)
}

// CheckHalt returns *ExecutionError if any execution of the transaction
// hasn't finished with HALT state.
func CheckHalt(log *result.ApplicationLog) error {
	if log == nil {
		return errors.New("nil application log")
	}

	for _, ex := range log.Executions {
		if ex.VMState != vmstate.Halt {
			return &ExecutionError{
				Log:       log,
				State:     ex.VMState,
				Exception: ex.FaultException,
			}
		}
	}

	return nil
}
