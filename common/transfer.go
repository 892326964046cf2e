package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/util"
)

// ErrTransferFailed is thrown when GAS can't be sent from the contract account.
const ErrTransferFailed = "GAS transfer failed"

// TransferGAS sends amount of GAS from the executing contract account to the
// given one. Zero amount is a no-op. It panics with ErrTransferFailed if native
// GAS contract refuses the transfer.
func TransferGAS(to interop.Hash160, amount int, data any) {
	if amount == 0 {
		return
	}

	if !gas.Transfer(runtime.GetExecutingScriptHash(), to, amount, data) {
		panic(ErrTransferFailed)
	}
}

// AbortWithMessage calls `runtime.Log` with passed message
// and calls `ABORT` opcode.
func AbortWithMessage(msg string) {
	runtime.Log(msg)
	util.Abort()
}
