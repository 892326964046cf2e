package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

// ErrWitnessFailed is thrown when the account required by the method has not
// signed the transaction.
const ErrWitnessFailed = "witness check failed"

// CheckWitness panics with ErrWitnessFailed if the account has not signed the
// transaction.
func CheckWitness(account []byte) {
	if !runtime.CheckWitness(account) {
		panic(ErrWitnessFailed)
	}
}
