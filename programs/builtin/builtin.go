// Package builtin wires every program into a runtime.
package builtin

import (
	"mintgate/engine/runtime"
	"mintgate/programs/associatedtoken"
	"mintgate/programs/metadata"
	"mintgate/programs/mintauth"
	"mintgate/programs/paymentgate"
	"mintgate/programs/system"
	"mintgate/programs/token"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

func Programs() []runtime.Program {
	return []runtime.Program{
		system.Program{},
		token.Program{},
		associatedtoken.Program{},
		metadata.Program{},
		mintauth.Program{},
		paymentgate.Program{},
	}
}

// NewRuntime returns a runtime over ledger with every program registered.
func NewRuntime(ledger *accounts.DB, processed *replay.DB) *runtime.Runtime {
	return runtime.New(ledger, processed, Programs()...)
}
