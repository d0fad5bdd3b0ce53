package runtime

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
)

var (
	ErrNotEnoughAccountKeys    = errors.New("insufficient account keys for instruction")
	ErrMissingAccount          = errors.New("an account required by the instruction is missing")
	ErrPrivilegeEscalation     = errors.New("cross-program invocation with unauthorized signer or writable account")
	ErrCallDepth               = errors.New("cross-program invocation call depth too deep")
	ErrUnknownProgram          = errors.New("attempt to load a program that does not exist")
	ErrExternalAccountModified = errors.New("instruction modified data or debited lamports of an account it does not own")
	ErrReadonlyAccount         = errors.New("instruction modified a readonly account")
	ErrUnbalancedInstruction   = errors.New("sum of account balances before and after instruction do not match")
	ErrInvalidSysvar           = errors.New("invalid instructions sysvar account")
	ErrInstructionIndex        = errors.New("instruction index out of range")
	ErrAlreadyProcessed        = errors.New("this transaction has already been processed")
	ErrSignatureFailure        = errors.New("transaction did not pass signature verification")
	ErrEmptyTransaction        = errors.New("transaction contains no instructions")
)

// InstructionError attributes a failed transaction to the top-level
// instruction that aborted it.
type InstructionError struct {
	Index   int
	Program common.PublicKey
	Err     error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %s", e.Index, e.Program.ToBase58(), e.Err.Error())
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}
