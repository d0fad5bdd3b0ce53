// Package associatedtoken creates the one holding account every wallet has
// per mint, at an address derived from (wallet, token program, mint).
package associatedtoken

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"mintgate/engine/actors"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/system"
	"mintgate/programs/token"
)

var (
	ErrInvalidSeeds        = errors.New("holding account address does not match the derived address")
	ErrInvalidInstruction  = errors.New("invalid associated token instruction")
	ErrIllegalOwner        = errors.New("existing holding account has a different owner or mint")
	ErrAccountAlreadyInUse = errors.New("holding account already exists")
)

const (
	create           byte = 0
	createIdempotent byte = 1
)

type Program struct{}

var _ runtime.Program = Program{}

func (Program) ID() common.PublicKey {
	return actors.AssociatedTokenProgramID
}

// Process expects [funder s w, holding w, owner, mint, system, token, ...].
func (Program) Process(ctx *runtime.Context, data []byte) error {
	mode := create
	if len(data) > 0 {
		mode = data[0]
	}
	if mode != create && mode != createIdempotent {
		return fmt.Errorf("%w: %d", ErrInvalidInstruction, mode)
	}
	keys, err := ctx.Keys(6)
	if err != nil {
		return err
	}
	funder, holding, owner, mint := keys[0], keys[1], keys[2], keys[3]
	derived, bump, err := pda.HoldingAccount(owner, mint)
	if err != nil {
		return err
	}
	if derived != holding {
		return fmt.Errorf("%w: want %s", ErrInvalidSeeds, derived.ToBase58())
	}
	existing, err := ctx.Load(holding)
	if err != nil {
		return err
	}
	if existing.Owner == actors.TokenProgramID {
		if mode == create {
			return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, holding.ToBase58())
		}
		state, err := token.DecodeAccount(existing.Data)
		if err != nil {
			return err
		}
		if state.Owner != owner || state.Mint != mint {
			return ErrIllegalOwner
		}
		return nil
	}
	seeds := [][]byte{owner.Bytes(), actors.TokenProgramID.Bytes(), mint.Bytes(), {bump}}
	err = system.CreateOrAllocate(ctx, funder, holding, actors.TokenProgramID, token.AccountSize, seeds)
	if err != nil {
		return err
	}
	return ctx.Invoke(token.NewInitializeAccount3Instruction(holding, mint, owner))
}
