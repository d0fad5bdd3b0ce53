// Package system moves lamports and creates accounts. It decodes the same
// wire format as the system program builders in solana-go-sdk.
package system

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	bsystem "github.com/blocto/solana-go-sdk/program/system"
	"github.com/near/borsh-go"
	"mintgate/engine/actors"
	"mintgate/engine/runtime"
	"mintgate/state/accounts"
)

var (
	ErrAccountAlreadyInUse        = errors.New("an account with the same address already exists")
	ErrInsufficientFunds          = errors.New("insufficient lamports for instruction")
	ErrInsufficientFundsForRent   = errors.New("account would not be rent exempt")
	ErrMissingRequiredSignature   = errors.New("missing required signature for instruction")
	ErrFromMustNotCarryData       = errors.New("from account must not carry data")
	ErrInvalidInstructionData     = errors.New("invalid system instruction data")
	ErrInvalidAccountDataLength   = errors.New("requested account space is too large")
	ErrUnsupportedSystemOperation = errors.New("unsupported system instruction")
)

// MaxSpace caps CreateAccount allocations.
const MaxSpace = 10 * 1024 * 1024

const (
	createAccount uint32 = 0
	assign        uint32 = 1
	transfer      uint32 = 2
	allocate      uint32 = 8
)

type createAccountArgs struct {
	Instruction uint32
	Lamports    uint64
	Space       uint64
	Owner       common.PublicKey
}

type assignArgs struct {
	Instruction uint32
	Owner       common.PublicKey
}

type transferArgs struct {
	Instruction uint32
	Lamports    uint64
}

type allocateArgs struct {
	Instruction uint32
	Space       uint64
}

type Program struct{}

var _ runtime.Program = Program{}

func (Program) ID() common.PublicKey {
	return actors.SystemProgramID
}

func (p Program) Process(ctx *runtime.Context, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidInstructionData
	}
	switch binary.LittleEndian.Uint32(data) {
	case createAccount:
		var args createAccountArgs
		if err := borsh.Deserialize(&args, data); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInstructionData, err.Error())
		}
		return p.createAccount(ctx, args)
	case transfer:
		var args transferArgs
		if err := borsh.Deserialize(&args, data); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInstructionData, err.Error())
		}
		return p.transfer(ctx, args.Lamports)
	case assign:
		var args assignArgs
		if err := borsh.Deserialize(&args, data); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInstructionData, err.Error())
		}
		return p.assign(ctx, args.Owner)
	case allocate:
		var args allocateArgs
		if err := borsh.Deserialize(&args, data); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInstructionData, err.Error())
		}
		return p.allocate(ctx, args.Space)
	default:
		return ErrUnsupportedSystemOperation
	}
}

func (Program) createAccount(ctx *runtime.Context, args createAccountArgs) error {
	keys, err := ctx.Keys(2)
	if err != nil {
		return err
	}
	fromKey, newKey := keys[0], keys[1]
	if !ctx.IsSigner(fromKey) || !ctx.IsSigner(newKey) {
		return ErrMissingRequiredSignature
	}
	if args.Space > MaxSpace {
		return fmt.Errorf("%w: %d", ErrInvalidAccountDataLength, args.Space)
	}
	if args.Lamports < accounts.MinimumBalance(args.Space) {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientFundsForRent, args.Lamports, accounts.MinimumBalance(args.Space))
	}
	to, err := ctx.Load(newKey)
	if err != nil {
		return err
	}
	if !to.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, newKey.ToBase58())
	}
	from, err := debit(ctx, fromKey, args.Lamports)
	if err != nil {
		return err
	}
	if err = ctx.Store(fromKey, from); err != nil {
		return err
	}
	return ctx.Store(newKey, accounts.Account{
		Lamports: args.Lamports,
		Owner:    args.Owner,
		Space:    args.Space,
		Data:     make([]byte, args.Space),
	})
}

func (Program) transfer(ctx *runtime.Context, lamports uint64) error {
	keys, err := ctx.Keys(2)
	if err != nil {
		return err
	}
	fromKey, toKey := keys[0], keys[1]
	if !ctx.IsSigner(fromKey) {
		return ErrMissingRequiredSignature
	}
	from, err := debit(ctx, fromKey, lamports)
	if err != nil {
		return err
	}
	if fromKey == toKey {
		return nil
	}
	to, err := ctx.Load(toKey)
	if err != nil {
		return err
	}
	if to.Lamports+lamports < to.Lamports {
		return fmt.Errorf("%w: overflow", ErrInvalidInstructionData)
	}
	to.Lamports += lamports
	if err = ctx.Store(fromKey, from); err != nil {
		return err
	}
	return ctx.Store(toKey, to)
}

func (Program) assign(ctx *runtime.Context, owner common.PublicKey) error {
	key, err := ctx.Key(0)
	if err != nil {
		return err
	}
	if !ctx.IsSigner(key) {
		return ErrMissingRequiredSignature
	}
	acc, err := ctx.Load(key)
	if err != nil {
		return err
	}
	if acc.Owner == owner {
		return nil
	}
	acc.Owner = owner
	return ctx.Store(key, acc)
}

func (Program) allocate(ctx *runtime.Context, space uint64) error {
	key, err := ctx.Key(0)
	if err != nil {
		return err
	}
	if !ctx.IsSigner(key) {
		return ErrMissingRequiredSignature
	}
	if space > MaxSpace {
		return fmt.Errorf("%w: %d", ErrInvalidAccountDataLength, space)
	}
	acc, err := ctx.Load(key)
	if err != nil {
		return err
	}
	if acc.Owner != actors.SystemProgramID || acc.Space > 0 || len(acc.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, key.ToBase58())
	}
	acc.Space = space
	acc.Data = make([]byte, space)
	return ctx.Store(key, acc)
}

// CreateOrAllocate gives addr space bytes owned by owner, funded to the rent
// exempt minimum by payer. addr signs through seeds of the calling program.
// An address that holds lamports but was never allocated is topped up,
// allocated and assigned, so a stray transfer cannot block it.
func CreateOrAllocate(ctx *runtime.Context, payer, addr, owner common.PublicKey, space uint64, seeds [][]byte) error {
	acc, err := ctx.Load(addr)
	if err != nil {
		return err
	}
	if acc.IsEmpty() {
		return ctx.InvokeSigned(bsystem.CreateAccount(bsystem.CreateAccountParam{
			From:     payer,
			New:      addr,
			Owner:    owner,
			Lamports: accounts.MinimumBalance(space),
			Space:    space,
		}), seeds)
	}
	if acc.Owner != actors.SystemProgramID || acc.Space > 0 || len(acc.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, addr.ToBase58())
	}
	if need := accounts.MinimumBalance(space); acc.Lamports < need {
		err = ctx.Invoke(bsystem.Transfer(bsystem.TransferParam{From: payer, To: addr, Amount: need - acc.Lamports}))
		if err != nil {
			return err
		}
	}
	if err = ctx.InvokeSigned(bsystem.Allocate(bsystem.AllocateParam{Account: addr, Space: space}), seeds); err != nil {
		return err
	}
	return ctx.InvokeSigned(bsystem.Assign(bsystem.AssignParam{From: addr, Owner: owner}), seeds)
}

// debit returns from with lamports removed, without storing it.
func debit(ctx *runtime.Context, fromKey common.PublicKey, lamports uint64) (accounts.Account, error) {
	from, err := ctx.Load(fromKey)
	if err != nil {
		return from, err
	}
	if len(from.Data) > 0 {
		return from, ErrFromMustNotCarryData
	}
	if from.Lamports < lamports {
		return from, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, lamports, from.Lamports)
	}
	from.Lamports -= lamports
	return from, nil
}
