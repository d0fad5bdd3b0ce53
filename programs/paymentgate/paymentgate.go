// Package paymentgate charges for a mint. A payment of at least MinAmount
// lamports moves into the Treasury, then the gate calls MintAuthorizer
// signed as the Treasury.
package paymentgate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	bsystem "github.com/blocto/solana-go-sdk/program/system"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/mintauth"
	"mintgate/programs/system"
)

var (
	ErrInsufficientAmount           = errors.New("insufficient amount: payment is below the minimum")
	ErrTransferFailed               = errors.New("transfer to the treasury failed")
	ErrConstraintSeeds              = errors.New("a seeds constraint was violated")
	ErrConstraintAddress            = errors.New("an address constraint was violated")
	ErrConstraintSigner             = errors.New("a signer constraint was violated")
	ErrAccountOwnedByWrongProgram   = errors.New("the given account is owned by a different program than expected")
	ErrAccountDiscriminatorMismatch = errors.New("account discriminator did not match what was expected")
	ErrInstructionFallbackNotFound  = errors.New("fallback functions are not supported")
	ErrInstructionDidNotDeserialize = errors.New("the program could not deserialize the given instruction")
)

// MinAmount is the smallest accepted payment, in lamports.
const MinAmount = actors.MinAmount

// TreasurySize is the Treasury's allocation: discriminator plus reserved space.
const TreasurySize = 104

// TreasuryDiscriminator tags the Treasury's data.
var TreasuryDiscriminator = library.Discriminator("account", "Treasury")

type Program struct{}

var _ runtime.Program = Program{}

func (Program) ID() common.PublicKey {
	return actors.PaymentGateProgramID
}

func (p Program) Process(ctx *runtime.Context, data []byte) error {
	args, err := DecodeInvokeCreateNFT(data)
	if err != nil {
		return err
	}
	keys, err := ctx.Keys(13)
	if err != nil {
		return err
	}
	treasury, payer, mint := keys[0], keys[1], keys[2]
	derived, bump, err := pda.Treasury()
	if err != nil {
		return err
	}
	if treasury != derived {
		return fmt.Errorf("%w: treasury", ErrConstraintSeeds)
	}
	if !ctx.IsSigner(payer) {
		return fmt.Errorf("%w: payer", ErrConstraintSigner)
	}
	if err = checkAccounts(keys, mint); err != nil {
		return err
	}
	if args.Amount < MinAmount {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientAmount, library.FormatLamports(args.Amount), library.FormatLamports(MinAmount))
	}
	seeds := pda.TreasurySeeds(bump)
	if err = ensureTreasury(ctx, treasury, payer, seeds); err != nil {
		return err
	}
	err = ctx.Invoke(bsystem.Transfer(bsystem.TransferParam{From: payer, To: treasury, Amount: args.Amount}))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	ctx.Log("received %s for id %d", library.FormatLamports(args.Amount), args.ID)

	ix, err := mintauth.NewCreateSingleNFTInstruction(mintauth.CreateSingleNFTParam{
		Caller: treasury,
		Payer:  payer,
		CreateSingleNFTArgs: mintauth.CreateSingleNFTArgs{
			ID:     args.ID,
			Name:   args.Name,
			Symbol: args.Symbol,
			URI:    args.URI,
		},
	})
	if err != nil {
		return err
	}
	return ctx.InvokeSigned(ix, seeds)
}

// checkAccounts validates every fixed or derived account after the first three.
func checkAccounts(keys []common.PublicKey, mint common.PublicKey) error {
	fixed := map[int]common.PublicKey{
		4:  actors.AssociatedTokenProgramID,
		5:  actors.RentSysvarID,
		6:  actors.SystemProgramID,
		7:  actors.TokenProgramID,
		8:  actors.MetadataProgramID,
		9:  actors.InstructionsSysvarID,
		12: actors.MintAuthorizerProgramID,
	}
	for i, want := range fixed {
		if keys[i] != want {
			return fmt.Errorf("%w: account %d", ErrConstraintAddress, i)
		}
	}
	metadata, _, err := pda.Metadata(mint)
	if err != nil {
		return err
	}
	edition, _, err := pda.Edition(mint)
	if err != nil {
		return err
	}
	if keys[10] != metadata || keys[11] != edition {
		return fmt.Errorf("%w: metadata or edition", ErrConstraintSeeds)
	}
	return nil
}

// ensureTreasury creates the Treasury on first use and validates it after.
func ensureTreasury(ctx *runtime.Context, treasury, payer common.PublicKey, seeds [][]byte) error {
	acc, err := ctx.Load(treasury)
	if err != nil {
		return err
	}
	switch acc.Owner {
	case actors.PaymentGateProgramID:
		if len(acc.Data) < len(TreasuryDiscriminator) || !bytes.Equal(acc.Data[:8], TreasuryDiscriminator[:]) {
			return ErrAccountDiscriminatorMismatch
		}
		return nil
	case actors.SystemProgramID:
	default:
		return ErrAccountOwnedByWrongProgram
	}
	if err = system.CreateOrAllocate(ctx, payer, treasury, actors.PaymentGateProgramID, TreasurySize, seeds); err != nil {
		return err
	}
	if acc, err = ctx.Load(treasury); err != nil {
		return err
	}
	copy(acc.Data, TreasuryDiscriminator[:])
	ctx.Log("treasury created at %s", treasury.ToBase58())
	return ctx.Store(treasury, acc)
}
