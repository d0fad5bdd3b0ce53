// Package mintauth issues one non-fungible asset per id. It only runs when
// the top-level instruction of the enclosing transaction belongs to the
// PaymentGate program, which it establishes by reading the instructions
// sysvar; nothing else about the caller is trusted.
package mintauth

import (
	"crypto/subtle"
	"errors"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	btoken "github.com/blocto/solana-go-sdk/program/token"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/system"
	"mintgate/programs/token"
)

var (
	ErrUnauthorized                 = errors.New("unauthorized: create_single_nft must be reached through the payment gate")
	ErrConstraintSeeds              = errors.New("a seeds constraint was violated")
	ErrConstraintAddress            = errors.New("an address constraint was violated")
	ErrConstraintSigner             = errors.New("a signer constraint was violated")
	ErrInstructionFallbackNotFound  = errors.New("fallback functions are not supported")
	ErrInstructionDidNotDeserialize = errors.New("the program could not deserialize the given instruction")
)

// Fixed record terms for every asset.
const (
	SellerFeeBasisPoints uint16 = 500
	MaxSupply            uint64 = 1
)

// allowedCaller is the only program whose instruction may enclose a mint.
var allowedCaller = actors.PaymentGateProgramID

type Program struct{}

var _ runtime.Program = Program{}

func (Program) ID() common.PublicKey {
	return actors.MintAuthorizerProgramID
}

type accountSet struct {
	caller, payer, mint, holding common.PublicKey
	sysvar, metadata, edition    common.PublicKey
}

func (p Program) Process(ctx *runtime.Context, data []byte) error {
	args, err := DecodeCreateSingleNFT(data)
	if err != nil {
		return err
	}
	keys, err := ctx.Keys(12)
	if err != nil {
		return err
	}
	a := accountSet{
		caller: keys[0], payer: keys[1], mint: keys[2], holding: keys[3],
		sysvar: keys[9], metadata: keys[10], edition: keys[11],
	}
	if err = authorize(ctx, a.sysvar); err != nil {
		return err
	}
	if !ctx.IsSigner(a.caller) || !ctx.IsSigner(a.payer) {
		return ErrConstraintSigner
	}
	programs := []common.PublicKey{actors.AssociatedTokenProgramID, actors.RentSysvarID, actors.SystemProgramID, actors.TokenProgramID, actors.MetadataProgramID}
	for i, want := range programs {
		if keys[4+i] != want {
			return ErrConstraintAddress
		}
	}
	mint, bump, err := pda.AssetMint(args.ID)
	if err != nil {
		return err
	}
	if mint != a.mint {
		return ErrConstraintSeeds
	}
	seeds := pda.AssetMintSeeds(args.ID, bump)
	ctx.Log("create_single_nft id=%d mint=%s", args.ID, mint.ToBase58())

	if err = mintOne(ctx, a, seeds); err != nil {
		return err
	}
	if err = createMetadata(ctx, a, args, seeds); err != nil {
		return err
	}
	return createEdition(ctx, a, seeds)
}

// authorize compares the program of the enclosing top-level instruction with
// the allow-listed caller in constant time.
func authorize(ctx *runtime.Context, sysvar common.PublicKey) error {
	ix, err := ctx.InstructionAt(sysvar, 0)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(ix.ProgramID.Bytes(), allowedCaller.Bytes()) != 1 {
		library.LogCLI("rejected create_single_nft enclosed by "+ix.ProgramID.ToBase58(), 2)
		return ErrUnauthorized
	}
	return nil
}

// mintOne creates the mint with itself as authority and issues one unit to
// the payer's holding account.
func mintOne(ctx *runtime.Context, a accountSet, seeds [][]byte) error {
	err := system.CreateOrAllocate(ctx, a.payer, a.mint, actors.TokenProgramID, token.MintSize, seeds)
	if err != nil {
		return err
	}
	err = ctx.Invoke(btoken.InitializeMint(btoken.InitializeMintParam{
		Decimals:   0,
		Mint:       a.mint,
		MintAuth:   a.mint,
		FreezeAuth: &a.mint,
	}))
	if err != nil {
		return err
	}
	holding, err := ctx.Load(a.holding)
	if err != nil {
		return err
	}
	if holding.Owner != actors.TokenProgramID {
		err = ctx.Invoke(associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
			Funder:                 a.payer,
			Owner:                  a.payer,
			Mint:                   a.mint,
			AssociatedTokenAccount: a.holding,
		}))
		if err != nil {
			return err
		}
	}
	return ctx.InvokeSigned(btoken.MintTo(btoken.MintToParam{
		Mint:   a.mint,
		To:     a.holding,
		Auth:   a.mint,
		Amount: 1,
	}), seeds)
}

func createMetadata(ctx *runtime.Context, a accountSet, args CreateSingleNFTArgs, seeds [][]byte) error {
	return ctx.InvokeSigned(token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                a.metadata,
		Mint:                    a.mint,
		MintAuthority:           a.mint,
		Payer:                   a.payer,
		UpdateAuthority:         a.mint,
		UpdateAuthorityIsSigner: true,
		IsMutable:               true,
		Data: token_metadata.DataV2{
			Name:                 args.Name,
			Symbol:               args.Symbol,
			Uri:                  args.URI,
			SellerFeeBasisPoints: SellerFeeBasisPoints,
			Creators: &[]token_metadata.Creator{
				{Address: a.mint, Verified: true, Share: 100},
			},
		},
	}), seeds)
}

func createEdition(ctx *runtime.Context, a accountSet, seeds [][]byte) error {
	maxSupply := MaxSupply
	return ctx.InvokeSigned(token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
		Edition:         a.edition,
		Mint:            a.mint,
		UpdateAuthority: a.mint,
		MintAuthority:   a.mint,
		Metadata:        a.metadata,
		Payer:           a.payer,
		MaxSupply:       &maxSupply,
	}), seeds)
}
