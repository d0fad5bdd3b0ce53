// Package metadata attaches descriptive records and supply caps to mints.
// It decodes CreateMetadataAccountV3 and CreateMasterEditionV3 as built by
// solana-go-sdk's token_metadata package.
package metadata

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/near/borsh-go"
	"mintgate/engine/actors"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/system"
	"mintgate/programs/token"
)

var (
	ErrInvalidInstruction              = errors.New("invalid metadata instruction")
	ErrInvalidMetadataKey              = errors.New("metadata account does not match the mint's derived address")
	ErrInvalidEditionKey               = errors.New("edition account does not match the mint's derived address")
	ErrInvalidMintAuthority            = errors.New("mint authority did not sign or does not match the mint")
	ErrUpdateAuthorityIncorrect        = errors.New("update authority did not sign or does not match the metadata")
	ErrNameTooLong                     = errors.New("name too long")
	ErrSymbolTooLong                   = errors.New("symbol too long")
	ErrURITooLong                      = errors.New("uri too long")
	ErrInvalidBasisPoints              = errors.New("basis points cannot be more than 10000")
	ErrCreatorsTooLong                 = errors.New("creators list too long")
	ErrCreatorsMustBeAtLeastOne        = errors.New("creators must be at least one if set")
	ErrDuplicateCreatorAddress         = errors.New("no duplicate creator addresses")
	ErrShareTotalMustBe100             = errors.New("share total must equal 100 for creator array")
	ErrCannotVerifyAnotherCreator      = errors.New("you cannot unilaterally verify another creator, they must sign")
	ErrCollectionDetailsUnsupported    = errors.New("collection details are not supported")
	ErrEditionsMustHaveExactlyOneToken = errors.New("this mint must have exactly one token with zero decimals")
	ErrInvalidFreezeAuthority          = errors.New("freeze authority must equal the mint authority")
	ErrMintMismatch                    = errors.New("metadata belongs to a different mint")
	ErrDataTypeMismatch                = errors.New("account data is not the expected record")
)

const (
	createMasterEditionV3   uint8 = 17
	createMetadataAccountV3 uint8 = 33
)

type createMetadataArgs struct {
	Data              token_metadata.DataV2
	IsMutable         bool
	CollectionDetails *uint8
}

type createMasterEditionArgs struct {
	MaxSupply *uint64
}

type Program struct{}

var _ runtime.Program = Program{}

func (Program) ID() common.PublicKey {
	return actors.MetadataProgramID
}

func (p Program) Process(ctx *runtime.Context, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInstruction
	}
	switch data[0] {
	case createMetadataAccountV3:
		var args createMetadataArgs
		if err := borsh.Deserialize(&args, data[1:]); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInstruction, err.Error())
		}
		return p.createMetadata(ctx, args)
	case createMasterEditionV3:
		var args createMasterEditionArgs
		if err := borsh.Deserialize(&args, data[1:]); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInstruction, err.Error())
		}
		return p.createMasterEdition(ctx, args)
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, data[0])
	}
}

// createMetadata expects [metadata w, mint, mint authority s, payer s w,
// update authority, system, ...].
func (Program) createMetadata(ctx *runtime.Context, args createMetadataArgs) error {
	keys, err := ctx.Keys(6)
	if err != nil {
		return err
	}
	metadataKey, mintKey, mintAuthority, payer, updateAuthority := keys[0], keys[1], keys[2], keys[3], keys[4]
	derived, bump, err := pda.Metadata(mintKey)
	if err != nil {
		return err
	}
	if derived != metadataKey {
		return ErrInvalidMetadataKey
	}
	mint, err := loadMint(ctx, mintKey)
	if err != nil {
		return err
	}
	if !mint.HasMintAuthority || mint.MintAuthority != mintAuthority || !ctx.IsSigner(mintAuthority) {
		return ErrInvalidMintAuthority
	}
	if args.CollectionDetails != nil {
		return ErrCollectionDetailsUnsupported
	}
	if err = validate(ctx, args.Data, updateAuthority); err != nil {
		return err
	}
	record, err := borsh.Serialize(Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: updateAuthority,
		Mint:            mintKey,
		Data:            args.Data,
		IsMutable:       args.IsMutable,
	})
	if err != nil {
		return err
	}
	seeds := [][]byte{[]byte(actors.MetadataTag), actors.MetadataProgramID.Bytes(), mintKey.Bytes(), {bump}}
	return create(ctx, payer, metadataKey, record, seeds)
}

func validate(ctx *runtime.Context, data token_metadata.DataV2, updateAuthority common.PublicKey) error {
	switch {
	case len(data.Name) > MaxNameLength:
		return ErrNameTooLong
	case len(data.Symbol) > MaxSymbolLength:
		return ErrSymbolTooLong
	case len(data.Uri) > MaxURILength:
		return ErrURITooLong
	case data.SellerFeeBasisPoints > MaxSellerFeeBasisPoints:
		return ErrInvalidBasisPoints
	}
	if data.Creators == nil {
		return nil
	}
	creators := *data.Creators
	if len(creators) == 0 {
		return ErrCreatorsMustBeAtLeastOne
	}
	if len(creators) > MaxCreators {
		return ErrCreatorsTooLong
	}
	seen := make(map[common.PublicKey]bool, len(creators))
	total := 0
	for _, c := range creators {
		if seen[c.Address] {
			return ErrDuplicateCreatorAddress
		}
		seen[c.Address] = true
		total += int(c.Share)
		if c.Verified && !ctx.IsSigner(c.Address) && !(c.Address == updateAuthority && ctx.IsSigner(updateAuthority)) {
			return ErrCannotVerifyAnotherCreator
		}
	}
	if total != 100 {
		return ErrShareTotalMustBe100
	}
	return nil
}

// createMasterEdition expects [edition w, mint w, update authority s,
// mint authority s, payer s w, metadata, token, system, ...].
func (Program) createMasterEdition(ctx *runtime.Context, args createMasterEditionArgs) error {
	keys, err := ctx.Keys(8)
	if err != nil {
		return err
	}
	editionKey, mintKey, updateAuthority, mintAuthority, payer, metadataKey := keys[0], keys[1], keys[2], keys[3], keys[4], keys[5]
	derived, bump, err := pda.Edition(mintKey)
	if err != nil {
		return err
	}
	if derived != editionKey {
		return ErrInvalidEditionKey
	}
	if want, _, err := pda.Metadata(mintKey); err != nil || want != metadataKey {
		return ErrInvalidMetadataKey
	}
	metaAcc, err := ctx.Load(metadataKey)
	if err != nil {
		return err
	}
	if metaAcc.Owner != actors.MetadataProgramID {
		return ErrDataTypeMismatch
	}
	meta, err := DecodeMetadata(metaAcc.Data)
	if err != nil {
		return err
	}
	if meta.Mint != mintKey {
		return ErrMintMismatch
	}
	if meta.UpdateAuthority != updateAuthority || !ctx.IsSigner(updateAuthority) {
		return ErrUpdateAuthorityIncorrect
	}
	mint, err := loadMint(ctx, mintKey)
	if err != nil {
		return err
	}
	if !mint.HasMintAuthority || mint.MintAuthority != mintAuthority || !ctx.IsSigner(mintAuthority) {
		return ErrInvalidMintAuthority
	}
	if mint.Decimals != 0 || mint.Supply != 1 {
		return ErrEditionsMustHaveExactlyOneToken
	}
	if mint.HasFreezeAuthority && mint.FreezeAuthority != mintAuthority {
		return ErrInvalidFreezeAuthority
	}
	record, err := borsh.Serialize(MasterEdition{Key: KeyMasterEditionV2, MaxSupply: args.MaxSupply})
	if err != nil {
		return err
	}
	seeds := [][]byte{[]byte(actors.MetadataTag), actors.MetadataProgramID.Bytes(), mintKey.Bytes(), []byte(actors.EditionTag), {bump}}
	if err = create(ctx, payer, editionKey, record, seeds); err != nil {
		return err
	}
	// The edition now owns the mint; no further unit can be issued.
	if err = ctx.Invoke(token.NewSetAuthorityInstruction(mintKey, mintAuthority, token.AuthorityMintTokens, &editionKey)); err != nil {
		return err
	}
	if mint.HasFreezeAuthority {
		return ctx.Invoke(token.NewSetAuthorityInstruction(mintKey, mintAuthority, token.AuthorityFreezeAccount, &editionKey))
	}
	return nil
}

func loadMint(ctx *runtime.Context, key common.PublicKey) (token.Mint, error) {
	acc, err := ctx.Load(key)
	if err != nil {
		return token.Mint{}, err
	}
	if acc.Owner != actors.TokenProgramID {
		return token.Mint{}, fmt.Errorf("%w: mint %s", token.ErrIncorrectProgramID, key.ToBase58())
	}
	m, err := token.DecodeMint(acc.Data)
	if err != nil {
		return m, err
	}
	if !m.IsInitialized {
		return m, token.ErrUninitializedState
	}
	return m, nil
}

// create allocates a record at a derived address and writes it.
func create(ctx *runtime.Context, payer, addr common.PublicKey, record []byte, seeds [][]byte) error {
	err := system.CreateOrAllocate(ctx, payer, addr, actors.MetadataProgramID, uint64(len(record)), seeds)
	if err != nil {
		return err
	}
	acc, err := ctx.Load(addr)
	if err != nil {
		return err
	}
	acc.Data = record
	return ctx.Store(addr, acc)
}
