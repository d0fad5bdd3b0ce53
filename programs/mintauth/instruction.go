package mintauth

import (
	"bytes"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/pda"
)

var createSingleNFTDiscriminator = library.Discriminator("global", "create_single_nft")

// CreateSingleNFTArgs are the borsh encoded arguments that follow the
// instruction discriminator.
type CreateSingleNFTArgs struct {
	ID     uint64
	Name   string
	Symbol string
	URI    string
}

type CreateSingleNFTParam struct {
	// Caller is the invoking identity. PaymentGate passes its Treasury.
	Caller common.PublicKey
	Payer  common.PublicKey
	CreateSingleNFTArgs
}

// NewCreateSingleNFTInstruction derives every account from the id and payer.
func NewCreateSingleNFTInstruction(param CreateSingleNFTParam) (types.Instruction, error) {
	mint, _, err := pda.AssetMint(param.ID)
	if err != nil {
		return types.Instruction{}, err
	}
	holding, _, err := pda.HoldingAccount(param.Payer, mint)
	if err != nil {
		return types.Instruction{}, err
	}
	metadata, _, err := pda.Metadata(mint)
	if err != nil {
		return types.Instruction{}, err
	}
	edition, _, err := pda.Edition(mint)
	if err != nil {
		return types.Instruction{}, err
	}
	args, err := borsh.Serialize(param.CreateSingleNFTArgs)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: actors.MintAuthorizerProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Caller, IsSigner: true, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: mint, IsSigner: false, IsWritable: true},
			{PubKey: holding, IsSigner: false, IsWritable: true},
			{PubKey: actors.AssociatedTokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: actors.RentSysvarID, IsSigner: false, IsWritable: false},
			{PubKey: actors.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: actors.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: actors.MetadataProgramID, IsSigner: false, IsWritable: false},
			{PubKey: actors.InstructionsSysvarID, IsSigner: false, IsWritable: false},
			{PubKey: metadata, IsSigner: false, IsWritable: true},
			{PubKey: edition, IsSigner: false, IsWritable: true},
		},
		Data: append(createSingleNFTDiscriminator[:], args...),
	}, nil
}

// DecodeCreateSingleNFT reads instruction data built by
// NewCreateSingleNFTInstruction.
func DecodeCreateSingleNFT(data []byte) (CreateSingleNFTArgs, error) {
	var args CreateSingleNFTArgs
	if len(data) < len(createSingleNFTDiscriminator) || !bytes.Equal(data[:8], createSingleNFTDiscriminator[:]) {
		return args, ErrInstructionFallbackNotFound
	}
	if err := borsh.Deserialize(&args, data[8:]); err != nil {
		return args, fmt.Errorf("%w: %s", ErrInstructionDidNotDeserialize, err.Error())
	}
	return args, nil
}
