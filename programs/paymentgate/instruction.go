package paymentgate

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

var invokeCreateNFTDiscriminator = library.Discriminator("global", "invoke_create_nft")

type InvokeCreateNFTArgs struct {
	ID     uint64
	Name   string
	Symbol string
	URI    string
	Amount uint64
}

type InvokeCreateNFTParam struct {
	Payer common.PublicKey
	InvokeCreateNFTArgs
}

// NewInvokeCreateNFTInstruction derives every account from the id and payer.
func NewInvokeCreateNFTInstruction(param InvokeCreateNFTParam) (types.Instruction, error) {
	treasury, _, err := pda.Treasury()
	if err != nil {
		return types.Instruction{}, err
	}
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
	args, err := borsh.Serialize(param.InvokeCreateNFTArgs)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: actors.PaymentGateProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: treasury, IsSigner: false, IsWritable: true},
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
			{PubKey: actors.MintAuthorizerProgramID, IsSigner: false, IsWritable: false},
		},
		Data: append(invokeCreateNFTDiscriminator[:], args...),
	}, nil
}

// DecodeInvokeCreateNFT reads instruction data built by
// NewInvokeCreateNFTInstruction.
func DecodeInvokeCreateNFT(data []byte) (InvokeCreateNFTArgs, error) {
	var args InvokeCreateNFTArgs
	if len(data) < len(invokeCreateNFTDiscriminator) || !bytes.Equal(data[:8], invokeCreateNFTDiscriminator[:]) {
		return args, ErrInstructionFallbackNotFound
	}
	if err := borsh.Deserialize(&args, data[8:]); err != nil {
		return args, fmt.Errorf("%w: %s", ErrInstructionDidNotDeserialize, err.Error())
	}
	return args, nil
}
