package token

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"mintgate/engine/actors"
)

// Instruction tags, matching the SPL token wire format.
const (
	initializeMint     uint8 = 0
	setAuthority       uint8 = 6
	mintTo             uint8 = 7
	initializeAccount3 uint8 = 18
)

// AuthorityType selects which authority SetAuthority replaces.
type AuthorityType uint8

const (
	AuthorityMintTokens AuthorityType = iota
	AuthorityFreezeAccount
)

// NewInitializeAccount3Instruction initializes a holding account for owner.
func NewInitializeAccount3Instruction(account, mint, owner common.PublicKey) types.Instruction {
	data := make([]byte, 0, 33)
	data = append(data, initializeAccount3)
	data = append(data, owner.Bytes()...)
	return types.Instruction{
		ProgramID: actors.TokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: account, IsSigner: false, IsWritable: true},
			{PubKey: mint, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}
}

// NewSetAuthorityInstruction replaces an authority of a mint. A nil
// newAuthority removes it for good.
func NewSetAuthorityInstruction(target, current common.PublicKey, kind AuthorityType, newAuthority *common.PublicKey) types.Instruction {
	data := []byte{setAuthority, uint8(kind), 0}
	if newAuthority != nil {
		data[2] = 1
		data = append(data, newAuthority.Bytes()...)
	}
	return types.Instruction{
		ProgramID: actors.TokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: target, IsSigner: false, IsWritable: true},
			{PubKey: current, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}
}
