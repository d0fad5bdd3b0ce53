package actors

import (
	"github.com/blocto/solana-go-sdk/common"
)

// Program and sysvar addresses. The two core programs are fixed at build time:
// MintAuthorizer's allow-list is PaymentGateProgramID and nothing else.
var (
	PaymentGateProgramID    = common.PublicKeyFromString("9gqCftnKaG2pYswKbM1GfaMU57fptTw893V3bkAXdkJX")
	MintAuthorizerProgramID = common.PublicKeyFromString("BtKo4Ljr6FDuw6xEzbcji2FwKPaQ2Try5qmyBmosL5kt")

	SystemProgramID          = common.SystemProgramID
	TokenProgramID           = common.TokenProgramID
	AssociatedTokenProgramID = common.SPLAssociatedTokenAccountProgramID
	MetadataProgramID        = common.MetaplexTokenMetaProgramID

	InstructionsSysvarID = common.PublicKeyFromString("Sysvar1nstructions1111111111111111111111111")
	RentSysvarID         = common.SysVarRentPubkey
)

// Seed tags used for program derived addresses.
const (
	TreasuryTag = "treasury"
	MintTag     = "mint"
	MetadataTag = "metadata"
	EditionTag  = "edition"
)

// MinAmount is the smallest payment PaymentGate accepts, in lamports.
const MinAmount uint64 = 10_000_000
