package metadata

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/near/borsh-go"
)

// Record discriminators, first byte of every account this program owns.
const (
	KeyMetadataV1      uint8 = 4
	KeyMasterEditionV2 uint8 = 6
)

// Field limits for a metadata record.
const (
	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxURILength            = 200
	MaxCreators             = 5
	MaxSellerFeeBasisPoints = 10000
)

// Metadata describes one mint. Once written it is never modified.
type Metadata struct {
	Key                 uint8
	UpdateAuthority     common.PublicKey
	Mint                common.PublicKey
	Data                token_metadata.DataV2
	PrimarySaleHappened bool
	IsMutable           bool
}

// MasterEdition caps how many units of a mint can ever exist.
type MasterEdition struct {
	Key       uint8
	Supply    uint64
	MaxSupply *uint64
}

func DecodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if len(data) == 0 || data[0] != KeyMetadataV1 {
		return m, ErrDataTypeMismatch
	}
	if err := borsh.Deserialize(&m, data); err != nil {
		return m, fmt.Errorf("%w: %s", ErrDataTypeMismatch, err.Error())
	}
	return m, nil
}

func DecodeMasterEdition(data []byte) (MasterEdition, error) {
	var e MasterEdition
	if len(data) == 0 || data[0] != KeyMasterEditionV2 {
		return e, ErrDataTypeMismatch
	}
	if err := borsh.Deserialize(&e, data); err != nil {
		return e, fmt.Errorf("%w: %s", ErrDataTypeMismatch, err.Error())
	}
	return e, nil
}
