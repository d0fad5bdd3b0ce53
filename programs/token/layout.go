package token

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/near/borsh-go"
)

// Account sizes. Layouts are borsh encoded and zero padded to these sizes.
const (
	MintSize    = token.MintAccountSize
	AccountSize = 165
)

// Mint is the state of a fungible-unit mint. A mint with decimals 0, supply 1
// and no mint authority is a non-fungible asset.
type Mint struct {
	HasMintAuthority   bool
	MintAuthority      common.PublicKey
	Supply             uint64
	Decimals           uint8
	IsInitialized      bool
	HasFreezeAuthority bool
	FreezeAuthority    common.PublicKey
}

// Account is a holding account: how many units of Mint belong to Owner.
type Account struct {
	Mint          common.PublicKey
	Owner         common.PublicKey
	Amount        uint64
	IsInitialized bool
}

var (
	mintLen    = layoutLen(Mint{})
	accountLen = layoutLen(Account{})
)

func layoutLen(v interface{}) int {
	b, err := borsh.Serialize(v)
	if err != nil {
		panic(err)
	}
	return len(b)
}

func encode(v interface{}, size int) ([]byte, error) {
	b, err := borsh.Serialize(v)
	if err != nil {
		return nil, err
	}
	if len(b) > size {
		return nil, fmt.Errorf("layout is %d bytes, account holds %d", len(b), size)
	}
	out := make([]byte, size)
	copy(out, b)
	return out, nil
}

// DecodeMint reads mint state from account data.
func DecodeMint(data []byte) (Mint, error) {
	var m Mint
	if len(data) < mintLen {
		return m, ErrInvalidAccountData
	}
	if err := borsh.Deserialize(&m, data[:mintLen]); err != nil {
		return m, fmt.Errorf("%w: %s", ErrInvalidAccountData, err.Error())
	}
	return m, nil
}

// DecodeAccount reads holding account state from account data.
func DecodeAccount(data []byte) (Account, error) {
	var a Account
	if len(data) < accountLen {
		return a, ErrInvalidAccountData
	}
	if err := borsh.Deserialize(&a, data[:accountLen]); err != nil {
		return a, fmt.Errorf("%w: %s", ErrInvalidAccountData, err.Error())
	}
	return a, nil
}
