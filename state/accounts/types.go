package accounts

import (
	"github.com/blocto/solana-go-sdk/common"
	"mintgate/engine/actors"
)

// Account is everything the ledger knows about one address. An address that
// was never written reads as the zero Account, which is owned by the system
// program and holds nothing.
type Account struct {
	Lamports   uint64
	Owner      common.PublicKey
	Space      uint64
	Data       []byte
	Executable bool
}

// IsEmpty reports whether the address is unused: no lamports, no allocation,
// still owned by the system program.
func (a Account) IsEmpty() bool {
	return a.Lamports == 0 && a.Space == 0 && len(a.Data) == 0 && a.Owner == actors.SystemProgramID
}

func (a Account) clone() Account {
	if a.Data != nil {
		d := make([]byte, len(a.Data))
		copy(d, a.Data)
		a.Data = d
	}
	return a
}

// MinimumBalance is the rent-exempt minimum for an account of space bytes.
func MinimumBalance(space uint64) uint64 {
	const lamportsPerByteYear = 3480
	const exemptionYears = 2
	const accountOverhead = 128
	return (accountOverhead + space) * lamportsPerByteYear * exemptionYears
}

type Mapped map[common.PublicKey]Account

// record is the on-disk form; addresses are base58 so the file is readable.
type record struct {
	Address    string `json:"address"`
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Space      uint64 `json:"space"`
	Data       []byte `json:"data,omitempty"`
	Executable bool   `json:"executable,omitempty"`
}
