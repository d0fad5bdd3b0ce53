// Package pda derives key-less, program owned addresses.
//
// An address is sha256(seeds || bump || program || "ProgramDerivedAddress")
// for the highest bump in 255..0 whose result is not a point on the ed25519
// curve, so no private key can ever sign for it. Only the owning program can,
// by handing the seeds to the runtime.
package pda

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"mintgate/engine/actors"
)

var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// Find derives the address for tag and aux under program.
func Find(program common.PublicKey, tag []byte, aux ...[]byte) (common.PublicKey, uint8, error) {
	seeds := make([][]byte, 0, len(aux)+1)
	seeds = append(seeds, tag)
	seeds = append(seeds, aux...)
	addr, bump, err := common.FindProgramAddress(seeds, program)
	if err != nil {
		return common.PublicKey{}, 0, fmt.Errorf("%w: %s", ErrNoViableBump, err.Error())
	}
	return addr, bump, nil
}

// Create re-derives an address from the full seed list (bump included).
func Create(program common.PublicKey, seeds [][]byte) (common.PublicKey, error) {
	return common.CreateProgramAddress(seeds, program)
}

// IDSeed is the little endian encoding of an asset id.
func IDSeed(id uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, id)
	return b
}

// Treasury is PaymentGate's singleton fee account and signing identity.
func Treasury() (common.PublicKey, uint8, error) {
	return Find(actors.PaymentGateProgramID, []byte(actors.TreasuryTag))
}

// TreasurySeeds is the signer seed list for the Treasury.
func TreasurySeeds(bump uint8) [][]byte {
	return [][]byte{[]byte(actors.TreasuryTag), {bump}}
}

// AssetMint is the mint for id. It is also the mint's own authority.
func AssetMint(id uint64) (common.PublicKey, uint8, error) {
	return Find(actors.MintAuthorizerProgramID, []byte(actors.MintTag), IDSeed(id))
}

// AssetMintSeeds is the signer seed list for the AssetMint of id.
func AssetMintSeeds(id uint64, bump uint8) [][]byte {
	return [][]byte{[]byte(actors.MintTag), IDSeed(id), {bump}}
}

// Metadata reproduces the metadata program's own rule for a mint's metadata record.
func Metadata(mint common.PublicKey) (common.PublicKey, uint8, error) {
	return Find(actors.MetadataProgramID, []byte(actors.MetadataTag), actors.MetadataProgramID.Bytes(), mint.Bytes())
}

// Edition is Metadata with the "edition" suffix.
func Edition(mint common.PublicKey) (common.PublicKey, uint8, error) {
	return Find(actors.MetadataProgramID, []byte(actors.MetadataTag), actors.MetadataProgramID.Bytes(), mint.Bytes(), []byte(actors.EditionTag))
}

// HoldingAccount is the associated token account of owner for mint.
func HoldingAccount(owner, mint common.PublicKey) (common.PublicKey, uint8, error) {
	addr, bump, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, 0, fmt.Errorf("%w: %s", ErrNoViableBump, err.Error())
	}
	return addr, bump, nil
}
