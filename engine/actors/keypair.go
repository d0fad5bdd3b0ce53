package actors

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"mintgate/engine/library"
)

// LoadOrCreateKeypair restores a ledger keypair from a solana-keygen style file
// (JSON array of 64 bytes) or creates and writes a new one.
func LoadOrCreateKeypair(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		keyBytes, err := DecodeKeypairJSON(data)
		if err != nil {
			return types.Account{}, fmt.Errorf("%s: %w", path, err)
		}
		return types.AccountFromBytes(keyBytes)
	}
	if !os.IsNotExist(err) {
		return types.Account{}, err
	}
	acc := types.NewAccount()
	ints := make([]int, len(acc.PrivateKey))
	for i, v := range acc.PrivateKey {
		ints[i] = int(v)
	}
	payload, err := json.Marshal(ints)
	if err != nil {
		return types.Account{}, err
	}
	if err = os.WriteFile(path, payload, 0600); err != nil {
		return types.Account{}, err
	}
	library.LogCLI(fmt.Sprintf("created keypair %s at %s", acc.PublicKey.ToBase58(), path), 4)
	return acc, nil
}

// DecodeKeypairJSON accepts [u8;64] and, for files written by other tools, [int,...].
func DecodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}
	keyBytes := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid byte value at index %d: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}
