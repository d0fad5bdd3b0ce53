package actors

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nbd-wtf/go-nostr/nip06"
	"github.com/sasha-s/go-deadlock"
	"mintgate/engine/library"
)

var currentWallet library.Wallet
var currentWalletMutex = &deadlock.Mutex{}

// MyWallet returns the operator wallet or creates a new one if there isn't one already.
// The operator signs receipts; it never holds ledger funds.
func MyWallet() library.Wallet {
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	if len(currentWallet.PrivateKey) == 0 {
		if w, ok := getWalletFromDisk(); ok {
			currentWallet = w
		} else {
			library.LogCLI("Generating a new operator wallet, write down the seed words if you want to keep it", 4)
			w, err := NewWallet()
			if err != nil {
				library.LogCLI(err.Error(), 0)
				return library.Wallet{}
			}
			currentWallet = w
			fmt.Printf("\n\n~NEW OPERATOR WALLET~\nPublic Key: %s\nSeed Words: %s\n\n", currentWallet.Account, currentWallet.SeedWords)
			if err := persistCurrentWallet(); err != nil {
				library.LogCLI(err.Error(), 1)
			}
		}
	}
	return currentWallet
}

// NewWallet derives a fresh nostr identity from new seed words (NIP-06).
func NewWallet() (library.Wallet, error) {
	seedWords, err := nip06.GenerateSeedWords()
	if err != nil {
		return library.Wallet{}, err
	}
	seed := nip06.SeedFromWords(seedWords)
	sk, err := nip06.PrivateKeyFromSeed(seed)
	if err != nil {
		return library.Wallet{}, err
	}
	pk, err := getPubKey(sk)
	if err != nil {
		return library.Wallet{}, err
	}
	return library.Wallet{
		PrivateKey: sk,
		SeedWords:  seedWords,
		Account:    pk,
	}, nil
}

func getPubKey(privateKey string) (string, error) {
	keyb, err := hex.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("decoding key from hex: %w", err)
	}
	_, pubkey := btcec.PrivKeyFromBytes(keyb)
	// x-only, left padded to 32 bytes
	return fmt.Sprintf("%064x", pubkey.X()), nil
}

func persistCurrentWallet() error {
	b, err := json.Marshal(currentWallet)
	if err != nil {
		return err
	}
	return os.WriteFile(MakeOrGetConfig().GetString("rootDir")+"wallet.dat", b, 0600)
}

func getWalletFromDisk() (w library.Wallet, ok bool) {
	file, err := os.ReadFile(MakeOrGetConfig().GetString("rootDir") + "wallet.dat")
	if err != nil {
		library.LogCLI(fmt.Sprintf("Error getting wallet file: %s", err.Error()), 2)
		return library.Wallet{}, false
	}
	err = json.Unmarshal(file, &w)
	if err != nil {
		library.LogCLI(fmt.Sprintf("Error parsing wallet file: %s", err.Error()), 3)
		return library.Wallet{}, false
	}
	return w, true
}
