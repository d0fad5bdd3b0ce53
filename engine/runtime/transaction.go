package runtime

import (
	"crypto/ed25519"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
)

// Transaction is an ordered list of top-level instructions plus one ed25519
// signature per required signer. Signatures are kept in the order returned by
// Signers, so the first one, the fee payer's, identifies the transaction.
type Transaction struct {
	Nonce        uint64
	FeePayer     common.PublicKey
	Instructions []types.Instruction
	Signatures   [][]byte
}

var nonce atomic.Uint64

func init() {
	nonce.Store(uint64(time.Now().UnixNano()))
}

// NewTransaction builds and signs a transaction paid for by signers[0]. Every
// key flagged as a signer in any instruction must have a matching keypair in
// signers.
func NewTransaction(signers []types.Account, instructions ...types.Instruction) (*Transaction, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("%w: no fee payer", ErrSignatureFailure)
	}
	tx := &Transaction{Nonce: nonce.Add(1), FeePayer: signers[0].PublicKey, Instructions: instructions}
	if err := tx.Sign(signers...); err != nil {
		return nil, err
	}
	return tx, nil
}

// Signers lists every key that must sign: the fee payer, then signer
// accounts in first-appearance order.
func (tx *Transaction) Signers() []common.PublicKey {
	keys := []common.PublicKey{tx.FeePayer}
	seen := map[common.PublicKey]bool{tx.FeePayer: true}
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !seen[meta.PubKey] {
				seen[meta.PubKey] = true
				keys = append(keys, meta.PubKey)
			}
		}
	}
	return keys
}

type wireMeta struct {
	Key      [32]byte
	Signer   bool
	Writable bool
}

type wireInstruction struct {
	Program  [32]byte
	Accounts []wireMeta
	Data     []byte
}

type wireMessage struct {
	Nonce        uint64
	Signers      [][32]byte
	Instructions []wireInstruction
}

// Message is the borsh encoding every signature covers.
func (tx *Transaction) Message() ([]byte, error) {
	m := wireMessage{Nonce: tx.Nonce}
	for _, key := range tx.Signers() {
		m.Signers = append(m.Signers, key)
	}
	for _, ix := range tx.Instructions {
		w := wireInstruction{Program: ix.ProgramID, Data: ix.Data}
		if w.Data == nil {
			w.Data = []byte{}
		}
		for _, meta := range ix.Accounts {
			w.Accounts = append(w.Accounts, wireMeta{Key: meta.PubKey, Signer: meta.IsSigner, Writable: meta.IsWritable})
		}
		m.Instructions = append(m.Instructions, w)
	}
	return borsh.Serialize(m)
}

// Sign replaces every signature.
func (tx *Transaction) Sign(signers ...types.Account) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	keys := make(map[common.PublicKey]types.Account, len(signers))
	for _, s := range signers {
		keys[s.PublicKey] = s
	}
	required := tx.Signers()
	sigs := make([][]byte, 0, len(required))
	for _, key := range required {
		account, ok := keys[key]
		if !ok {
			return fmt.Errorf("%w: no keypair for signer %s", ErrSignatureFailure, key.ToBase58())
		}
		sigs = append(sigs, ed25519.Sign(account.PrivateKey, msg))
	}
	tx.Signatures = sigs
	return nil
}

// Verify checks that every required signer signed this exact message.
func (tx *Transaction) Verify() error {
	if len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	msg, err := tx.Message()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSignatureFailure, err.Error())
	}
	if tx.FeePayer == (common.PublicKey{}) {
		return fmt.Errorf("%w: no fee payer", ErrSignatureFailure)
	}
	required := tx.Signers()
	if len(required) != len(tx.Signatures) {
		return fmt.Errorf("%w: want %d signatures, have %d", ErrSignatureFailure, len(required), len(tx.Signatures))
	}
	for i, key := range required {
		if len(tx.Signatures[i]) != ed25519.SignatureSize || !ed25519.Verify(key.Bytes(), msg, tx.Signatures[i]) {
			return fmt.Errorf("%w: bad signature for %s", ErrSignatureFailure, key.ToBase58())
		}
	}
	return nil
}

// ID is the base58 first signature, or "" for an unsigned transaction.
func (tx *Transaction) ID() string {
	if len(tx.Signatures) == 0 {
		return ""
	}
	return base58.Encode(tx.Signatures[0])
}
