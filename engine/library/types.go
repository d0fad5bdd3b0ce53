package library

// Wallet is the operator's nostr identity. Receipts are signed with it.
type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    NostrAccount
}

// NostrAccount is a hex encoded x-only public key.
type NostrAccount = string

type Lamports = uint64
