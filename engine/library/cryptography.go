package library

import "crypto/sha256"

// Discriminator is the 8 byte prefix that tags instruction data ("global")
// and program owned account data ("account"): sha256("<namespace>:<name>")[:8].
func Discriminator(namespace, name string) (d [8]byte) {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	copy(d[:], sum[:8])
	return
}
