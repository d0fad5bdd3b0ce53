package actors

import (
	"path/filepath"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypairIsStableAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payer.json")
	first, err := LoadOrCreateKeypair(path)
	require.NoError(t, err)
	second, err := LoadOrCreateKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey, second.PublicKey)
}

func TestDecodeKeypairJSONRejectsBadInput(t *testing.T) {
	_, err := DecodeKeypairJSON([]byte(`[1,2,3]`))
	assert.Error(t, err)
	_, err = DecodeKeypairJSON([]byte(`{"a":1}`))
	assert.Error(t, err)
}

func TestNewWalletMatchesNostrPubkey(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)
	pk, err := nostr.GetPublicKey(w.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, pk, w.Account)
}

func TestFlatFileRoundTrip(t *testing.T) {
	MakeOrGetConfig().Set("rootDir", t.TempDir()+"/")
	MakeOrGetConfig().Set("flatFileDir", "data/")
	_, ok := Open("accounts", "current")
	assert.False(t, ok)
	require.NoError(t, Write("accounts", "current", []byte("hello")))
	f, ok := Open("accounts", "current")
	require.True(t, ok)
	defer f.Close()
	buf := make([]byte, 5)
	_, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}
