package receipts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/builtin"
	"mintgate/programs/paymentgate"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

func pay(t *testing.T, rt *runtime.Runtime, payer types.Account, id, amount uint64) (*runtime.Transaction, error) {
	t.Helper()
	ix, err := paymentgate.NewInvokeCreateNFTInstruction(paymentgate.InvokeCreateNFTParam{
		Payer: payer.PublicKey,
		InvokeCreateNFTArgs: paymentgate.InvokeCreateNFTArgs{
			ID: id, Name: "Art #1", Symbol: "ART", URI: "ipfs://abc", Amount: amount,
		},
	})
	require.NoError(t, err)
	tx, err := runtime.NewTransaction([]types.Account{payer}, ix)
	require.NoError(t, err)
	_, err = rt.Process(tx)
	return tx, err
}

func TestReceiptPerCommittedMint(t *testing.T) {
	wallet, err := actors.NewWallet()
	require.NoError(t, err)
	publish := make(chan nostr.Event, 1)
	recorder := NewRecorder(wallet, publish)
	rt := builtin.NewRuntime(accounts.New(), replay.New())
	rt.AddObserver(recorder)
	payer := types.NewAccount()
	_, err = rt.Airdrop(payer.PublicKey, 1_000_000_000)
	require.NoError(t, err)

	tx, err := pay(t, rt, payer, 1, 10_000_000)
	require.NoError(t, err)
	_, err = pay(t, rt, payer, 2, 1)
	require.ErrorIs(t, err, paymentgate.ErrInsufficientAmount)

	got := recorder.Receipts()
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, Kind, e.Kind)
	assert.Equal(t, wallet.Account, e.PubKey)
	ok, err := e.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)

	mint, _, err := pda.AssetMint(1)
	require.NoError(t, err)
	for _, key := range []string{"tx", "id", "mint", "payer", "amount"} {
		assert.Len(t, library.GetAllTags(e, key), 1, key)
	}
	value, _ := library.GetFirstTag(e, "tx")
	assert.Equal(t, tx.ID(), value)
	value, _ = library.GetFirstTag(e, "mint")
	assert.Equal(t, mint.ToBase58(), value)
	value, _ = library.GetFirstTag(e, "payer")
	assert.Equal(t, payer.PublicKey.ToBase58(), value)
	value, _ = library.GetFirstTag(e, "amount")
	assert.Equal(t, "10000000", value)

	var c Content
	require.NoError(t, json.Unmarshal([]byte(e.Content), &c))
	assert.Equal(t, Content{Name: "Art #1", Symbol: "ART", URI: "ipfs://abc"}, c)

	select {
	case published := <-publish:
		assert.Equal(t, e.ID, published.ID)
	case <-time.After(time.Second):
		t.Fatal("receipt was not published")
	}
}

func TestPendingSendsStopOnTerminate(t *testing.T) {
	wallet, err := actors.NewWallet()
	require.NoError(t, err)
	recorder := NewRecorder(wallet, make(chan nostr.Event))
	stop := make(chan struct{})
	recorder.terminate = stop
	rt := builtin.NewRuntime(accounts.New(), replay.New())
	rt.AddObserver(recorder)
	payer := types.NewAccount()
	_, err = rt.Airdrop(payer.PublicKey, 1_000_000_000)
	require.NoError(t, err)
	_, err = pay(t, rt, payer, 1, 10_000_000)
	require.NoError(t, err)
	require.Len(t, recorder.Receipts(), 1)

	close(stop)
	done := make(chan struct{})
	go func() {
		recorder.sending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send still blocked after terminate")
	}
}
