package mintauth_test

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/builtin"
	"mintgate/programs/mintauth"
	"mintgate/programs/paymentgate"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

const startingBalance = 2_000_000_000

func setup(t *testing.T) (*runtime.Runtime, types.Account) {
	t.Helper()
	rt := builtin.NewRuntime(accounts.New(), replay.New())
	payer := types.NewAccount()
	_, err := rt.Airdrop(payer.PublicKey, startingBalance)
	require.NoError(t, err)
	return rt, payer
}

func direct(t *testing.T, payer types.Account, id uint64) types.Instruction {
	t.Helper()
	ix, err := mintauth.NewCreateSingleNFTInstruction(mintauth.CreateSingleNFTParam{
		Caller: payer.PublicKey,
		Payer:  payer.PublicKey,
		CreateSingleNFTArgs: mintauth.CreateSingleNFTArgs{
			ID: id, Name: "Direct", Symbol: "DIR", URI: "ipfs://direct",
		},
	})
	require.NoError(t, err)
	return ix
}

func mintAddress(t *testing.T, id uint64) common.PublicKey {
	t.Helper()
	mint, _, err := pda.AssetMint(id)
	require.NoError(t, err)
	return mint
}

func TestDirectCallUnauthorized(t *testing.T) {
	rt, payer := setup(t)
	tx, err := runtime.NewTransaction([]types.Account{payer}, direct(t, payer, 1))
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, mintauth.ErrUnauthorized)
	assert.True(t, rt.Account(mintAddress(t, 1)).IsEmpty())
	assert.Equal(t, uint64(startingBalance), rt.Account(payer.PublicKey).Lamports)
}

// impostor forwards its instruction data and accounts to MintAuthorizer.
type impostor struct{ id common.PublicKey }

func (p impostor) ID() common.PublicKey { return p.id }

func (p impostor) Process(ctx *runtime.Context, data []byte) error {
	return ctx.Invoke(types.Instruction{
		ProgramID: mintauth.Program{}.ID(),
		Accounts:  ctx.Accounts,
		Data:      data,
	})
}

func TestImpostorProgramRejected(t *testing.T) {
	rt, payer := setup(t)
	fake := impostor{id: types.NewAccount().PublicKey}
	rt.Register(fake)
	ix := direct(t, payer, 2)
	ix.ProgramID = fake.id
	tx, err := runtime.NewTransaction([]types.Account{payer}, ix)
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, mintauth.ErrUnauthorized)
	assert.True(t, rt.Account(mintAddress(t, 2)).IsEmpty())
}

func TestUnauthorizedInstructionRollsBackPaidMint(t *testing.T) {
	rt, payer := setup(t)
	paid, err := paymentgate.NewInvokeCreateNFTInstruction(paymentgate.InvokeCreateNFTParam{
		Payer: payer.PublicKey,
		InvokeCreateNFTArgs: paymentgate.InvokeCreateNFTArgs{
			ID: 3, Name: "Paid", Symbol: "ART", URI: "ipfs://paid", Amount: paymentgate.MinAmount,
		},
	})
	require.NoError(t, err)
	tx, err := runtime.NewTransaction([]types.Account{payer}, paid, direct(t, payer, 4))
	require.NoError(t, err)
	_, err = rt.Process(tx)
	require.ErrorIs(t, err, mintauth.ErrUnauthorized)
	var ixErr *runtime.InstructionError
	require.ErrorAs(t, err, &ixErr)
	assert.Equal(t, 1, ixErr.Index)
	assert.True(t, rt.Account(mintAddress(t, 3)).IsEmpty())
	assert.True(t, rt.Account(mintAddress(t, 4)).IsEmpty())
	assert.Equal(t, uint64(startingBalance), rt.Account(payer.PublicKey).Lamports)
}

func TestDecodeRejectsForeignData(t *testing.T) {
	_, err := mintauth.DecodeCreateSingleNFT([]byte{0, 1})
	assert.ErrorIs(t, err, mintauth.ErrInstructionFallbackNotFound)
	ix := direct(t, types.NewAccount(), 9)
	args, err := mintauth.DecodeCreateSingleNFT(ix.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), args.ID)
	assert.Equal(t, "ipfs://direct", args.URI)
}
