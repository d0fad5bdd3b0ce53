package associatedtoken_test

import (
	"testing"

	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	bsystem "github.com/blocto/solana-go-sdk/program/system"
	btoken "github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mintgate/engine/actors"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/programs/associatedtoken"
	"mintgate/programs/system"
	"mintgate/programs/token"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

func TestCreateHoldingAccount(t *testing.T) {
	rt := runtime.New(accounts.New(), replay.New(), system.Program{}, token.Program{}, associatedtoken.Program{})
	payer := types.NewAccount()
	mint := types.NewAccount()
	_, err := rt.Airdrop(payer.PublicKey, 1_000_000_000)
	require.NoError(t, err)
	process := func(signers []types.Account, ixs ...types.Instruction) error {
		tx, err := runtime.NewTransaction(signers, ixs...)
		require.NoError(t, err)
		_, err = rt.Process(tx)
		return err
	}
	require.NoError(t, process([]types.Account{payer, mint},
		bsystem.CreateAccount(bsystem.CreateAccountParam{
			From: payer.PublicKey, New: mint.PublicKey, Owner: actors.TokenProgramID,
			Lamports: accounts.MinimumBalance(token.MintSize), Space: token.MintSize,
		}),
		btoken.InitializeMint(btoken.InitializeMintParam{Mint: mint.PublicKey, MintAuth: payer.PublicKey}),
	))

	holding, _, err := pda.HoldingAccount(payer.PublicKey, mint.PublicKey)
	require.NoError(t, err)
	create := associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
		Funder:                 payer.PublicKey,
		Owner:                  payer.PublicKey,
		Mint:                   mint.PublicKey,
		AssociatedTokenAccount: holding,
	})
	require.NoError(t, process([]types.Account{payer}, create))

	acc := rt.Account(holding)
	assert.Equal(t, actors.TokenProgramID, acc.Owner)
	state, err := token.DecodeAccount(acc.Data)
	require.NoError(t, err)
	assert.True(t, state.IsInitialized)
	assert.Equal(t, payer.PublicKey, state.Owner)
	assert.Equal(t, mint.PublicKey, state.Mint)
	assert.Equal(t, uint64(0), state.Amount)

	wrong := create
	wrong.Accounts = append([]types.AccountMeta(nil), create.Accounts...)
	wrong.Accounts[1].PubKey = types.NewAccount().PublicKey
	assert.ErrorIs(t, process([]types.Account{payer}, wrong), associatedtoken.ErrInvalidSeeds)
}
