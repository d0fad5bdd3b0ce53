package runtime

import (
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mintgate/engine/actors"
	"mintgate/engine/pda"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

type fnProgram struct {
	id common.PublicKey
	fn func(ctx *Context, data []byte) error
}

func (p *fnProgram) ID() common.PublicKey { return p.id }

func (p *fnProgram) Process(ctx *Context, data []byte) error { return p.fn(ctx, data) }

func newProgram(fn func(ctx *Context, data []byte) error) *fnProgram {
	return &fnProgram{id: types.NewAccount().PublicKey, fn: fn}
}

func setup(t *testing.T, programs ...Program) (*Runtime, types.Account) {
	t.Helper()
	rt := New(accounts.New(), replay.New(), programs...)
	payer := types.NewAccount()
	_, err := rt.Airdrop(payer.PublicKey, 1_000_000_000)
	require.NoError(t, err)
	return rt, payer
}

func put(t *testing.T, rt *Runtime, addr common.PublicKey, acc accounts.Account) {
	t.Helper()
	txn := rt.Ledger().Begin()
	txn.Put(addr, acc)
	require.NoError(t, txn.Commit())
}

// writer sets data[0] of its first account to the instruction's first byte.
func writer() *fnProgram {
	return newProgram(func(ctx *Context, data []byte) error {
		key, err := ctx.Key(0)
		if err != nil {
			return err
		}
		acc, err := ctx.Load(key)
		if err != nil {
			return err
		}
		acc.Data = []byte{data[0]}
		acc.Space = 1
		return ctx.Store(key, acc)
	})
}

var errBoom = errors.New("boom")

func failer() *fnProgram {
	return newProgram(func(ctx *Context, data []byte) error { return errBoom })
}

func signerMeta(key common.PublicKey) types.AccountMeta {
	return types.AccountMeta{PubKey: key, IsSigner: true, IsWritable: true}
}

func TestCommitAndReplay(t *testing.T) {
	w := writer()
	rt, payer := setup(t, w)
	target := types.NewAccount().PublicKey
	put(t, rt, target, accounts.Account{Lamports: 1, Owner: w.id})

	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: w.id,
		Accounts:  []types.AccountMeta{{PubKey: target, IsWritable: true}, signerMeta(payer.PublicKey)},
		Data:      []byte{9},
	})
	require.NoError(t, err)
	res, err := rt.Process(tx)
	require.NoError(t, err)
	assert.Equal(t, tx.ID(), res.ID)
	assert.Equal(t, int64(1), res.Slot)
	assert.Equal(t, []byte{9}, rt.Account(target).Data)

	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestTamperedTransactionRejected(t *testing.T) {
	w := writer()
	rt, payer := setup(t, w)
	target := types.NewAccount().PublicKey
	put(t, rt, target, accounts.Account{Lamports: 1, Owner: w.id})

	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: w.id,
		Accounts:  []types.AccountMeta{{PubKey: target, IsWritable: true}, signerMeta(payer.PublicKey)},
		Data:      []byte{1},
	})
	require.NoError(t, err)
	tx.Instructions[0].Data = []byte{2}
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrSignatureFailure)
	assert.Empty(t, rt.Account(target).Data)
}

func TestMissingKeypairRejected(t *testing.T) {
	w := writer()
	other := types.NewAccount()
	_, err := NewTransaction(nil, types.Instruction{
		ProgramID: w.id,
		Accounts:  []types.AccountMeta{signerMeta(other.PublicKey)},
	})
	assert.ErrorIs(t, err, ErrSignatureFailure)
}

func TestFailedInstructionRollsBackWholeTransaction(t *testing.T) {
	w := writer()
	f := failer()
	rt, payer := setup(t, w, f)
	target := types.NewAccount().PublicKey
	put(t, rt, target, accounts.Account{Lamports: 1, Owner: w.id})

	tx, err := NewTransaction([]types.Account{payer},
		types.Instruction{
			ProgramID: w.id,
			Accounts:  []types.AccountMeta{{PubKey: target, IsWritable: true}, signerMeta(payer.PublicKey)},
			Data:      []byte{7},
		},
		types.Instruction{ProgramID: f.id, Accounts: []types.AccountMeta{signerMeta(payer.PublicKey)}},
	)
	require.NoError(t, err)
	_, err = rt.Process(tx)
	require.ErrorIs(t, err, errBoom)
	var ixErr *InstructionError
	require.True(t, errors.As(err, &ixErr))
	assert.Equal(t, 1, ixErr.Index)
	assert.Equal(t, f.id, ixErr.Program)
	assert.Empty(t, rt.Account(target).Data)
}

func TestAccountRules(t *testing.T) {
	w := writer()
	rt, payer := setup(t, w)
	foreign := types.NewAccount().PublicKey
	put(t, rt, foreign, accounts.Account{Lamports: 1, Owner: actors.TokenProgramID})
	owned := types.NewAccount().PublicKey
	put(t, rt, owned, accounts.Account{Lamports: 1, Owner: w.id})

	run := func(meta types.AccountMeta) error {
		tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
			ProgramID: w.id,
			Accounts:  []types.AccountMeta{meta, signerMeta(payer.PublicKey)},
			Data:      []byte{1},
		})
		require.NoError(t, err)
		_, err = rt.Process(tx)
		return err
	}
	assert.ErrorIs(t, run(types.AccountMeta{PubKey: foreign, IsWritable: true}), ErrExternalAccountModified)
	assert.ErrorIs(t, run(types.AccountMeta{PubKey: owned}), ErrReadonlyAccount)
	assert.NoError(t, run(types.AccountMeta{PubKey: owned, IsWritable: true}))
}

func TestLamportsMustBalance(t *testing.T) {
	minter := newProgram(func(ctx *Context, data []byte) error {
		key, _ := ctx.Key(0)
		acc, err := ctx.Load(key)
		if err != nil {
			return err
		}
		acc.Lamports += 5
		return ctx.Store(key, acc)
	})
	rt, payer := setup(t, minter)
	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: minter.id,
		Accounts:  []types.AccountMeta{signerMeta(payer.PublicKey)},
	})
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrUnbalancedInstruction)
	assert.Equal(t, uint64(1_000_000_000), rt.Account(payer.PublicKey).Lamports)
}

func TestSignerPrivilege(t *testing.T) {
	callee := newProgram(func(ctx *Context, data []byte) error {
		key, err := ctx.Key(0)
		if err != nil {
			return err
		}
		if !ctx.IsSigner(key) {
			return errors.New("callee expected a signer")
		}
		return nil
	})
	var vault common.PublicKey
	var vaultSeeds [][]byte
	caller := newProgram(func(ctx *Context, data []byte) error {
		ix := types.Instruction{
			ProgramID: callee.id,
			Accounts:  []types.AccountMeta{{PubKey: vault, IsSigner: true}},
		}
		if data[0] == 1 {
			return ctx.InvokeSigned(ix, vaultSeeds)
		}
		return ctx.Invoke(ix)
	})
	var bump uint8
	var err error
	vault, bump, err = pda.Find(caller.id, []byte("vault"))
	require.NoError(t, err)
	vaultSeeds = [][]byte{[]byte("vault"), {bump}}

	rt, payer := setup(t, caller, callee)
	run := func(signed byte) error {
		tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
			ProgramID: caller.id,
			Accounts:  []types.AccountMeta{signerMeta(payer.PublicKey), {PubKey: vault}},
			Data:      []byte{signed},
		})
		require.NoError(t, err)
		_, err = rt.Process(tx)
		return err
	}
	assert.ErrorIs(t, run(0), ErrPrivilegeEscalation)
	assert.NoError(t, run(1))
}

func TestWritableCannotBeEscalated(t *testing.T) {
	w := writer()
	target := types.NewAccount().PublicKey
	caller := newProgram(func(ctx *Context, data []byte) error {
		return ctx.Invoke(types.Instruction{
			ProgramID: w.id,
			Accounts:  []types.AccountMeta{{PubKey: target, IsWritable: true}},
			Data:      []byte{1},
		})
	})
	rt, payer := setup(t, caller, w)
	put(t, rt, target, accounts.Account{Lamports: 1, Owner: w.id})
	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: caller.id,
		Accounts:  []types.AccountMeta{signerMeta(payer.PublicKey), {PubKey: target}},
	})
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrPrivilegeEscalation)
}

func TestCallDepthLimit(t *testing.T) {
	var deepest int
	var self *fnProgram
	self = newProgram(func(ctx *Context, data []byte) error {
		deepest = ctx.Depth()
		return ctx.Invoke(types.Instruction{ProgramID: self.id})
	})
	rt, payer := setup(t, self)
	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: self.id,
		Accounts:  []types.AccountMeta{signerMeta(payer.PublicKey)},
	})
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrCallDepth)
	assert.Equal(t, MaxCallDepth, deepest)
}

func TestFailedNestedCallIsUndone(t *testing.T) {
	target := types.NewAccount().PublicKey
	mine := types.NewAccount().PublicKey
	var callerID common.PublicKey
	partial := newProgram(func(ctx *Context, data []byte) error {
		acc, err := ctx.Load(target)
		if err != nil {
			return err
		}
		acc.Data, acc.Space = []byte{1}, 1
		if err = ctx.Store(target, acc); err != nil {
			return err
		}
		return errBoom
	})
	caller := newProgram(func(ctx *Context, data []byte) error {
		err := ctx.Invoke(types.Instruction{
			ProgramID: partial.id,
			Accounts:  []types.AccountMeta{{PubKey: target, IsWritable: true}},
		})
		if !errors.Is(err, errBoom) {
			return errors.New("expected nested failure")
		}
		acc, _ := ctx.Load(mine)
		acc.Data, acc.Space = []byte{2}, 1
		return ctx.Store(mine, acc)
	})
	callerID = caller.id
	rt, payer := setup(t, caller, partial)
	put(t, rt, target, accounts.Account{Lamports: 1, Owner: partial.id})
	put(t, rt, mine, accounts.Account{Lamports: 1, Owner: callerID})

	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: caller.id,
		Accounts: []types.AccountMeta{
			signerMeta(payer.PublicKey),
			{PubKey: target, IsWritable: true},
			{PubKey: mine, IsWritable: true},
		},
	})
	require.NoError(t, err)
	_, err = rt.Process(tx)
	require.NoError(t, err)
	assert.Empty(t, rt.Account(target).Data)
	assert.Equal(t, []byte{2}, rt.Account(mine).Data)
}

func TestInstructionAt(t *testing.T) {
	var seen []common.PublicKey
	var errs []error
	inspector := newProgram(func(ctx *Context, data []byte) error {
		ix, err := ctx.InstructionAt(actors.InstructionsSysvarID, int(int8(data[0])))
		errs = append(errs, err)
		seen = append(seen, ix.ProgramID)
		return nil
	})
	noop := newProgram(func(ctx *Context, data []byte) error { return nil })
	rt, payer := setup(t, inspector, noop)
	sysvar := types.AccountMeta{PubKey: actors.InstructionsSysvarID}
	payerMeta := signerMeta(payer.PublicKey)
	tx, err := NewTransaction([]types.Account{payer},
		types.Instruction{ProgramID: noop.id, Accounts: []types.AccountMeta{payerMeta}},
		types.Instruction{ProgramID: inspector.id, Accounts: []types.AccountMeta{payerMeta, sysvar}, Data: []byte{0}},
		types.Instruction{ProgramID: inspector.id, Accounts: []types.AccountMeta{payerMeta, sysvar}, Data: []byte{0xfe}},
		types.Instruction{ProgramID: inspector.id, Accounts: []types.AccountMeta{payerMeta, sysvar}, Data: []byte{5}},
	)
	require.NoError(t, err)
	_, err = rt.Process(tx)
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Equal(t, inspector.id, seen[0])
	assert.Equal(t, noop.id, seen[1])
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.ErrorIs(t, errs[2], ErrInstructionIndex)

	fake := newProgram(func(ctx *Context, data []byte) error {
		_, err := ctx.InstructionAt(payer.PublicKey, 0)
		return err
	})
	rt.Register(fake)
	tx, err = NewTransaction([]types.Account{payer}, types.Instruction{ProgramID: fake.id, Accounts: []types.AccountMeta{payerMeta}})
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrInvalidSysvar)
}

type recorder struct{ ids []string }

func (r *recorder) Committed(tx *Transaction, result Result) { r.ids = append(r.ids, result.ID) }

func TestObserversOnlySeeCommits(t *testing.T) {
	noop := newProgram(func(ctx *Context, data []byte) error { return nil })
	f := failer()
	rt, payer := setup(t, noop, f)
	obs := &recorder{}
	rt.AddObserver(obs)
	payerMeta := signerMeta(payer.PublicKey)

	good, err := NewTransaction([]types.Account{payer}, types.Instruction{ProgramID: noop.id, Accounts: []types.AccountMeta{payerMeta}})
	require.NoError(t, err)
	bad, err := NewTransaction([]types.Account{payer}, types.Instruction{ProgramID: f.id, Accounts: []types.AccountMeta{payerMeta}})
	require.NoError(t, err)
	_, err = rt.Process(good)
	require.NoError(t, err)
	_, err = rt.Process(bad)
	require.Error(t, err)
	assert.Equal(t, []string{good.ID()}, obs.ids)
}

func TestUnknownProgram(t *testing.T) {
	rt, payer := setup(t)
	tx, err := NewTransaction([]types.Account{payer}, types.Instruction{
		ProgramID: types.NewAccount().PublicKey,
		Accounts:  []types.AccountMeta{signerMeta(payer.PublicKey)},
	})
	require.NoError(t, err)
	_, err = rt.Process(tx)
	assert.ErrorIs(t, err, ErrUnknownProgram)
}
