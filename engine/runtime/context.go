package runtime

import (
	"bytes"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"mintgate/engine/actors"
	"mintgate/engine/pda"
	"mintgate/state/accounts"
)

// MaxCallDepth counts the top-level instruction as depth 1.
const MaxCallDepth = 4

// execution is the state shared by every frame of one transaction.
type execution struct {
	runtime      *Runtime
	txn          *accounts.Txn
	instructions []types.Instruction
	current      int
	logs         []string
}

// Context is one program frame: the program being run, the accounts it was
// handed and the privileges it holds over them.
type Context struct {
	ProgramID common.PublicKey
	Accounts  []types.AccountMeta

	exec     *execution
	depth    int
	signer   map[common.PublicKey]bool
	writable map[common.PublicKey]bool
}

func newContext(exec *execution, program common.PublicKey, metas []types.AccountMeta, depth int) *Context {
	c := &Context{
		ProgramID: program,
		Accounts:  metas,
		exec:      exec,
		depth:     depth,
		signer:    make(map[common.PublicKey]bool),
		writable:  make(map[common.PublicKey]bool),
	}
	for _, meta := range metas {
		c.signer[meta.PubKey] = c.signer[meta.PubKey] || meta.IsSigner
		c.writable[meta.PubKey] = c.writable[meta.PubKey] || meta.IsWritable
	}
	return c
}

// Depth is 1 for a top-level instruction.
func (c *Context) Depth() int {
	return c.depth
}

// Key returns the i'th account key.
func (c *Context) Key(i int) (common.PublicKey, error) {
	if i < 0 || i >= len(c.Accounts) {
		return common.PublicKey{}, fmt.Errorf("%w: want index %d, have %d accounts", ErrNotEnoughAccountKeys, i, len(c.Accounts))
	}
	return c.Accounts[i].PubKey, nil
}

// Keys returns the first n account keys.
func (c *Context) Keys(n int) ([]common.PublicKey, error) {
	if len(c.Accounts) < n {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughAccountKeys, n, len(c.Accounts))
	}
	keys := make([]common.PublicKey, n)
	for i := range keys {
		keys[i] = c.Accounts[i].PubKey
	}
	return keys, nil
}

func (c *Context) IsSigner(addr common.PublicKey) bool {
	return c.signer[addr]
}

func (c *Context) IsWritable(addr common.PublicKey) bool {
	return c.writable[addr]
}

func (c *Context) has(addr common.PublicKey) bool {
	_, ok := c.signer[addr]
	return ok
}

// Load reads an account this frame was handed.
func (c *Context) Load(addr common.PublicKey) (accounts.Account, error) {
	if !c.has(addr) {
		return accounts.Account{}, fmt.Errorf("%w: %s", ErrMissingAccount, addr.ToBase58())
	}
	return c.exec.txn.Get(addr), nil
}

// Store writes acc back. A frame may credit any writable account but may
// only debit, reassign or rewrite accounts its program owns.
func (c *Context) Store(addr common.PublicKey, acc accounts.Account) error {
	if !c.has(addr) {
		return fmt.Errorf("%w: %s", ErrMissingAccount, addr.ToBase58())
	}
	old := c.exec.txn.Get(addr)
	if unchanged(old, acc) {
		return nil
	}
	if !c.writable[addr] {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, addr.ToBase58())
	}
	owned := old.Owner == c.ProgramID
	switch {
	case old.Executable != acc.Executable:
		return fmt.Errorf("%w: executable flag of %s", ErrExternalAccountModified, addr.ToBase58())
	case old.Owner != acc.Owner && !owned:
		return fmt.Errorf("%w: owner of %s", ErrExternalAccountModified, addr.ToBase58())
	case (old.Space != acc.Space || !bytes.Equal(old.Data, acc.Data)) && !owned:
		return fmt.Errorf("%w: data of %s", ErrExternalAccountModified, addr.ToBase58())
	case acc.Lamports < old.Lamports && !owned:
		return fmt.Errorf("%w: debit of %s", ErrExternalAccountModified, addr.ToBase58())
	}
	c.exec.txn.Put(addr, acc)
	return nil
}

func unchanged(a, b accounts.Account) bool {
	return a.Lamports == b.Lamports && a.Owner == b.Owner && a.Space == b.Space &&
		a.Executable == b.Executable && bytes.Equal(a.Data, b.Data)
}

// Log appends a line to the transaction's program log.
func (c *Context) Log(format string, args ...interface{}) {
	c.exec.log("Program log: " + fmt.Sprintf(format, args...))
}

// Invoke calls another program with this frame's privileges.
func (c *Context) Invoke(ix types.Instruction) error {
	return c.InvokeSigned(ix)
}

// InvokeSigned calls another program. Each seed list must re-derive, under
// the calling program, an address that the callee will then see as a signer.
// If the callee fails every write it made is undone before the error is
// returned.
func (c *Context) InvokeSigned(ix types.Instruction, seeds ...[][]byte) error {
	if c.depth+1 > MaxCallDepth {
		return fmt.Errorf("%w: %d", ErrCallDepth, c.depth+1)
	}
	program, ok := c.exec.runtime.program(ix.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID.ToBase58())
	}
	derived := make(map[common.PublicKey]bool, len(seeds))
	for _, s := range seeds {
		addr, err := pda.Create(c.ProgramID, s)
		if err != nil {
			return fmt.Errorf("%w: signer seeds: %s", ErrPrivilegeEscalation, err.Error())
		}
		derived[addr] = true
	}
	for _, meta := range ix.Accounts {
		if !c.has(meta.PubKey) {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.PubKey.ToBase58())
		}
		if meta.IsSigner && !c.signer[meta.PubKey] && !derived[meta.PubKey] {
			return fmt.Errorf("%w: %s is not a signer", ErrPrivilegeEscalation, meta.PubKey.ToBase58())
		}
		if meta.IsWritable && !c.writable[meta.PubKey] {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.PubKey.ToBase58())
		}
	}
	sp := c.exec.txn.Savepoint()
	callee := newContext(c.exec, ix.ProgramID, ix.Accounts, c.depth+1)
	if err := c.exec.run(callee, program, ix.Data); err != nil {
		c.exec.txn.RollbackTo(sp)
		return err
	}
	return nil
}

// InstructionAt returns the top-level instruction relative to the one
// currently executing. sysvar must be the instructions sysvar and must have
// been handed to this frame.
func (c *Context) InstructionAt(sysvar common.PublicKey, relative int) (types.Instruction, error) {
	if sysvar != actors.InstructionsSysvarID || !c.has(sysvar) {
		return types.Instruction{}, fmt.Errorf("%w: %s", ErrInvalidSysvar, sysvar.ToBase58())
	}
	i := c.exec.current + relative
	if i < 0 || i >= len(c.exec.instructions) {
		return types.Instruction{}, fmt.Errorf("%w: %d", ErrInstructionIndex, i)
	}
	ix := c.exec.instructions[i]
	cp := types.Instruction{
		ProgramID: ix.ProgramID,
		Accounts:  append([]types.AccountMeta(nil), ix.Accounts...),
		Data:      append([]byte(nil), ix.Data...),
	}
	return cp, nil
}

func (e *execution) log(line string) {
	e.logs = append(e.logs, line)
}

func (e *execution) run(ctx *Context, program Program, data []byte) error {
	e.log(fmt.Sprintf("Program %s invoke [%d]", ctx.ProgramID.ToBase58(), ctx.depth))
	if err := program.Process(ctx, data); err != nil {
		e.log(fmt.Sprintf("Program %s failed: %s", ctx.ProgramID.ToBase58(), err.Error()))
		return err
	}
	e.log(fmt.Sprintf("Program %s success", ctx.ProgramID.ToBase58()))
	return nil
}
