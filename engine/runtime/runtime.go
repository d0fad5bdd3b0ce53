// Package runtime executes signed transactions against the account ledger.
//
// Every transaction runs on a copy-on-write view of the ledger and is
// committed only when all of its instructions succeed, so a failure anywhere
// in a chain of nested calls undoes every effect of the whole transaction.
package runtime

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/sasha-s/go-deadlock"
	"mintgate/engine/library"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

// Program is an on-ledger program. Process receives the instruction data and
// a frame through which every account read and write must go.
type Program interface {
	ID() common.PublicKey
	Process(ctx *Context, data []byte) error
}

// Observer is told about every committed transaction, after the ledger has
// been updated and the runtime lock released.
type Observer interface {
	Committed(tx *Transaction, result Result)
}

// Result describes a processed transaction. Logs are filled in for failed
// transactions too.
type Result struct {
	ID   string
	Slot int64
	Logs []string
}

type Runtime struct {
	ledger    *accounts.DB
	replay    *replay.DB
	programs  map[common.PublicKey]Program
	observers []Observer
	slot      int64
	mutex     *deadlock.Mutex
}

func New(ledger *accounts.DB, processed *replay.DB, programs ...Program) *Runtime {
	r := &Runtime{
		ledger:   ledger,
		replay:   processed,
		programs: make(map[common.PublicKey]Program),
		slot:     processed.Height(),
		mutex:    &deadlock.Mutex{},
	}
	for _, p := range programs {
		r.Register(p)
	}
	return r
}

// Register makes p callable. A later registration under the same ID wins.
func (r *Runtime) Register(p Program) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.programs[p.ID()] = p
}

func (r *Runtime) AddObserver(o Observer) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.observers = append(r.observers, o)
}

// program is only called while a transaction holds the lock.
func (r *Runtime) program(id common.PublicKey) (Program, bool) {
	p, ok := r.programs[id]
	return p, ok
}

// Account reads the committed ledger.
func (r *Runtime) Account(addr common.PublicKey) accounts.Account {
	return r.ledger.Get(addr)
}

func (r *Runtime) Ledger() *accounts.DB {
	return r.ledger
}

// Airdrop credits a wallet from nowhere. It exists for local ledgers only.
func (r *Runtime) Airdrop(addr common.PublicKey, lamports uint64) (uint64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	balance, err := r.ledger.Credit(addr, lamports)
	if err != nil {
		return balance, err
	}
	library.LogCLI(fmt.Sprintf("airdropped %s to %s", library.FormatLamports(lamports), addr.ToBase58()), 4)
	return balance, nil
}

// Process verifies, executes and commits tx. Transactions are serialized.
func (r *Runtime) Process(tx *Transaction) (Result, error) {
	r.mutex.Lock()
	result, err := r.process(tx)
	observers := append([]Observer(nil), r.observers...)
	r.mutex.Unlock()
	for _, line := range result.Logs {
		library.LogCLI(line, 5)
	}
	if err != nil {
		library.LogCLI(fmt.Sprintf("transaction %s rejected: %s", result.ID, err.Error()), 3)
		return result, err
	}
	library.LogCLI(fmt.Sprintf("transaction %s committed in slot %d", result.ID, result.Slot), 4)
	for _, o := range observers {
		o.Committed(tx, result)
	}
	return result, nil
}

func (r *Runtime) process(tx *Transaction) (Result, error) {
	defer library.ValidateSaneExecutionTime()()
	if err := tx.Verify(); err != nil {
		return Result{}, err
	}
	result := Result{ID: tx.ID()}
	if r.replay.Seen(result.ID) {
		return result, fmt.Errorf("%w: %s", ErrAlreadyProcessed, result.ID)
	}
	exec := &execution{
		runtime:      r,
		txn:          r.ledger.Begin(),
		instructions: tx.Instructions,
	}
	for i, ix := range tx.Instructions {
		exec.current = i
		if err := exec.topLevel(ix); err != nil {
			exec.txn.Discard()
			result.Logs = exec.logs
			return result, &InstructionError{Index: i, Program: ix.ProgramID, Err: err}
		}
	}
	if err := exec.txn.Commit(); err != nil {
		return result, err
	}
	r.slot++
	r.replay.Record(result.ID, r.slot)
	result.Slot = r.slot
	result.Logs = exec.logs
	return result, nil
}

// topLevel runs one signed instruction and checks that it neither created
// nor destroyed lamports.
func (e *execution) topLevel(ix types.Instruction) error {
	program, ok := e.runtime.program(ix.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID.ToBase58())
	}
	sp := e.txn.Savepoint()
	if err := e.run(newContext(e, ix.ProgramID, ix.Accounts, 1), program, ix.Data); err != nil {
		return err
	}
	var before, after uint64
	for _, addr := range e.txn.Touched() {
		before += e.txn.Before(sp, addr).Lamports
		after += e.txn.Get(addr).Lamports
	}
	if before != after {
		return fmt.Errorf("%w: %d != %d", ErrUnbalancedInstruction, before, after)
	}
	return nil
}
