package accounts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"mintgate/engine/actors"
	"mintgate/engine/library"
)

// DB is the committed ledger. Programs never touch it directly: the runtime
// opens a Txn per transaction and commits it only when every instruction
// succeeded.
type DB struct {
	data  map[common.PublicKey]Account
	mutex *deadlock.Mutex
}

func New() *DB {
	return &DB{
		data:  make(map[common.PublicKey]Account),
		mutex: &deadlock.Mutex{},
	}
}

// Get returns a copy of the committed account at addr.
func (s *DB) Get(addr common.PublicKey) Account {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.get(addr)
}

func (s *DB) get(addr common.PublicKey) Account {
	return s.data[addr].clone()
}

func (s *DB) GetMap() Mapped {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.getMap()
}

func (s *DB) getMap() Mapped {
	m := make(Mapped, len(s.data))
	for addr, acc := range s.data {
		m[addr] = acc.clone()
	}
	return m
}

// Addresses lists every non-empty address owned by owner.
func (s *DB) Addresses(owner common.PublicKey) (r []common.PublicKey) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for addr, acc := range s.data {
		if acc.Owner == owner {
			r = append(r, addr)
		}
	}
	return
}

// Len is the number of non-empty accounts.
func (s *DB) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.data)
}

func (s *DB) upsert(addr common.PublicKey, acc Account) {
	if acc.IsEmpty() {
		delete(s.data, addr)
		return
	}
	s.data[addr] = acc.clone()
}

// Begin opens a copy-on-write view of the ledger.
func (s *DB) Begin() *Txn {
	return &Txn{base: s, dirty: make(map[common.PublicKey]Account)}
}

// Txn buffers writes on top of the committed ledger until Commit.
type Txn struct {
	base  *DB
	dirty map[common.PublicKey]Account
	done  bool
}

// Get returns a copy of the account as this transaction sees it.
func (t *Txn) Get(addr common.PublicKey) Account {
	if acc, ok := t.dirty[addr]; ok {
		return acc.clone()
	}
	return t.base.Get(addr)
}

func (t *Txn) Put(addr common.PublicKey, acc Account) {
	t.dirty[addr] = acc.clone()
}

// Savepoint captures the buffered writes so a failed nested call can be undone.
type Savepoint map[common.PublicKey]Account

func (t *Txn) Savepoint() Savepoint {
	sp := make(Savepoint, len(t.dirty))
	for addr, acc := range t.dirty {
		sp[addr] = acc.clone()
	}
	return sp
}

// Before returns the account as it was when sp was taken.
func (t *Txn) Before(sp Savepoint, addr common.PublicKey) Account {
	if acc, ok := sp[addr]; ok {
		return acc.clone()
	}
	return t.base.Get(addr)
}

func (t *Txn) RollbackTo(sp Savepoint) {
	t.dirty = make(map[common.PublicKey]Account, len(sp))
	for addr, acc := range sp {
		t.dirty[addr] = acc
	}
}

// Touched lists every address written by this transaction.
func (t *Txn) Touched() []common.PublicKey {
	return maps.Keys(t.dirty)
}

// Commit applies every buffered write atomically. A Txn can be committed once.
func (t *Txn) Commit() error {
	if t.done {
		return fmt.Errorf("transaction view already closed")
	}
	t.done = true
	t.base.mutex.Lock()
	defer t.base.mutex.Unlock()
	for addr, acc := range t.dirty {
		t.base.upsert(addr, acc)
	}
	return nil
}

// Discard drops every buffered write.
func (t *Txn) Discard() {
	t.done = true
	t.dirty = nil
}

// Credit adds lamports directly to the committed ledger. It is the host
// faucet; programs move lamports through a Txn.
func (s *DB) Credit(addr common.PublicKey, lamports uint64) (uint64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	acc := s.get(addr)
	if acc.Lamports+lamports < acc.Lamports {
		return acc.Lamports, fmt.Errorf("lamport overflow on %s", addr.ToBase58())
	}
	acc.Lamports += lamports
	s.upsert(addr, acc)
	return acc.Lamports, nil
}

// WriteTo streams the committed ledger as JSON.
func (s *DB) WriteTo(w io.Writer) (int64, error) {
	s.mutex.Lock()
	records := make([]record, 0, len(s.data))
	for addr, acc := range s.data {
		records = append(records, record{
			Address:    addr.ToBase58(),
			Lamports:   acc.Lamports,
			Owner:      acc.Owner.ToBase58(),
			Space:      acc.Space,
			Data:       acc.Data,
			Executable: acc.Executable,
		})
	}
	s.mutex.Unlock()
	b, err := json.MarshalIndent(records, "", " ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// ReadFrom replaces the committed ledger with a JSON stream written by WriteTo.
func (s *DB) ReadFrom(r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	var records []record
	if len(b) > 0 {
		if err = json.Unmarshal(b, &records); err != nil {
			return int64(len(b)), err
		}
	}
	data := make(map[common.PublicKey]Account, len(records))
	for _, rec := range records {
		data[common.PublicKeyFromString(rec.Address)] = Account{
			Lamports:   rec.Lamports,
			Owner:      common.PublicKeyFromString(rec.Owner),
			Space:      rec.Space,
			Data:       rec.Data,
			Executable: rec.Executable,
		}
	}
	s.mutex.Lock()
	s.data = data
	s.mutex.Unlock()
	return int64(len(b)), nil
}

// restoreFromDisk loads the flat file written by persistToDisk, if any.
func (s *DB) restoreFromDisk() {
	f, ok := actors.Open("accounts", "current")
	if !ok {
		return
	}
	defer f.Close()
	if _, err := s.ReadFrom(f); err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

func (s *DB) persistToDisk() {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		library.LogCLI(err.Error(), 0)
		return
	}
	if err := actors.Write("accounts", "current", buf.Bytes()); err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

// Start restores the ledger from disk, closes ready, and blocks until the
// terminate channel closes, then flushes the ledger back to disk.
func (s *DB) Start(ready chan struct{}, persist bool) {
	actors.GetWaitGroup().Add(1)
	if persist {
		s.restoreFromDisk()
	}
	close(ready)
	<-actors.GetTerminateChan()
	if persist {
		s.persistToDisk()
	}
	actors.GetWaitGroup().Done()
	library.LogCLI("Accounts Mind has shut down", 4)
}
