package replay

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"

	"github.com/sasha-s/go-deadlock"
	"mintgate/engine/actors"
	"mintgate/engine/library"
)

// DB remembers the ID of every transaction that has been committed, so a
// signed transaction can only ever be applied once.
type DB struct {
	data  map[string]int64
	mutex *deadlock.Mutex
}

type Mapped map[string]int64

func New() *DB {
	return &DB{
		data:  make(map[string]int64),
		mutex: &deadlock.Mutex{},
	}
}

// Seen reports whether id has already been recorded.
func (s *DB) Seen(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.data[id]
	return ok
}

// Record stores id with the slot it landed in. It returns false if id was
// already present.
func (s *DB) Record(id string, slot int64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.data[id]; ok {
		return false
	}
	s.upsert(id, slot)
	return true
}

func (s *DB) upsert(id string, slot int64) {
	s.data[id] = slot
}

func (s *DB) GetMap() Mapped {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	m := make(Mapped, len(s.data))
	for id, slot := range s.data {
		m[id] = slot
	}
	return m
}

// Height is the highest slot recorded, or 0.
func (s *DB) Height() (h int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, slot := range s.data {
		if slot > h {
			h = slot
		}
	}
	return
}

// Latest returns the n most recently recorded IDs, newest first.
func (s *DB) Latest(n int) []string {
	m := s.GetMap()
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if m[ids[i]] == m[ids[j]] {
			return ids[i] < ids[j]
		}
		return m[ids[i]] > m[ids[j]]
	})
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func (s *DB) restoreFromDisk(r io.Reader) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	err := json.NewDecoder(r).Decode(&s.data)
	if err != nil {
		if err != io.EOF {
			library.LogCLI(err.Error(), 0)
		}
	}
	if s.data == nil {
		s.data = make(map[string]int64)
	}
}

func (s *DB) persistToDisk() {
	s.mutex.Lock()
	b, err := json.MarshalIndent(s.data, "", " ")
	s.mutex.Unlock()
	if err != nil {
		library.LogCLI(err.Error(), 0)
		return
	}
	if err = actors.Write("replay", "current", b); err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

// Start loads the processed set from disk, closes ready, and blocks until
// the terminate channel closes.
func (s *DB) Start(ready chan struct{}, persist bool) {
	actors.GetWaitGroup().Add(1)
	if persist {
		if f, ok := actors.Open("replay", "current"); ok {
			s.restoreFromDisk(f)
			f.Close()
		}
	}
	close(ready)
	<-actors.GetTerminateChan()
	if persist {
		s.persistToDisk()
	}
	actors.GetWaitGroup().Done()
	library.LogCLI("Replay Mind has shut down", 4)
}

// snapshot is used by tests to exercise the disk format without a root dir.
func (s *DB) snapshot() []byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	b, _ := json.Marshal(s.data)
	return b
}

func restore(b []byte) *DB {
	s := New()
	s.restoreFromDisk(bytes.NewReader(b))
	return s
}
