package lstore

import (
	"io"
	"sync"

	"github.com/ValentinKolb/mKV/lib/snapshot"
	"github.com/ValentinKolb/mKV/lib/store"
)

type storeImpl struct {
	mu   sync.Mutex
	data map[string]string
}

// NewLocalStore creates a new, empty local store instance.
// All operations are guarded by a single mutex.
func NewLocalStore() store.IStore {
	return &storeImpl{
		data: make(map[string]string),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *storeImpl) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	return val, ok
}

func (s *storeImpl) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *storeImpl) Snapshot() []store.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]store.Entry, 0, len(s.data))
	for k, v := range s.data {
		entries = append(entries, store.Entry{Key: k, Value: v})
	}
	return entries
}

func (s *storeImpl) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Save streams all entries to w.
//
// Thread-safety: the lock is held until the last pair is flushed, every other
// operation on the store blocks for the duration of the write.
func (s *storeImpl) Save(w io.Writer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := snapshot.NewEncoder(w)
	n := 0
	for k, v := range s.data {
		if err := enc.WritePair(k, v); err != nil {
			return n, err
		}
		n++
	}
	return n, enc.Flush()
}

// Load clears the store and reads pairs from r until EOF.
//
// Thread-safety: the lock is held for the whole read, no reader observes a half
// loaded store unless the read fails (then the partial state is kept).
func (s *storeImpl) Load(r io.Reader) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.data)

	dec := snapshot.NewDecoder(r)
	n := 0
	for {
		key, value, err := dec.ReadPair()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		s.data[key] = value
		n++
	}
}
