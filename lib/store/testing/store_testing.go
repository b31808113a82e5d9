package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ValentinKolb/mKV/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func() store.IStore

// RunIStoreTests runs a comprehensive test suite for an IStore implementation.
func RunIStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Snapshot", func(t *testing.T) {
			testSnapshot(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("LoadReplaces", func(t *testing.T) {
			testLoadReplaces(t, factory())
		})

		t.Run("LoadPartial", func(t *testing.T) {
			testLoadPartial(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentDisjointWrites", func(t *testing.T) {
			testConcurrentDisjointWrites(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// entriesToMap converts a snapshot into a map and fails on duplicate keys
func entriesToMap(t testing.TB, entries []store.Entry) map[string]string {
	t.Helper()
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, dup := m[e.Key]; dup {
			t.Errorf("Snapshot contains key %s twice", e.Key)
		}
		m[e.Key] = e.Value
	}
	return m
}

// failingReader returns data first and then a non EOF error
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	testKey := "test-key"

	s.Set(testKey, "test-value1")

	result, exists := s.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if result != "test-value1" {
		t.Errorf("Expected value %s, got %s", "test-value1", result)
	}

	s.Set(testKey, "test-value2")

	result, exists = s.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after overwrite", testKey)
	}
	if result != "test-value2" {
		t.Errorf("Expected value %s, got %s", "test-value2", result)
	}

	if _, exists = s.Get("nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	if s.Len() != 1 {
		t.Errorf("Expected Len() 1, got %d", s.Len())
	}
}

func testDelete(t *testing.T, s store.IStore) {
	s.Set("delete-key", "value")

	if !s.Delete("delete-key") {
		t.Errorf("Expected first Delete to report a removal")
	}
	if _, exists := s.Get("delete-key"); exists {
		t.Errorf("Expected key to be gone after Delete")
	}

	// deleting twice leaves the same state as deleting once
	if s.Delete("delete-key") {
		t.Errorf("Expected second Delete to report no removal")
	}
	if s.Delete("never-set") {
		t.Errorf("Expected Delete of unknown key to report no removal")
	}

	// a new Set makes the key deletable again
	s.Set("delete-key", "value2")
	if !s.Delete("delete-key") {
		t.Errorf("Expected Delete after re-Set to report a removal")
	}

	if s.Len() != 0 {
		t.Errorf("Expected empty store, got Len() %d", s.Len())
	}
}

func testSnapshot(t *testing.T, s store.IStore) {
	if entries := s.Snapshot(); len(entries) != 0 {
		t.Errorf("Expected empty snapshot, got %d entries", len(entries))
	}

	expected := map[string]string{"a": "1", "b": "2", "c": "3"}
	for k, v := range expected {
		s.Set(k, v)
	}

	snap := s.Snapshot()

	// mutations after the snapshot must not change it
	s.Set("d", "4")
	s.Delete("a")

	got := entriesToMap(t, snap)
	if len(got) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(got))
	}
	for k, v := range expected {
		if got[k] != v {
			t.Errorf("Snapshot mismatch for key %s: expected %s, got %s", k, v, got[k])
		}
	}
}

func testSaveLoad(t *testing.T, factory StoreFactory) {
	s1 := factory()
	s2 := factory()

	numEntries := 1000
	for i := 0; i < numEntries; i++ {
		s1.Set(fmt.Sprintf("save-load-test-key-%d", i), fmt.Sprintf("save-load-test-value-%d", i))
	}
	s1.Set("empty-value", "")
	s1.Set("with spaces", "a value with spaces")

	var buf bytes.Buffer
	written, err := s1.Save(&buf)
	if err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if written != numEntries+2 {
		t.Errorf("Expected %d entries written, got %d", numEntries+2, written)
	}

	loaded, err := s2.Load(&buf)
	if err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}
	if loaded != written {
		t.Errorf("Expected %d entries loaded, got %d", written, loaded)
	}

	before := entriesToMap(t, s1.Snapshot())
	after := entriesToMap(t, s2.Snapshot())
	if len(before) != len(after) {
		t.Fatalf("Expected %d keys after Load, got %d", len(before), len(after))
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("Value mismatch for key %s: expected %q, got %q", k, v, after[k])
		}
	}
}

func testLoadReplaces(t *testing.T, s store.IStore) {
	s.Set("old-key", "old-value")
	s.Set("shared", "old")

	n, err := s.Load(strings.NewReader("shared\nnew\nnew-key\nnew-value\n"))
	if err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 entries loaded, got %d", n)
	}

	if _, ok := s.Get("old-key"); ok {
		t.Errorf("Expected Load to clear keys that are not in the snapshot")
	}
	if v, _ := s.Get("shared"); v != "new" {
		t.Errorf("Expected shared=new, got %s", v)
	}
	if v, _ := s.Get("new-key"); v != "new-value" {
		t.Errorf("Expected new-key=new-value, got %s", v)
	}
}

func testLoadPartial(t *testing.T, s store.IStore) {
	// odd line count: the unpaired trailing key is dropped
	n, err := s.Load(strings.NewReader("k1\nv1\nk2\nv2\norphan\n"))
	if err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}
	if n != 2 || s.Len() != 2 {
		t.Errorf("Expected 2 entries, got n=%d Len()=%d", n, s.Len())
	}
	if _, ok := s.Get("orphan"); ok {
		t.Errorf("Expected trailing unpaired key to be dropped")
	}

	// missing final newline still yields the last value
	if _, err := s.Load(strings.NewReader("k\nv")); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Errorf("Expected k=v, got %q (found=%v)", v, ok)
	}

	// a read error keeps what was read before
	readErr := errors.New("disk on fire")
	n, err = s.Load(&failingReader{data: []byte("a\n1\nb\n2\n"), err: readErr})
	if !errors.Is(err, readErr) {
		t.Fatalf("Expected read error, got %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 entries loaded before the error, got %d", n)
	}
	if _, ok := s.Get("k"); ok {
		t.Errorf("Expected store to be cleared before loading")
	}
	if v, _ := s.Get("b"); v != "2" {
		t.Errorf("Expected b=2 from the partial load, got %q", v)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	s.Set("", "empty-key")
	if v, ok := s.Get(""); !ok || v != "empty-key" {
		t.Errorf("Expected empty key to be stored")
	}

	s.Set("empty-value", "")
	if v, ok := s.Get("empty-value"); !ok || v != "" {
		t.Errorf("Expected empty value to be stored and found")
	}

	// keys are case-sensitive
	s.Set("Key", "upper")
	s.Set("key", "lower")
	if v, _ := s.Get("Key"); v != "upper" {
		t.Errorf("Expected Key=upper, got %s", v)
	}
	if v, _ := s.Get("key"); v != "lower" {
		t.Errorf("Expected key=lower, got %s", v)
	}

	large := strings.Repeat("x", 1<<20)
	s.Set("large", large)
	if v, _ := s.Get("large"); len(v) != len(large) {
		t.Errorf("Expected large value of %d bytes, got %d", len(large), len(v))
	}
}

func testConcurrentDisjointWrites(t *testing.T, s store.IStore) {
	numWorkers := 50
	keysPerWorker := 100

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < keysPerWorker; i++ {
				s.Set(fmt.Sprintf("w%d-k%d", worker, i), fmt.Sprintf("%d", i))
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != numWorkers*keysPerWorker {
		t.Fatalf("Expected %d keys, got %d (lost updates)", numWorkers*keysPerWorker, s.Len())
	}

	keys := make([]string, 0, s.Len())
	for _, e := range s.Snapshot() {
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] {
			t.Errorf("Duplicate key %s in snapshot", keys[i])
		}
	}
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	type operation struct {
		op    string
		key   string
		value string
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			op = "set"
		case 7, 8:
			op = "get"
		case 9:
			op = "delete"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		operations[i] = operation{op, key, fmt.Sprintf("value-%d", i)}
	}

	numWorkers := 8
	opsPerWorker := numOperations / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers + 1)

	// a concurrent reader taking snapshots must never see duplicates
	stop := make(chan struct{})
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				entriesToMap(t, s.Snapshot())
			}
		}
	}()

	var workers sync.WaitGroup
	workers.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer workers.Done()
			defer wg.Done()

			start := workerId * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]
				switch op.op {
				case "set":
					s.Set(op.key, op.value)
				case "get":
					s.Get(op.key)
				case "delete":
					s.Delete(op.key)
				}
			}
		}(w)
	}

	workers.Wait()
	close(stop)
	wg.Wait()

	// every key found in the snapshot must be readable with the same value
	for _, e := range s.Snapshot() {
		v, ok := s.Get(e.Key)
		if !ok {
			t.Errorf("Consistency error: Key %s in snapshot but Get returned false", e.Key)
			continue
		}
		if v != e.Value {
			t.Errorf("Value mismatch for key %s between snapshot and Get", e.Key)
		}
	}
}
