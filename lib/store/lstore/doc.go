// Package lstore implements the local, in-memory key-value store based on the
// store.IStore interface. Data lives in a plain Go map guarded by a single mutex.
//
// Key Features:
//   - Every operation (Set, Get, Delete, Snapshot, Len) takes the same lock
//   - Delete reports whether a key was actually removed
//   - Snapshot returns a copy, callers can iterate it without holding the lock
//   - Save and Load stream the store through the snapshot package codec
//
// Thread Safety:
//
//	All operations are thread-safe and atomic with respect to each other. Save and Load
//	keep the lock for the whole stream, which blocks every other client until the
//	snapshot is written or read. No method holds the lock across network I/O.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	s.Set("name", "redis")
//	value, ok := s.Get("name") // "redis", true
//	removed := s.Delete("name") // true
//	removed = s.Delete("name")  // false
package lstore
