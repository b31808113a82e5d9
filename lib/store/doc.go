// Package store defines the interface of the shared in-memory key-value map that
// the mKV server operates on, together with the error type used by the store and
// snapshot layers.
//
// The package focuses on:
//   - A small interface (IStore) covering exactly the operations the protocol needs
//   - A Snapshotter contract that lets the snapshot package stream the store to and from disk
//   - Typed error reporting (Error / RetCode) for persistence failures
//
// Key Components:
//
//   - IStore Interface: Set, Get, Delete, Snapshot and Len. None of these can fail and
//     every call is atomic with respect to every other call. A reader never sees a key
//     whose value is half updated.
//
//   - Snapshotter Interface: Save and Load stream the complete store content while
//     holding the store lock, so a snapshot is always a consistent view. The on-disk
//     format itself lives in the snapshot package.
//
//   - Error System: A return code plus message. The snapshot package uses
//     RetCSnapshotMissing to signal a cold start and RetCSnapshotCorrupt when a
//     snapshot could only be read partially.
//
// Implementations:
//
//	The package includes one implementation of the IStore interface:
//
//	- Local Store (lstore): a map guarded by a single mutex.
//	  Available in the "github.com/ValentinKolb/mKV/lib/store/lstore" package.
//
// The store is created once per process and injected into the server and its
// command dispatcher; there is no package level store instance.
package store
