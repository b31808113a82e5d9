package store

import (
	"errors"
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Entry is a single key–value pair as returned by IStore.Snapshot.
type Entry struct {
	Key   string
	Value string
}

// IStore is the interface for interacting with the in-memory key–value store.
// None of the map operations can fail; they are atomic with respect to each other,
// so no caller ever observes a mutation in progress.
type IStore interface {
	// Set inserts or updates a key–value pair.
	Set(key, value string)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value string, loaded bool)
	// Delete removes a key–value pair and reports whether the key was present.
	Delete(key string) (deleted bool)
	// Snapshot returns a point-in-time copy of all entries in no particular order.
	Snapshot() []Entry
	// Len returns the number of keys currently stored.
	Len() int

	Snapshotter
}

// Snapshotter is implemented by stores that can be written to and restored from a snapshot stream.
// Both methods hold the store lock for their entire duration.
type Snapshotter interface {
	// Save writes every entry to w and returns the number of entries written.
	Save(w io.Writer) (n int, err error)
	// Load clears the store and fills it from r. It returns the number of entries loaded.
	// On a read error the store is left in its partially loaded state.
	Load(r io.Reader) (n int, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                  // 1: Operation failed due to an internal error.
	RetCSnapshotMissing                // 2: The snapshot file does not exist.
	RetCSnapshotCorrupt                // 3: The snapshot file could not be read completely.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCSnapshotMissing:
		return "SnapshotMissing"
	case RetCSnapshotCorrupt:
		return "SnapshotCorrupt"
	default:
		return "Unknown"
	}
}

// HasCode reports whether err (or any error it wraps) is an *Error with the given code.
func HasCode(err error, code RetCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
