package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("snapshot")

// SaveFile writes the full content of s to the file at path.
// An existing file is truncated first. The write itself happens inside s.Save, which
// holds the store lock, so the file always contains one consistent view of the store.
//
// If the file cannot be opened the store is not touched. If writing fails half way
// the file may be left partially written, there is no atomic replace.
func SaveFile(path string, s store.Snapshotter) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		Logger.Errorf("Couldn't open snapshot file %s for writing: %v", path, err)
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to open snapshot %s: %v", path, err))
	}
	defer file.Close()

	Logger.Infof("Saving data to %s", path)

	n, err := s.Save(file)
	if err != nil {
		Logger.Errorf("Failed to write snapshot %s after %d keys: %v", path, n, err)
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to write snapshot %s: %v", path, err))
	}

	if err := file.Close(); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to close snapshot %s: %v", path, err))
	}

	Logger.Infof("Saved %d keys to %s", n, path)
	return nil
}

// LoadFile replaces the content of s with the snapshot stored at path and returns the
// number of pairs read.
//
// A missing file returns an error with code store.RetCSnapshotMissing and leaves the
// store untouched; callers treat this as a cold start. A read error in the middle of
// the file returns store.RetCSnapshotCorrupt, the store then holds whatever was read
// before the error.
func LoadFile(path string, s store.Snapshotter) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			Logger.Warningf("Couldn't find snapshot file %s, starting with empty store", path)
			return 0, store.NewError(store.RetCSnapshotMissing, fmt.Sprintf("snapshot %s does not exist", path))
		}
		Logger.Errorf("Couldn't open snapshot file %s for reading: %v", path, err)
		return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("failed to open snapshot %s: %v", path, err))
	}
	defer file.Close()

	Logger.Infof("Loading data from %s", path)

	n, err := s.Load(file)
	if err != nil {
		Logger.Errorf("Error reading snapshot %s after %d keys, data might be corrupted: %v", path, n, err)
		return n, store.NewError(store.RetCSnapshotCorrupt, fmt.Sprintf("failed to read snapshot %s: %v", path, err))
	}

	if n == 0 {
		Logger.Infof("Snapshot %s is empty", path)
	} else {
		Logger.Infof("Loaded %d keys from %s", n, path)
	}
	return n, nil
}
