// Package snapshot implements the on-disk format of the mKV store and the file level
// save and load operations.
//
// File format:
//
//	key1
//	value1
//	key2
//	value2
//	...
//
// Every entry is written as two consecutive '\n' terminated lines. The file is always
// written completely (truncate + rewrite) and read completely (clear + load); there are
// no incremental updates.
//
// Known limitations:
//
//   - Nothing is escaped. A key or value containing '\n' splits into extra lines and the
//     pairing of every following entry is shifted on load. Changing this requires a new,
//     versioned format.
//   - A trailing key without a value line is silently dropped on load.
//   - There is no fsync and no write-to-temp-and-rename. A crash during SaveFile can leave a
//     truncated snapshot behind.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	if _, err := snapshot.LoadFile("miniredis.dump", s); err != nil {
//		if !store.HasCode(err, store.RetCSnapshotMissing) {
//			log.Printf("incomplete snapshot: %v", err)
//		}
//	}
//	...
//	err := snapshot.SaveFile("miniredis.dump", s)
package snapshot
