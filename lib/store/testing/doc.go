// Package testing provides standardised tests and benchmarks for
// store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - store_testing: A test suite validating the IStore contract (atomicity of single
//     operations, Delete semantics, point-in-time snapshots, Save/Load round trips and
//     the partial load behaviour of the snapshot format)
//   - store_benchmarks: Performance tests for the common store operations
//
// Example usage:
//
//	factory := func() store.IStore {
//		return lstore.NewLocalStore()
//	}
//
//	// Running the standard test suite
//	testing.RunIStoreTests(t, "lstore", factory)
//
//	// Running performance benchmarks
//	testing.RunIStoreBenchmarks(b, "lstore", factory)
package testing
