// Package cmd implements the command-line interface for mKV. It provides a
// command tree for running the server and talking to it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the mKV server
//   - kv: Client commands (ping, set, get, del, getall, save, dbsize, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See mkv --help for a list of all commands.
package cmd
