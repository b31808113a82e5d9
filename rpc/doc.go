// Package rpc contains the network side of mKV: the line protocol, the
// transports, the server that executes commands against a store and the
// client used by the CLI.
//
// The package is organized into several subpackages:
//
//   - common: Command and Reply types, configuration structures and logging.
//
//   - codec: Tokenizing request lines and encoding / decoding reply frames.
//
//   - transport: Line oriented connection handling with pluggable
//     implementations (TCP, Unix sockets).
//
//   - server: Command dispatch, snapshot loading at startup and metrics.
//
//   - client: A typed client for the protocol.
package rpc
