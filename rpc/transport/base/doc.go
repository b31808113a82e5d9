// Package base provides the protocol independent part of the mKV transports.
// Concrete transports (tcp, unix) only supply a connector that knows how to
// listen, dial and tune a connection.
//
// Key Components:
//
//   - IServerConnector/IClientConnector: Interfaces for protocol-specific
//     operations that allow extending the base transport with different
//     network protocols.
//
//   - serverTransport: Accept loop plus one goroutine per connection. Every
//     connection owns an accumulation buffer: each read (1 KB) is appended,
//     then every complete line up to "\n" is extracted, a trailing "\r" is
//     stripped and the line handed to the handler. Empty lines are skipped
//     without a reply. Bytes after the last "\n" wait for the next read and
//     are discarded when the connection ends.
//
//   - clientTransport: A single connection with retrying connect (exponential
//     backoff with jitter) and a mutex that keeps request/reply exchanges
//     from interleaving.
//
// Connection Lifecycle:
//
//	A connection ends when the peer closes it, on a socket error or when the
//	handler asks to close it (QUIT). Resets and broken pipes are logged at
//	info level, other I/O errors at error level. Failed accepts are logged
//	and the loop continues.
//
// Connection Limit:
//
//	MaxConnections > 0 turns on a counting semaphore. The accept loop takes a
//	slot before accepting, so excess clients wait in the listen backlog
//	until a served connection ends. The default (0) is unbounded.
//
// Shutdown:
//
//	Live connections are tracked in an xsync.MapOf registry. Shutdown closes
//	the listener and every registered connection and waits for their
//	goroutines to exit. The registry size backs ActiveConnections.
package base
