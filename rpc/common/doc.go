// Package common provides the data structures and utilities shared by the
// mKV server, the transports and the client.
//
// The package focuses on:
//   - Command and reply definitions for the line protocol
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - Command: One parsed command line with an uppercase name and its raw
//     arguments. CommandType maps names to the supported operations.
//
//   - Reply: The semantic result of a command (status, bulk, null, integer,
//     error or raw lines) plus a Close flag used by QUIT. The rpc/codec
//     package turns a Reply into wire bytes.
//
//   - ServerConfig: Endpoint, socket options, snapshot settings, metrics
//     endpoint and log level of a server node.
//
//   - ClientConfig: Endpoint, timeouts and retry behavior of a client.
//
//   - Logger: Custom logging implementation that plugs into
//     github.com/lni/dragonboat/v4/logger so every package can use
//     logger.GetLogger(name) and share the same format and level.
package common
