// Package tcp implements the TCP transport for mKV on top of the base package.
//
// Key Components:
//
//   - serverConnector: Binds the configured host:port and applies TCPConf and
//     SocketConf (no delay, buffer sizes, linger) to accepted connections.
//
//   - clientConnector: Dials host:port with the configured timeout and enables
//     keep-alive if requested.
//
// See the base package for the accept loop, line framing and connection registry.
package tcp
