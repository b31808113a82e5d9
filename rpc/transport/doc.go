// Package transport defines the interfaces between the mKV line protocol and
// the network. Implementations move bytes, they know nothing about commands.
//
// Key Components:
//
//   - IServerTransport: Server side. Accepts connections, splits the byte
//     stream into request lines and hands each line to the registered
//     ServerHandleFunc. Replies are written back in request order.
//
//   - IClientTransport: Client side. Owns a single connection and serializes
//     request/reply exchanges over it.
//
//   - ServerHandleFunc: Callback that turns one request line into reply bytes
//     and reports whether the connection should be closed afterwards.
//
// Implementations live in the tcp and unix sub packages, both built on base.
package transport
