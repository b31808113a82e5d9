// Package unix implements a transport for mKV over Unix domain sockets,
// for clients running on the same machine as the server.
//
// The endpoint is a socket path. A stale socket file at that path is removed
// before listening.
package unix
