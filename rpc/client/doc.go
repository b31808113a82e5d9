// Package client implements a Go client for the mKV line protocol.
//
// The package focuses on:
//   - Typed methods for every server command
//   - Rejecting keys and values the space separated protocol cannot carry
//   - Mapping -ERR replies to errors that wrap ErrServer
//
// Key Components:
//
//   - NewClient: Connects a transport.IClientTransport (tcp or unix) using a
//     common.ClientConfig and returns a Client. Connecting retries with
//     exponential backoff up to RetryCount times.
//
//   - Dial: Shortcut for a TCP client with default timeouts.
//
//   - Client: Ping, Echo, Set, Get, Delete, GetAll, Save, DBSize, Quit, Close.
//     GetAll pipelines a PING behind GETALL and reads until +PONG, because the
//     listing itself has no terminator on the wire.
//
// Usage Example:
//
//	c, err := client.Dial("localhost:6380")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Quit()
//
//	_ = c.Set("name", "redis")
//	value, ok, _ := c.Get("name")
//	entries, _ := c.GetAll()
package client
