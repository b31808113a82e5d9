// Package codec implements the mKV line protocol: splitting a command line
// into tokens, rendering replies into their wire form and reading replies on
// the client side.
//
// Requests are single lines terminated by "\n" (an optional preceding "\r"
// is stripped by the transport). Tokens are separated by single spaces and
// empty tokens are ignored, so "SET  a   b" is the same as "SET a b". The
// command name is case insensitive, arguments are case sensitive.
//
// Reply forms:
//
//	+OK\r\n              status
//	$5\r\nredis\r\n      bulk (length prefixed)
//	$-1\r\n              null
//	:1\r\n               integer
//	-ERR msg\r\n         error
//	key : value\r\n      raw lines (GETALL)
//
// Raw lines are not self delimiting. Clients that need to know where a
// GETALL listing ends pipeline a PING behind it and read until +PONG.
//
// Usage:
//
//	cmd, ok := codec.ParseCommandLine("set name redis")
//	// cmd.Name == "SET", cmd.Args == []string{"name", "redis"}
//
//	wire := codec.EncodeReply(common.NewBulkReply("redis"))
//	// "$5\r\nredis\r\n"
//
//	reply, err := codec.ReadReply(bufio.NewReader(conn))
package codec
