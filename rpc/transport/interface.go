package transport

import (
	"bufio"
	"net"

	"github.com/ValentinKolb/mKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming request lines.
// It is called by a server transport for every complete, non empty line
// (terminator already stripped). It returns the reply bytes and whether the
// connection should be closed after the reply was written.
type ServerHandleFunc func(line string) (resp []byte, closeConn bool)

// IServerTransport is the interface for the server transport layer
type IServerTransport interface {
	// RegisterHandler registers the handler for request lines.
	// It must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the configured endpoint and serves connections.
	// It blocks until Shutdown is called or binding fails.
	Listen(config common.ServerConfig) error
	// Ready is closed once Listen has bound its endpoint or failed to do so
	Ready() <-chan struct{}
	// Addr returns the bound address, nil before Ready or if binding failed
	Addr() net.Addr
	// ActiveConnections returns the number of currently served connections
	ActiveConnections() int
	// TotalConnections returns the number of connections accepted since Listen
	TotalConnections() uint64
	// Shutdown closes the listener and all live connections
	Shutdown() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport is the interface for the client transport
type IClientTransport interface {
	// Connect dials the configured endpoint, retrying as configured
	Connect(config common.ClientConfig) error
	// Do writes req and then calls read with the connection's reader.
	// Calls are serialized, so a request and its reply are never interleaved
	// with another caller's.
	Do(req []byte, read func(r *bufio.Reader) error) error
	// Close closes the transport connection
	Close() error
}
