package base

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig

	mu     sync.Mutex // serializes requests and protects conn
	conn   net.Conn
	reader *bufio.Reader
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.config = config
	t.closeConnection()

	// We always try at least once, and up to maxRetries times
	maxRetries := config.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		conn, err := t.dial()
		if err == nil {
			t.conn = conn
			t.reader = bufio.NewReader(conn)
			Logger.Debugf("Connected to %s using %s transport", config.Endpoint, t.connector.GetName())
			return nil
		}

		lastErr = err
		Logger.Debugf("Connect attempt %d/%d failed: %v", i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return fmt.Errorf("failed to connect to %s after %d attempts: %v", config.Endpoint, maxRetries, lastErr)
}

func (t *clientTransport) Do(req []byte, read func(r *bufio.Reader) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("connection is closed")
	}

	if t.config.TimeoutSecond > 0 {
		deadline := time.Now().Add(time.Duration(t.config.TimeoutSecond) * time.Second)
		if err := t.conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set deadline: %v", err)
		}
	}

	if _, err := t.conn.Write(req); err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}

	if read == nil {
		return nil
	}
	return read(t.reader)
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeConnection()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dial connects to the endpoint and applies the protocol-specific settings
func (t *clientTransport) dial() (net.Conn, error) {
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	conn, err := t.connector.Connect(t.config.Endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", t.config.Endpoint, err)
	}

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %v", t.config.Endpoint, err)
	}
	return conn, nil
}

// closeConnection closes the active connection, the caller must hold mu
func (t *clientTransport) closeConnection() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}
