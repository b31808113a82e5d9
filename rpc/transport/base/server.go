package base

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport")

const readBufferSize = 1024

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig

	mu        sync.Mutex // protects listener
	listener  net.Listener
	ready     chan struct{}
	readyOnce sync.Once

	// live connections, used for Shutdown and the active connection gauge
	conns      *xsync.MapOf[uint64, net.Conn]
	nextConnID atomic.Uint64
	wg         sync.WaitGroup

	// counting semaphore, nil if unbounded
	slots chan struct{}

	closing atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport using the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IServerTransport {
	return &serverTransport{
		connector: connector,
		ready:     make(chan struct{}),
		conns:     xsync.NewMapOf[uint64, net.Conn](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	defer t.markReady()

	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.mu.Lock()
	t.listener = listener
	// Shutdown raced with binding
	if t.closing.Load() {
		t.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	t.mu.Unlock()

	if config.Transport.MaxConnections > 0 {
		t.slots = make(chan struct{}, config.Transport.MaxConnections)
		Logger.Infof("Starting %s server on %s (max %d connections)",
			t.connector.GetName(), listener.Addr(), config.Transport.MaxConnections)
	} else {
		Logger.Infof("Starting %s server on %s", t.connector.GetName(), listener.Addr())
	}
	t.markReady()

	// Accept connections
	for {
		// Wait for a free slot before accepting, excess clients stay in the backlog
		if t.slots != nil {
			t.slots <- struct{}{}
		}

		conn, err := listener.Accept()
		if err != nil {
			if t.slots != nil {
				<-t.slots
			}
			if t.closing.Load() {
				Logger.Infof("Listener on %s closed", listener.Addr())
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		// Registration and Shutdown are serialized by mu, so no wg.Add follows wg.Wait
		t.mu.Lock()
		if t.closing.Load() {
			t.mu.Unlock()
			_ = conn.Close()
			if t.slots != nil {
				<-t.slots
			}
			Logger.Infof("Listener on %s closed", listener.Addr())
			return nil
		}
		id := t.nextConnID.Add(1)
		t.conns.Store(id, conn)
		t.wg.Add(1)
		t.mu.Unlock()

		// Handle the connection in a goroutine
		go t.handleConnection(id, conn)
	}
}

func (t *serverTransport) Ready() <-chan struct{} {
	return t.ready
}

func (t *serverTransport) Addr() net.Addr {
	select {
	case <-t.ready:
	default:
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) ActiveConnections() int {
	return t.conns.Size()
}

func (t *serverTransport) TotalConnections() uint64 {
	return t.nextConnID.Load()
}

func (t *serverTransport) Shutdown() error {
	var err error
	t.mu.Lock()
	if !t.closing.CompareAndSwap(false, true) {
		t.mu.Unlock()
		return nil
	}
	if t.listener != nil {
		err = t.listener.Close()
	}
	t.mu.Unlock()

	// Close all live connections, their goroutines exit on the read error
	t.conns.Range(func(_ uint64, conn net.Conn) bool {
		_ = conn.Close()
		return true
	})
	t.wg.Wait()

	Logger.Infof("%s server shut down", t.connector.GetName())
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *serverTransport) markReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

// handleConnection serves request lines for one connection until the peer
// closes it, an I/O error occurs or the handler asks to close it
func (t *serverTransport) handleConnection(id uint64, conn net.Conn) {
	defer func() {
		_ = conn.Close()
		t.conns.Delete(id)
		if t.slots != nil {
			<-t.slots
		}
		t.wg.Done()
	}()

	remote := conn.RemoteAddr()
	Logger.Debugf("Client %s connected", remote)

	var (
		pending []byte
		out     []byte
		buf     = make([]byte, readBufferSize)
	)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			// Handle every complete line, replies are written in order
			out = out[:0]
			closeConn := false
			for !closeConn {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				line := pending[:idx]
				pending = pending[idx+1:]
				line = bytes.TrimSuffix(line, []byte{'\r'})
				if len(line) == 0 {
					continue
				}

				resp, c := t.handler(string(line))
				out = append(out, resp...)
				closeConn = c
			}

			// compact the buffer so it does not grow with the connection lifetime
			if len(pending) == 0 {
				pending = nil
			}

			if len(out) > 0 {
				if _, werr := conn.Write(out); werr != nil {
					t.logConnError(remote, "write", werr)
					return
				}
			}
			if closeConn {
				Logger.Debugf("Client %s quit", remote)
				return
			}
		}

		if err != nil {
			if err == io.EOF {
				Logger.Debugf("Client %s disconnected", remote)
			} else if !t.closing.Load() {
				t.logConnError(remote, "read", err)
			}
			return
		}
	}
}

// logConnError logs resets and broken pipes at info level, everything else as error
func (t *serverTransport) logConnError(remote net.Addr, op string, err error) {
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		Logger.Infof("Client %s went away during %s: %v", remote, op, err)
		return
	}
	Logger.Errorf("Failed to %s on connection %s: %v", op, remote, err)
}
