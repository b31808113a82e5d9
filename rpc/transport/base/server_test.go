package base

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
)

// testConnector is a minimal loopback tcp server connector
type testConnector struct{}

func (c *testConnector) GetName() string { return "test" }

func (c *testConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Transport.Endpoint)
}

func (c *testConnector) UpgradeConnection(_ net.Conn, _ common.ServerConfig) error { return nil }

// testClientConnector is the matching client connector
type testClientConnector struct{}

func (c *testClientConnector) GetName() string { return "test" }

func (c *testClientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}

func (c *testClientConnector) UpgradeConnection(_ net.Conn, _ common.ClientConfig) error { return nil }

// echoHandler replies "+<line>" and closes on QUIT
func echoHandler(line string) ([]byte, bool) {
	return []byte("+" + line + "\r\n"), line == "QUIT"
}

// startServer starts a transport with the given handler on a random port
func startServer(t *testing.T, maxConns int, handler transport.ServerHandleFunc) (transport.IServerTransport, string, chan error) {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"
	config.Transport.MaxConnections = maxConns

	tr := NewBaseServerTransport(&testConnector{})
	tr.RegisterHandler(handler)

	done := make(chan error, 1)
	go func() { done <- tr.Listen(config) }()

	<-tr.Ready()
	if tr.Addr() == nil {
		t.Fatalf("Server failed to bind: %v", <-done)
	}

	t.Cleanup(func() { _ = tr.Shutdown() })
	return tr, tr.Addr().String(), done
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn, bufio.NewReader(conn)
}

func expectLine(t *testing.T, r *bufio.Reader, expected string) {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read %q: %v", expected, err)
	}
	if line != expected {
		t.Fatalf("Expected %q, got %q", expected, line)
	}
}

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLineFraming(t *testing.T) {
	_, addr, _ := startServer(t, 0, echoHandler)

	t.Run("SplitAcrossWrites", func(t *testing.T) {
		conn, r := dial(t, addr)

		if _, err := conn.Write([]byte("PI")); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
		if _, err := conn.Write([]byte("NG\r\n")); err != nil {
			t.Fatal(err)
		}
		expectLine(t, r, "+PING\r\n")
	})

	t.Run("PipelinedLines", func(t *testing.T) {
		conn, r := dial(t, addr)

		if _, err := conn.Write([]byte("a\r\nb\nc\r\n")); err != nil {
			t.Fatal(err)
		}
		expectLine(t, r, "+a\r\n")
		expectLine(t, r, "+b\r\n")
		expectLine(t, r, "+c\r\n")
	})

	t.Run("EmptyLinesSkipped", func(t *testing.T) {
		conn, r := dial(t, addr)

		if _, err := conn.Write([]byte("\r\n\n\r\nx\r\n")); err != nil {
			t.Fatal(err)
		}
		expectLine(t, r, "+x\r\n")
	})

	t.Run("LongLine", func(t *testing.T) {
		conn, r := dial(t, addr)

		long := strings.Repeat("v", 5000)
		if _, err := conn.Write([]byte(long + "\r\n")); err != nil {
			t.Fatal(err)
		}
		expectLine(t, r, "+"+long+"\r\n")
	})

	t.Run("CloseAfterQuit", func(t *testing.T) {
		conn, r := dial(t, addr)

		// everything after QUIT is discarded
		if _, err := conn.Write([]byte("QUIT\r\nignored\r\n")); err != nil {
			t.Fatal(err)
		}
		expectLine(t, r, "+QUIT\r\n")

		if _, err := r.ReadString('\n'); err != io.EOF {
			t.Errorf("Expected io.EOF after QUIT, got %v", err)
		}
	})
}

func TestActiveConnections(t *testing.T) {
	tr, addr, _ := startServer(t, 0, echoHandler)

	conn1, r1 := dial(t, addr)
	dial(t, addr)

	if _, err := conn1.Write([]byte("x\n")); err != nil {
		t.Fatal(err)
	}
	expectLine(t, r1, "+x\r\n")

	waitFor(t, func() bool { return tr.ActiveConnections() == 2 })

	_ = conn1.Close()
	waitFor(t, func() bool { return tr.ActiveConnections() == 1 })
}

func TestMaxConnections(t *testing.T) {
	_, addr, _ := startServer(t, 1, echoHandler)

	conn1, r1 := dial(t, addr)
	if _, err := conn1.Write([]byte("first\n")); err != nil {
		t.Fatal(err)
	}
	expectLine(t, r1, "+first\r\n")

	// second client connects (backlog) but is not served while the first is alive
	conn2, r2 := dial(t, addr)
	if _, err := conn2.Write([]byte("second\n")); err != nil {
		t.Fatal(err)
	}
	_ = conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := r2.ReadString('\n'); err == nil {
		t.Fatal("Expected second connection to wait for a free slot")
	}

	// free the slot
	_ = conn1.Close()
	_ = conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	expectLine(t, r2, "+second\r\n")
}

func TestShutdown(t *testing.T) {
	tr, addr, done := startServer(t, 0, echoHandler)

	_, r := dial(t, addr)
	waitFor(t, func() bool { return tr.ActiveConnections() == 1 })

	if err := tr.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Listen to return nil after Shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after Shutdown")
	}

	if _, err := r.ReadString('\n'); err == nil {
		t.Error("Expected live connection to be closed by Shutdown")
	}
	if tr.ActiveConnections() != 0 {
		t.Errorf("Expected 0 active connections, got %d", tr.ActiveConnections())
	}

	// second call is a no-op
	if err := tr.Shutdown(); err != nil {
		t.Errorf("Second Shutdown failed: %v", err)
	}
}

func TestShutdownWhileConnecting(t *testing.T) {
	tr, addr, done := startServer(t, 0, echoHandler)

	// keep clients connecting while the transport shuts down
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				conn, err := net.DialTimeout("tcp", addr, time.Second)
				if err != nil {
					continue
				}
				_ = conn.Close()
			}
		}()
	}

	waitFor(t, func() bool { return tr.TotalConnections() >= 20 })

	if err := tr.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	close(stop)
	wg.Wait()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Listen to return nil after Shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after Shutdown")
	}

	if n := tr.ActiveConnections(); n != 0 {
		t.Errorf("Expected 0 active connections after Shutdown, got %d", n)
	}
}

func TestListenWithoutHandler(t *testing.T) {
	tr := NewBaseServerTransport(&testConnector{})
	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"

	if err := tr.Listen(config); err == nil {
		t.Fatal("Expected Listen to fail without a handler")
	}
	<-tr.Ready()
	if tr.Addr() != nil {
		t.Error("Expected no address after a failed Listen")
	}
}

func TestClientTransport(t *testing.T) {
	_, addr, _ := startServer(t, 0, echoHandler)

	t.Run("RoundTrip", func(t *testing.T) {
		ct := NewBaseClientTransport(&testClientConnector{})
		if err := ct.Connect(common.ClientConfig{Endpoint: addr, TimeoutSecond: 5, RetryCount: 1}); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		defer ct.Close()

		var got string
		err := ct.Do([]byte("hello\r\n"), func(r *bufio.Reader) error {
			line, err := r.ReadString('\n')
			got = line
			return err
		})
		if err != nil {
			t.Fatalf("Do failed: %v", err)
		}
		if got != "+hello\r\n" {
			t.Errorf("Expected %q, got %q", "+hello\r\n", got)
		}
	})

	t.Run("DoAfterClose", func(t *testing.T) {
		ct := NewBaseClientTransport(&testClientConnector{})
		if err := ct.Connect(common.ClientConfig{Endpoint: addr, RetryCount: 1}); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		_ = ct.Close()

		if err := ct.Do([]byte("x\n"), nil); err == nil {
			t.Error("Expected Do to fail on a closed transport")
		}
	})

	t.Run("ConnectRefused", func(t *testing.T) {
		// grab a free port and release it again
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		freeAddr := l.Addr().String()
		_ = l.Close()

		ct := NewBaseClientTransport(&testClientConnector{})
		if err := ct.Connect(common.ClientConfig{Endpoint: freeAddr, RetryCount: 2}); err == nil {
			t.Error("Expected Connect to fail")
		}
	})

	t.Run("NoEndpoint", func(t *testing.T) {
		ct := NewBaseClientTransport(&testClientConnector{})
		if err := ct.Connect(common.ClientConfig{}); err == nil {
			t.Error("Expected Connect to fail without endpoint")
		}
	})
}
