package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/lib/store/lstore"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport/tcp"
)

// startTestServer starts a server on a random loopback port and stops it when the test ends
func startTestServer(t *testing.T, mutate func(*common.ServerConfig)) (*Server, string) {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"
	config.SnapshotFile = filepath.Join(t.TempDir(), "miniredis.dump")
	if mutate != nil {
		mutate(&config)
	}

	s := NewServer(config, tcp.NewTCPServerTransport(), lstore.NewLocalStore())

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	<-s.Ready()
	if s.Addr() == nil {
		t.Fatalf("Server failed to start: %v", <-done)
	}

	t.Cleanup(func() { _ = s.Shutdown() })
	return s, s.Addr().String()
}

// rawConn is a bare protocol connection for byte exact assertions
type rawConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialRaw(t *testing.T, addr string) *rawConn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	t.Cleanup(func() { _ = conn.Close() })
	return &rawConn{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *rawConn) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("Failed to send %q: %v", line, err)
	}
}

// expect reads exactly len(expected) bytes and compares them
func (c *rawConn) expect(expected string) {
	c.t.Helper()
	buf := make([]byte, len(expected))
	if _, err := io.ReadFull(c.r, buf); err != nil {
		c.t.Fatalf("Failed to read %q: %v", expected, err)
	}
	if string(buf) != expected {
		c.t.Fatalf("Expected %q, got %q", expected, string(buf))
	}
}

func TestWireScenario(t *testing.T) {
	_, addr := startTestServer(t, nil)
	c := dialRaw(t, addr)

	steps := []struct {
		cmd   string
		reply string
	}{
		{"SET name redis", "+OK\r\n"},
		{"GET name", "$5\r\nredis\r\n"},
		{"DEL name", ":1\r\n"},
		{"GET name", "$-1\r\n"},
		{"DEL name", ":0\r\n"},
		{"PING", "+PONG\r\n"},
		{"PING hi", "$2\r\nhi\r\n"},
		{"SET onlykey", "-ERR Wrong command or wrong number of arguments\r\n"},
		{"GET onlykey", "$-1\r\n"},
		{"   ", "-ERR Empty command\r\n"},
		{"GETALL", "$-1\r\n"},
	}

	for _, step := range steps {
		c.send(step.cmd)
		c.expect(step.reply)
	}
}

func TestQuitClosesConnection(t *testing.T) {
	_, addr := startTestServer(t, nil)
	c := dialRaw(t, addr)

	c.send("QUIT")
	c.expect("+OK\r\n")

	if _, err := c.r.ReadByte(); err != io.EOF {
		t.Errorf("Expected connection to be closed after QUIT, got %v", err)
	}
}

func TestConcurrentClients(t *testing.T) {
	const clients = 50

	_, addr := startTestServer(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, clients)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

			if _, err := fmt.Fprintf(conn, "SET key%d value%d\r\n", i, i); err != nil {
				errs <- err
				return
			}
			line, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				errs <- err
				return
			}
			if line != "+OK\r\n" {
				errs <- fmt.Errorf("client %d: unexpected reply %q", i, line)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Client failed: %v", err)
	}

	// GETALL framed by a trailing PING
	c := dialRaw(t, addr)
	if _, err := c.conn.Write([]byte("GETALL\r\nPING\r\n")); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			t.Fatalf("Failed to read GETALL output: %v", err)
		}
		if line == "+PONG\r\n" {
			break
		}
		seen[strings.TrimSuffix(line, "\r\n")] = true
	}

	if len(seen) != clients {
		t.Errorf("Expected %d pairs, got %d", clients, len(seen))
	}
	for i := 0; i < clients; i++ {
		pair := fmt.Sprintf("key%d : value%d", i, i)
		if !seen[pair] {
			t.Errorf("Missing pair %q", pair)
		}
	}
}

func TestSnapshotRestoreOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miniredis.dump")

	// first server writes a snapshot
	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.SnapshotFile = path })
	c := dialRaw(t, addr)
	c.send("SET a 1")
	c.expect("+OK\r\n")
	c.send("SET b 2")
	c.expect("+OK\r\n")
	c.send("SAVE")
	c.expect("+OK\r\n")

	// second server restores it
	_, addr2 := startTestServer(t, func(c *common.ServerConfig) { c.SnapshotFile = path })
	c2 := dialRaw(t, addr2)
	c2.send("GET a")
	c2.expect("$1\r\n1\r\n")
	c2.send("GET b")
	c2.expect("$1\r\n2\r\n")
	c2.send("DBSIZE")
	c2.expect(":2\r\n")
}

func TestStartupWithUnreadableSnapshot(t *testing.T) {
	// a directory cannot be read as a snapshot file
	path := t.TempDir()

	_, addr := startTestServer(t, func(c *common.ServerConfig) { c.SnapshotFile = path })
	c := dialRaw(t, addr)
	c.send("DBSIZE")
	c.expect(":0\r\n")
}

// brokenDiskStore feeds Load a snapshot that fails after the first complete pair
type brokenDiskStore struct {
	store.IStore
}

func (s brokenDiskStore) Load(_ io.Reader) (int, error) {
	r := io.MultiReader(strings.NewReader("a\n1\nb\n"), iotest.ErrReader(errors.New("disk failure")))
	return s.IStore.Load(r)
}

func TestStartupKeepsPartialSnapshot(t *testing.T) {
	config := common.DefaultServerConfig()
	config.SnapshotFile = filepath.Join(t.TempDir(), "miniredis.dump")
	if err := os.WriteFile(config.SnapshotFile, []byte("a\n1\nb\n2\n"), 0o644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}

	s := lstore.NewLocalStore()
	srv := NewServer(config, tcp.NewTCPServerTransport(), brokenDiskStore{IStore: s})
	srv.loadSnapshot()

	if n := s.Len(); n != 1 {
		t.Fatalf("Expected 1 key after partial load, got %d", n)
	}
	if v, ok := s.Get("a"); !ok || v != "1" {
		t.Errorf("Expected a=1 to survive, got %q (found=%v)", v, ok)
	}
	if _, ok := s.Get("b"); ok {
		t.Errorf("Expected incomplete pair b to be absent")
	}
}

func TestSaveOnShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miniredis.dump")

	s, addr := startTestServer(t, func(c *common.ServerConfig) {
		c.SnapshotFile = path
		c.SaveOnShutdown = true
	})

	c := dialRaw(t, addr)
	c.send("SET k v")
	c.expect("+OK\r\n")

	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected snapshot after shutdown: %v", err)
	}
	if string(data) != "k\nv\n" {
		t.Errorf("Unexpected snapshot content %q", string(data))
	}
}

func TestMetrics(t *testing.T) {
	s, addr := startTestServer(t, nil)
	c := dialRaw(t, addr)

	c.send("SET a 1")
	c.expect("+OK\r\n")
	c.send("GET a")
	c.expect("$1\r\n1\r\n")
	c.send("NOPE")
	c.expect("-ERR Wrong command or wrong number of arguments\r\n")

	var buf bytes.Buffer
	s.WriteMetrics(&buf)
	out := buf.String()

	for _, expected := range []string{
		`mkv_commands_total{cmd="SET"} 1`,
		`mkv_commands_total{cmd="GET"} 1`,
		`mkv_commands_total{cmd="UNKNOWN"} 1`,
		`mkv_command_errors_total 1`,
		`mkv_connections_total 1`,
		`mkv_connections_active 1`,
		`mkv_store_keys 1`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected metrics to contain %q, got:\n%s", expected, out)
		}
	}
}
