package client

import (
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ValentinKolb/mKV/lib/store/lstore"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/server"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/ValentinKolb/mKV/rpc/transport/tcp"
	"github.com/ValentinKolb/mKV/rpc/transport/unix"
)

// transports are the server/client transport pairs the client is tested against
var transports = map[string]struct {
	server   func() transport.IServerTransport
	client   func() transport.IClientTransport
	endpoint func(t *testing.T) string
}{
	"TCP": {
		server:   tcp.NewTCPServerTransport,
		client:   tcp.NewTCPClientTransport,
		endpoint: func(t *testing.T) string { return "127.0.0.1:0" },
	},
	"Unix": {
		server: unix.NewUnixServerTransport,
		client: unix.NewUnixClientTransport,
		// short path, unix socket paths are limited to ~100 bytes
		endpoint: func(t *testing.T) string { return filepath.Join(t.TempDir(), "mkv.sock") },
	},
}

// startServer starts a server and returns a connected client
func startServer(t *testing.T, name string, snapshotFile string) *Client {
	t.Helper()
	tr := transports[name]

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = tr.endpoint(t)
	config.SnapshotFile = snapshotFile

	s := server.NewServer(config, tr.server(), lstore.NewLocalStore())
	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	<-s.Ready()
	if s.Addr() == nil {
		t.Fatalf("Server failed to start: %v", <-done)
	}
	t.Cleanup(func() { _ = s.Shutdown() })

	c, err := NewClient(common.ClientConfig{
		Endpoint:      s.Addr().String(),
		TimeoutSecond: 5,
		RetryCount:    3,
	}, tr.client())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient(t *testing.T) {
	for name := range transports {
		t.Run(name, func(t *testing.T) {
			snapshotFile := filepath.Join(t.TempDir(), "miniredis.dump")
			c := startServer(t, name, snapshotFile)

			t.Run("Ping", func(t *testing.T) {
				if err := c.Ping(); err != nil {
					t.Errorf("Ping failed: %v", err)
				}
				msg, err := c.Echo("hello")
				if err != nil || msg != "hello" {
					t.Errorf("Echo: expected hello, got %q (%v)", msg, err)
				}
			})

			t.Run("Set&Get", func(t *testing.T) {
				if err := c.Set("name", "redis"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
				val, ok, err := c.Get("name")
				if err != nil || !ok || val != "redis" {
					t.Errorf("Get: expected (redis, true), got (%q, %v, %v)", val, ok, err)
				}

				_, ok, err = c.Get("missing")
				if err != nil || ok {
					t.Errorf("Get missing: expected (false, nil), got (%v, %v)", ok, err)
				}
			})

			t.Run("Delete", func(t *testing.T) {
				if err := c.Set("tmp", "v"); err != nil {
					t.Fatal(err)
				}
				existed, err := c.Delete("tmp")
				if err != nil || !existed {
					t.Errorf("First Delete: expected (true, nil), got (%v, %v)", existed, err)
				}
				existed, err = c.Delete("tmp")
				if err != nil || existed {
					t.Errorf("Second Delete: expected (false, nil), got (%v, %v)", existed, err)
				}
			})

			t.Run("GetAll", func(t *testing.T) {
				for _, k := range []string{"a", "b", "c"} {
					if err := c.Set(k, k+"-value"); err != nil {
						t.Fatal(err)
					}
				}

				entries, err := c.GetAll()
				if err != nil {
					t.Fatalf("GetAll failed: %v", err)
				}

				keys := make([]string, 0, len(entries))
				for _, e := range entries {
					if e.Key != "name" && e.Value != e.Key+"-value" {
						t.Errorf("Unexpected pair %q : %q", e.Key, e.Value)
					}
					keys = append(keys, e.Key)
				}
				sort.Strings(keys)

				expected := []string{"a", "b", "c", "name"}
				if len(keys) != len(expected) {
					t.Fatalf("Expected keys %v, got %v", expected, keys)
				}
				for i := range expected {
					if keys[i] != expected[i] {
						t.Errorf("Expected keys %v, got %v", expected, keys)
						break
					}
				}

				// the connection is still in sync after the framed listing
				if err := c.Ping(); err != nil {
					t.Errorf("Ping after GetAll failed: %v", err)
				}
			})

			t.Run("DBSizeAndSave", func(t *testing.T) {
				n, err := c.DBSize()
				if err != nil || n != 4 {
					t.Errorf("DBSize: expected 4, got %d (%v)", n, err)
				}
				if err := c.Save(); err != nil {
					t.Errorf("Save failed: %v", err)
				}
			})

			t.Run("InvalidArguments", func(t *testing.T) {
				cases := []func() error{
					func() error { return c.Set("has space", "v") },
					func() error { return c.Set("k", "line\nbreak") },
					func() error { return c.Set("", "v") },
					func() error { _, _, err := c.Get("a b"); return err },
					func() error { _, err := c.Delete(""); return err },
					func() error { _, err := c.Echo("two words"); return err },
				}
				for i, fn := range cases {
					if err := fn(); !errors.Is(err, ErrInvalidArgument) {
						t.Errorf("Case %d: expected ErrInvalidArgument, got %v", i, err)
					}
				}
			})

			t.Run("Quit", func(t *testing.T) {
				if err := c.Quit(); err != nil {
					t.Errorf("Quit failed: %v", err)
				}
				if err := c.Ping(); err == nil {
					t.Error("Expected Ping to fail after Quit")
				}
			})
		})
	}
}

func TestClientEmptyGetAll(t *testing.T) {
	c := startServer(t, "TCP", filepath.Join(t.TempDir(), "miniredis.dump"))

	entries, err := c.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %v", entries)
	}
}

func TestClientServerError(t *testing.T) {
	// SAVE into a missing directory fails on the server
	c := startServer(t, "TCP", filepath.Join(t.TempDir(), "missing-dir", "miniredis.dump"))

	err := c.Save()
	if !errors.Is(err, ErrServer) {
		t.Fatalf("Expected ErrServer, got %v", err)
	}

	// the connection stays usable after an error reply
	if err := c.Ping(); err != nil {
		t.Errorf("Ping after error failed: %v", err)
	}
}

func TestClientGetAllReplyLikeKeys(t *testing.T) {
	c := startServer(t, "TCP", filepath.Join(t.TempDir(), "miniredis.dump"))

	// keys that look like reply frames must still come back as pairs
	pairs := map[string]string{
		"-flag": "on",
		"-ERR":  "boom",
		"+PONG": "x",
		"+OK":   "y",
		"$-1":   "z",
		"$5":    "w",
		":1":    "v",
	}
	for k, v := range pairs {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}

	entries, err := c.GetAll()
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(entries) != len(pairs) {
		t.Fatalf("Expected %d entries, got %v", len(pairs), entries)
	}
	for _, e := range entries {
		if pairs[e.Key] != e.Value {
			t.Errorf("Unexpected entry %q : %q", e.Key, e.Value)
		}
	}

	// the connection is still in sync after the listing
	if err := c.Ping(); err != nil {
		t.Errorf("Ping after GetAll failed: %v", err)
	}
}
