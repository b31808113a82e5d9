package server

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/ValentinKolb/mKV/lib/snapshot"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/codec"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// Server glues a store, the command dispatcher and a transport together.
type Server struct {
	config     common.ServerConfig
	transport  transport.IServerTransport
	store      store.IStore
	dispatcher *Dispatcher
	metrics    *serverMetrics
	cancel     context.CancelFunc
}

// NewServer creates a new mKV server
// It takes a config, a transport and the store to serve as parameters
//
// Usage:
//
//	s := server.NewServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		lstore.NewLocalStore(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewServer(
	config common.ServerConfig,
	transport transport.IServerTransport,
	s store.IStore,
) *Server {
	srv := &Server{
		config:     config,
		transport:  transport,
		store:      s,
		dispatcher: NewDispatcher(s, config.SnapshotFile),
	}

	srv.metrics = newServerMetrics(transport, s.Len)
	srv.dispatcher.metrics = srv.metrics

	return srv
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Serve loads the snapshot, starts the optional metrics endpoint and serves
// connections. It blocks until Shutdown is called or the endpoint cannot be bound.
func (s *Server) Serve() error {
	Logger.Infof("Starting mKV server")
	Logger.Infof("%s", s.config.String())

	s.loadSnapshot()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	if s.config.MetricsEndpoint != "" {
		s.metrics.startMetricsEndpoint(ctx, s.config.MetricsEndpoint)
	}

	s.transport.RegisterHandler(s.handleLine)

	if err := s.transport.Listen(s.config); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Ready is closed once the transport has bound its endpoint or failed to do so
func (s *Server) Ready() <-chan struct{} {
	return s.transport.Ready()
}

// Addr returns the bound address of the transport
func (s *Server) Addr() net.Addr {
	return s.transport.Addr()
}

// Shutdown stops accepting connections, closes all live ones and, if
// configured, writes a final snapshot.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}

	err := s.transport.Shutdown()
	if err != nil {
		Logger.Warningf("Transport shutdown: %v", err)
	}

	if s.config.SaveOnShutdown {
		if saveErr := snapshot.SaveFile(s.config.SnapshotFile, s.store); saveErr != nil {
			return fmt.Errorf("failed to save snapshot on shutdown: %w", saveErr)
		}
		Logger.Infof("Saved %d keys to %s on shutdown", s.store.Len(), s.config.SnapshotFile)
	}

	return err
}

// WriteMetrics writes the server metrics in Prometheus text format
func (s *Server) WriteMetrics(w io.Writer) {
	s.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleLine is the transport handler: dispatch one line and encode the reply
func (s *Server) handleLine(line string) ([]byte, bool) {
	reply := s.dispatcher.HandleLine(line)
	return codec.EncodeReply(reply), reply.Close
}

// loadSnapshot fills the store from the snapshot file. Failures are not
// fatal: a missing file starts an empty store, a read error keeps the pairs
// read before it.
func (s *Server) loadSnapshot() {
	n, err := snapshot.LoadFile(s.config.SnapshotFile, s.store)
	switch {
	case err == nil:
		Logger.Infof("Restored %d keys from %s", n, s.config.SnapshotFile)
	case store.HasCode(err, store.RetCSnapshotMissing):
		Logger.Infof("No snapshot at %s, starting with an empty store", s.config.SnapshotFile)
	default:
		Logger.Warningf("Failed to load snapshot, starting with %d keys (data set may be incomplete): %v", n, err)
	}
}
