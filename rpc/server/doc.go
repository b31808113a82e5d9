// Package server implements the mKV server: the command dispatcher that maps
// protocol commands to store operations, and the Server type that wires a
// store, the dispatcher and a transport together.
//
// The package focuses on:
//   - Validating command arity and executing commands against a store.IStore
//   - Restoring the store from the snapshot file at startup
//   - Per server metrics in Prometheus text format
//   - Orderly shutdown with an optional final snapshot
//
// Key Components:
//
//   - Dispatcher: Holds the command table. HandleLine parses one line and
//     returns a common.Reply. Unknown commands and wrong argument counts share
//     the reply "-ERR Wrong command or wrong number of arguments", a line
//     without tokens gets "-ERR Empty command". SAVE writes the snapshot and
//     replies "-ERR Failed to save snapshot" if that fails.
//
//   - Server: Created with NewServer. Serve loads the snapshot (a missing or
//     unreadable file leaves the store empty), registers the dispatcher with
//     the transport and blocks in Listen. Shutdown closes the transport and
//     saves the store if SaveOnShutdown is set.
//
// Supported Commands:
//
//	PING [msg]       +PONG, or msg as bulk reply
//	SET key value    +OK
//	GET key          bulk value, or $-1
//	DEL key          :1 if the key existed, else :0
//	GETALL           one "key : value" line per pair, or $-1
//	SAVE             +OK
//	DBSIZE           :n
//	QUIT             +OK, then the connection is closed
//
// Metrics:
//
//	mkv_connections_total, mkv_connections_active, mkv_commands_total{cmd=...},
//	mkv_command_errors_total, mkv_snapshot_saves_total,
//	mkv_snapshot_save_errors_total and mkv_store_keys. Served on
//	/metrics of MetricsEndpoint when configured.
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.SnapshotFile = "/var/lib/mkv/miniredis.dump"
//
//	s := server.NewServer(config, tcp.NewTCPServerTransport(), lstore.NewLocalStore())
//	if err := s.Serve(); err != nil {
//		log.Fatalf("Server error: %v", err)
//	}
package server
