package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool // Disable Nagle's algorithm
	TCPKeepAliveSec int  // Keep-alive period in seconds (0 = disabled)
	TCPLingerSec    int  // Linger time in seconds (-1 = OS default)
}

// SocketConf holds socket buffer sizes (0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// ServerTransportConfig holds all transport related server settings
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port for tcp, a path for unix)
	Endpoint string
	// MaxConnections caps the number of concurrently served connections (0 = unbounded)
	MaxConnections int
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the mKV server.
type ServerConfig struct {
	// Transport settings
	Transport ServerTransportConfig

	// Snapshot settings
	SnapshotFile   string
	SaveOnShutdown bool

	// Metrics endpoint (host:port, empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// DefaultServerConfig returns the configuration used when no flags are given
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			Endpoint: "0.0.0.0:6380",
			TCPConf: TCPConf{
				TCPNoDelay:   true,
				TCPLingerSec: -1,
			},
		},
		SnapshotFile: "miniredis.dump",
		LogLevel:     "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Transport settings
	addSection("Server")
	addField("Endpoint", c.Transport.Endpoint)
	if c.Transport.MaxConnections > 0 {
		addField("Max Connections", strconv.Itoa(c.Transport.MaxConnections))
	} else {
		addField("Max Connections", "unbounded")
	}
	addField("TCP NoDelay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))

	// Snapshot settings
	addSection("Snapshot")
	addField("File", c.SnapshotFile)
	addField("Save On Shutdown", strconv.FormatBool(c.SaveOnShutdown))

	// Metrics
	addSection("Metrics")
	if c.MetricsEndpoint != "" {
		addField("Endpoint", c.MetricsEndpoint)
	} else {
		addField("Endpoint", "disabled")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoint      string
	TimeoutSecond int
	RetryCount    int
	TCPConf
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("TCP NoDelay", strconv.FormatBool(c.TCPNoDelay))

	return sb.String()
}
