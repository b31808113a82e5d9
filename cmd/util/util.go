package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/transport"
	"github.com/ValentinKolb/mKV/rpc/transport/tcp"
	"github.com/ValentinKolb/mKV/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (MKV_<FLAG>)
	EnvPrefix = "mkv"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and makes viper read MKV_ prefixed environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupClientFlags adds the client connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, "localhost:6380", WrapString("The address of the mKV server (host:port for tcp, a socket path for unix)"))

	key = "retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry connecting"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval in seconds, 0 disables it (only for tcp)"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Endpoint:      viper.GetString("endpoint"),
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("retries"),
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    -1,
		},
	}
}

// GetClientTransport creates the client transport selected by the transport flag
func GetClientTransport() (transport.IClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport selected by the transport flag
func GetServerTransport() (transport.IServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
