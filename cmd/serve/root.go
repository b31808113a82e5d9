package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/lib/store/lstore"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the mKV server",
		Long:    `Start the mKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is MKV_<flag> (e.g. MKV_SNAPSHOT_FILE=/data/miniredis.dump)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	defaults := common.DefaultServerConfig()

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, defaults.Transport.Endpoint, cmdUtil.WrapString("The address on which the server will listen (host:port for tcp, a socket path for unix)"))

	key = "snapshot-file"
	ServeCmd.PersistentFlags().String(key, defaults.SnapshotFile, cmdUtil.WrapString("Path of the snapshot file, loaded at startup and written by SAVE"))

	key = "save-on-shutdown"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Write a snapshot when the server receives SIGINT or SIGTERM"))

	key = "max-connections"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum number of concurrently served connections, further clients wait until a slot is free (0 = unbounded)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address for the Prometheus /metrics endpoint (e.g. localhost:9090), empty disables it"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, defaults.Transport.TCPNoDelay, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds, 0 uses the system default (only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, defaults.Transport.TCPLingerSec, cmdUtil.WrapString("The linger time in seconds, -1 uses the system default (only for tcp)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket write buffer size in KB, 0 uses the system default"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket read buffer size in KB, 0 uses the system default"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, defaults.LogLevel, cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Transport.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport.MaxConnections = viper.GetInt("max-connections")
	serveCmdConfig.Transport.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.Transport.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	serveCmdConfig.Transport.TCPLingerSec = viper.GetInt("tcp-linger")
	serveCmdConfig.Transport.WriteBufferSize = viper.GetInt("write-buffer") * 1024
	serveCmdConfig.Transport.ReadBufferSize = viper.GetInt("read-buffer") * 1024
	serveCmdConfig.SnapshotFile = viper.GetString("snapshot-file")
	serveCmdConfig.SaveOnShutdown = viper.GetBool("save-on-shutdown")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if serveCmdConfig.Transport.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if serveCmdConfig.SnapshotFile == "" {
		return fmt.Errorf("snapshot-file must not be empty")
	}
	if serveCmdConfig.Transport.MaxConnections < 0 {
		return fmt.Errorf("max-connections must not be negative")
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the mKV server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewServer(
		serveCmdConfig,
		t,
		lstore.NewLocalStore(),
	)

	// stop the server on SIGINT / SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	shutdownErr := make(chan error, 1)
	go func() {
		sig := <-sigCh
		server.Logger.Infof("Received %s, shutting down", sig)
		shutdownErr <- serv.Shutdown()
	}()

	if err := serv.Serve(); err != nil {
		return err
	}

	// Serve only returns without error after Shutdown
	return <-shutdownErr
}
