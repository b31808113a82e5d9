package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mKV/cmd/kv"
	"github.com/ValentinKolb/mKV/cmd/serve"
	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mkv",
		Short: "minimal key-value server",
		Long: fmt.Sprintf(`mKV (v%s)

A minimal in-memory key-value server speaking a Redis-like line protocol
over TCP, with snapshot persistence to a single file.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
