package kv

import (
	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/spf13/cobra"
)

var (
	kvClient *client.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common client flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(getAllCmd)
	KeyValueCommands.AddCommand(saveCmd)
	KeyValueCommands.AddCommand(dbSizeCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects the client used by all kv subcommands
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Client side logs only on warnings
	if err := common.InitLoggers("warn"); err != nil {
		return err
	}

	var err error
	kvClient, err = newClient()
	return err
}

// closeKVClient ends the session with QUIT
func closeKVClient(_ *cobra.Command, _ []string) error {
	if kvClient == nil {
		return nil
	}
	return kvClient.Quit()
}

// newClient creates a client from the current flags
func newClient() (*client.Client, error) {
	t, err := util.GetClientTransport()
	if err != nil {
		return nil, err
	}
	return client.NewClient(util.GetClientConfig(), t)
}
