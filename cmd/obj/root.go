package obj

import (
	"github.com/ValentinKolb/dRPC/cmd/util"
	"github.com/ValentinKolb/dRPC/rpc/client"
	"github.com/spf13/cobra"
)

var (
	objects *client.ObjectsClient

	// ObjectCommands represents the objects service command group
	ObjectCommands = &cobra.Command{
		Use:               "obj",
		Short:             "Perform operations on the objects service",
		PersistentPreRunE: setupObjectsClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the obj command
	util.SetupRPCClientFlags(ObjectCommands)

	ObjectCommands.PersistentFlags().String("service", "objects", util.WrapString("Name under which the objects service is registered"))

	// Add subcommands
	ObjectCommands.AddCommand(putCmd)
	ObjectCommands.AddCommand(getCmd)
	ObjectCommands.AddCommand(delCmd)
	ObjectCommands.AddCommand(keysCmd)
	ObjectCommands.AddCommand(lenCmd)
	ObjectCommands.AddCommand(statsCmd)
}

// setupObjectsClient initializes the objects service client
func setupObjectsClient(cmd *cobra.Command, _ []string) error {
	c, err := util.NewClient(cmd)
	if err != nil {
		return err
	}

	service, err := cmd.Flags().GetString("service")
	if err != nil {
		return err
	}

	objects = client.NewObjectsClient(c, service)
	return nil
}
