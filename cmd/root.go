package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/cmd/echo"
	"github.com/ValentinKolb/dRPC/cmd/obj"
	"github.com/ValentinKolb/dRPC/cmd/perf"
	"github.com/ValentinKolb/dRPC/cmd/serve"
	"github.com/ValentinKolb/dRPC/cmd/stream"
	"github.com/ValentinKolb/dRPC/cmd/util"
	libstream "github.com/ValentinKolb/dRPC/lib/stream"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "drpc",
		Short: "object-graph RPC over a delimited text stream",
		Long: fmt.Sprintf(`dRPC (v%s)

An RPC system written in Go that transports whole object graphs
(shared and cyclic references included) in a compact, delimited
text stream with a deduplicated string table.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dRPC",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dRPC v%s (stream protocol v%d, reads v%d-v%d)\n",
				Version, libstream.Version, libstream.MinVersion, libstream.MaxVersion)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(obj.ObjectCommands)
	RootCmd.AddCommand(echo.EchoCmd)
	RootCmd.AddCommand(stream.StreamCommands)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "stream", util.WrapString("serializer to use (stream)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
