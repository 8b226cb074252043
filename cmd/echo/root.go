package echo

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/cmd/util"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/rpc/client"
	"github.com/spf13/cobra"
	"time"
)

var (
	// EchoCmd sends values through the echo service
	EchoCmd = &cobra.Command{
		Use:   "echo [values...]",
		Short: "Round-trip values through the echo service (pings without values)",
		Long: `Round-trip values through the echo service. Values are parsed as:
  null, true, false, i:<int32>, l:<int64>, d:<float64>, s:<string>
everything else is sent as string. Without values the service is pinged.`,
		RunE: run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the echo command
	util.SetupRPCClientFlags(EchoCmd)

	EchoCmd.Flags().String("service", "echo", util.WrapString("Name under which the echo service is registered"))
	EchoCmd.Flags().Bool("shared", false, util.WrapString("Send the values twice in one list, sharing the same inner list, to show that references survive the round trip"))
}

func run(cmd *cobra.Command, args []string) error {
	values, err := util.ParseValues(args)
	if err != nil {
		return err
	}

	c, err := util.NewClient(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	service, _ := cmd.Flags().GetString("service")
	echo := client.NewEchoClient(c, service)

	start := time.Now()

	if len(values) == 0 {
		if err := echo.Ping(); err != nil {
			return err
		}
		fmt.Printf("pong (%s)\n", time.Since(start))
		return nil
	}

	var payload any
	if shared, _ := cmd.Flags().GetBool("shared"); shared {
		inner := registry.ArrayList(values)
		payload = &registry.ArrayList{&inner, &inner}
	} else if len(values) == 1 {
		payload = values[0]
	} else {
		list := registry.ArrayList(values)
		payload = &list
	}

	result, err := echo.Echo(payload)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", util.FormatValue(result), time.Since(start))

	if list, ok := result.(*registry.ArrayList); ok && len(*list) == 2 {
		if first, ok := (*list)[0].(*registry.ArrayList); ok && first == (*list)[1] {
			fmt.Println("both entries reference the same list")
		}
	}
	return nil
}
