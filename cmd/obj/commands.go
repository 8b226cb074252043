package obj

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/cmd/util"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/spf13/cobra"
	"strings"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [key] [values...]",
		Short: "Stores a value under a key (several values are stored as one list)",
		Long: `Stores a value under a key. Values are parsed as:
  null, true, false, i:<int32>, l:<int64>, d:<float64>, s:<string>
everything else is stored as string. Several values are stored as one list.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := util.ParseValues(args[1:])
			if err != nil {
				return err
			}

			var value any = values[0]
			if len(values) > 1 {
				list := registry.ArrayList(values)
				value = &list
			}

			evicted, err := objects.Put(args[0], value)
			if err != nil {
				return err
			}
			fmt.Printf("put successfully (evicted=%v)\n", evicted)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := objects.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, value=%s\n", args[0], util.FormatValue(value))
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := objects.Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, deleted=%v\n", args[0], deleted)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := objects.Keys()
			if err != nil {
				return err
			}
			if len(keys) > 0 {
				fmt.Println(strings.Join(keys, "\n"))
			}
			return nil
		},
	}
	lenCmd = &cobra.Command{
		Use:   "len",
		Short: "Prints the number of stored objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := objects.Len()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the statistics of the object store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := objects.Stats()
			if err != nil {
				return err
			}
			fmt.Println(util.FormatValue(stats))
			return nil
		},
	}
)
