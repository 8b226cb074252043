package stream

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/cmd/util"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"os"
	"strings"
)

var (
	// StreamCommands groups the offline stream tools
	StreamCommands = &cobra.Command{
		Use:   "stream",
		Short: "Encode and inspect serialization streams",
	}

	decodeCmd = &cobra.Command{
		Use:   "decode [encoded]",
		Short: "Dump the header, string table and payload of an encoded stream (read from stdin if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDecode,
	}

	encodeCmd = &cobra.Command{
		Use:   "encode [values...]",
		Short: "Encode values as a stream of built-in types",
		Long: `Encode values as a stream of built-in types. Values are parsed as:
  null, true, false, i:<int32>, l:<int64>, d:<float64>, s:<string>
everything else is encoded as string. Several values are encoded one after another.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEncode,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	util.SetupStreamFlags(encodeCmd)
	decodeCmd.Flags().Bool("objects", true, util.WrapString("Also decode the payload as objects of the built-in types"))

	StreamCommands.AddCommand(decodeCmd)
	StreamCommands.AddCommand(encodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	var encoded string
	if len(args) == 1 {
		encoded = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		encoded = strings.TrimRight(string(data), "\r\n")
	}

	summary, err := stream.Inspect(encoded)
	if err != nil {
		return err
	}
	fmt.Print(summary.String())

	if decodeObjects, _ := cmd.Flags().GetBool("objects"); !decodeObjects {
		return nil
	}

	fmt.Println()
	fmt.Println("OBJECTS")
	objects, err := decodeAll(encoded, common.DefaultRegistry())
	for i, obj := range objects {
		fmt.Printf("  %-22d: %s\n", i, util.FormatValue(obj))
	}
	if err != nil {
		// the payload need not consist of built-in objects only
		fmt.Printf("  stopped: %v\n", err)
	}
	return nil
}

// decodeAll reads objects until the payload is exhausted. The objects read
// before an error are returned along with it.
func decodeAll(encoded string, reg *registry.Registry) ([]any, error) {
	r := stream.NewReader(reg)
	if err := r.PrepareToRead(encoded); err != nil {
		return nil, err
	}
	if r.HasFlags(stream.FlagRPCTokenIncluded) {
		if _, err := r.ReadRPCToken(); err != nil {
			return nil, err
		}
	}

	var objects []any
	for r.Remaining() > 0 {
		obj, err := r.ReadObject()
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	values, err := util.ParseValues(args)
	if err != nil {
		return err
	}

	encoded, err := encodeAll(values, util.GetStreamConfig())
	if err != nil {
		return err
	}
	fmt.Println(encoded)
	return nil
}

// encodeAll writes values one after another into a single stream
func encodeAll(values []any, conf common.StreamConf) (string, error) {
	opts := []stream.WriterOption{stream.WithVersion(conf.EffectiveVersion())}
	if conf.ElideTypeNames {
		opts = append(opts, stream.WithFlags(stream.FlagElideTypeNames))
	}

	w, err := stream.NewWriter(common.DefaultRegistry(), opts...)
	if err != nil {
		return "", err
	}
	for _, v := range values {
		if err := w.WriteObject(v); err != nil {
			return "", err
		}
	}
	return w.String(), nil
}
