package util

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/rpc/client"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/ValentinKolb/dRPC/rpc/serializer"
	"github.com/ValentinKolb/dRPC/rpc/transport"
	"github.com/ValentinKolb/dRPC/rpc/transport/http"
	"github.com/ValentinKolb/dRPC/rpc/transport/tcp"
	"github.com/ValentinKolb/dRPC/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (DRPC_<FLAG>)
	EnvPrefix = "drpc"
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

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and binds environment variables to viper
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupStreamFlags adds the stream encoding flags to a command
func SetupStreamFlags(cmd *cobra.Command) {
	key := "stream-version"
	cmd.PersistentFlags().Int(key, 0, WrapString("Protocol version of written streams (5-8, 0 = current). Streams of every supported version are read"))

	key = "elide-types"
	cmd.PersistentFlags().Bool(key, false, WrapString("Replace type signatures with short ids derived from them. Client and server must register matching types"))

	key = "stream-max-depth"
	cmd.PersistentFlags().Int(key, 0, WrapString("Maximum nesting of objects in read streams (0 = default)"))
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "token"
	cmd.PersistentFlags().String(key, "", WrapString("RPC token sent with every request"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "http://localhost:8080", WrapString("The address of the dRPC server. For transports that support load balancing, multiple endpoints can be specified as a comma-separated list"))

	key = "transport-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 1, WrapString("Simultaneous connections per endpoint - for transports that support this feature"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry the request"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the write buffer for the transport (in KB, ignored for http)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the read buffer for the transport (in KB, ignored for http)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time for the transport (in seconds, only for tcp, 0 keeps the OS default)"))

	SetupStreamFlags(cmd)
}

// GetStreamConfig reads the stream configuration from viper
func GetStreamConfig() common.StreamConf {
	return common.StreamConf{
		Version:        viper.GetInt("stream-version"),
		ElideTypeNames: viper.GetBool("elide-types"),
		MaxDepth:       viper.GetInt("stream-max-depth"),
	}
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Token:         viper.GetString("token"),
		Stream:        GetStreamConfig(),
		Transport: common.ClientTransportConf{
			RetryCount:             viper.GetInt("transport-retries"),
			Endpoints:              strings.Split(viper.GetString("transport-endpoints"), ","),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}
}

// GetSerializer creates a serializer based on configuration.
// All commands use the registry of built-in types.
func GetSerializer(conf common.StreamConf) (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "stream":
		return serializer.NewStreamSerializer(common.DefaultRegistry(), conf)
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates a client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// NewClient binds the flags of cmd and creates a connected RPC client
func NewClient(cmd *cobra.Command) (*client.RPCClient, error) {
	// Bind command flags to viper
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	config := GetClientConfig()

	s, err := GetSerializer(config.Stream)
	if err != nil {
		return nil, err
	}

	t, err := GetTransport()
	if err != nil {
		return nil, err
	}

	return client.NewRPCClient(*config, t, s)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
