package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/dRPC/cmd/util"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/ValentinKolb/dRPC/rpc/server"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var (
	Logger = logger.GetLogger("cli")

	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dRPC server",
		Long:    `Start the dRPC server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DRPC_<flag> (e.g. DRPC_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "services"
	ServeCmd.PersistentFlags().String(key, "echo,objects", cmdUtil.WrapString("Comma-separated list of built-in services to serve (echo, objects)"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:8080, /tmp/drpc.sock, ...)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reading and writing a single request"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "require-token"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Reject requests without a valid RPC token. If no --token is given, a random token is generated and logged"))

	key = "token"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The RPC token clients must send (implies --require-token)"))

	key = "object-capacity"
	ServeCmd.PersistentFlags().Int(key, 10_000, cmdUtil.WrapString("Maximum number of object graphs held by the objects service"))

	key = "metrics"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Record request metrics (exposed at GET /metrics by the http transport)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 16, cmdUtil.WrapString("Concurrent requests per connection (ignored for http)"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Size of the read buffers in KB (0 = transport default, ignored for http)"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket write buffer size in KB (0 = OS default, ignored for http)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The socket read buffer size in KB (0 = OS default, ignored for http)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (only for tcp)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time in seconds (only for tcp, 0 keeps the OS default)"))

	cmdUtil.SetupStreamFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse services
	serveCmdConfig.Services = nil
	for _, service := range strings.Split(viper.GetString("services"), ",") {
		if service = strings.TrimSpace(service); service != "" {
			serveCmdConfig.Services = append(serveCmdConfig.Services, service)
		}
	}
	if len(serveCmdConfig.Services) == 0 {
		return fmt.Errorf("at least one service is required")
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.ObjectCapacity = viper.GetInt("object-capacity")
	serveCmdConfig.Metrics = viper.GetBool("metrics")
	serveCmdConfig.Stream = cmdUtil.GetStreamConfig()
	serveCmdConfig.Transport = common.ServerTransportConf{
		Endpoint:       viper.GetString("endpoint"),
		WorkersPerConn: viper.GetInt("workers-per-conn"),
		BufferSize:     viper.GetInt("buffer-size") * 1024,
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}

	// token
	serveCmdConfig.Token = viper.GetString("token")
	serveCmdConfig.RequireToken = viper.GetBool("require-token") || serveCmdConfig.Token != ""
	if serveCmdConfig.RequireToken && serveCmdConfig.Token == "" {
		serveCmdConfig.Token = uuid.Must(uuid.NewV7()).String()
		fmt.Fprintf(os.Stderr, "generated RPC token: %s\n", serveCmdConfig.Token)
	}

	return nil
}

// run starts the dRPC server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {

	s, err := cmdUtil.GetSerializer(serveCmdConfig.Stream)
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- serv.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		Logger.Infof("shutting down")
		if err := serv.Close(); err != nil {
			return err
		}
		return <-errCh
	}
}
