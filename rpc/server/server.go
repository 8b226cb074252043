package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/objstore"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/ValentinKolb/dRPC/rpc/serializer"
	"github.com/ValentinKolb/dRPC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc")

// Names of the built-in services
const (
	ServiceEcho    = "echo"
	ServiceObjects = "objects"
)

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters.
// The built-in services named in config.Services are created by Serve,
// additional services can be added with RegisterService.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		ser,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		services:   xsync.NewMapOf[string, IServiceAdapter](),
	}
}

// RPCServer dispatches decoded requests to the registered services
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	services   *xsync.MapOf[string, IServiceAdapter]
}

// RegisterService adds a service under name, replacing any previous one
func (s *RPCServer) RegisterService(name string, adapter IServiceAdapter) error {
	if name == "" {
		return errors.New("service name must not be empty")
	}
	if adapter == nil {
		return fmt.Errorf("service %s: adapter is nil", name)
	}
	if _, loaded := s.services.LoadAndStore(name, adapter); loaded {
		Logger.Warningf("replaced service %s", name)
	}
	return nil
}

// NewBuiltinService creates the built-in service with the given name
func NewBuiltinService(name string, config common.ServerConfig) (IServiceAdapter, error) {
	switch name {
	case ServiceEcho:
		return NewEchoAdapter(), nil
	case ServiceObjects:
		store, err := objstore.NewLocalStore(config.ObjectCapacity)
		if err != nil {
			return nil, err
		}
		return NewObjectsAdapter(store), nil
	default:
		return nil, fmt.Errorf("unknown built-in service %q", name)
	}
}

func (s *RPCServer) init() error {
	// Init logger
	if s.config.LogLevel != "" {
		if err := common.InitLoggers(s.config.LogLevel); err != nil {
			return err
		}
	}

	if s.config.RequireToken && s.config.Token == "" {
		return errors.New("a token is required but none is configured")
	}

	for _, name := range s.config.Services {
		adapter, err := NewBuiltinService(name, s.config)
		if err != nil {
			return err
		}
		if err := s.RegisterService(name, adapter); err != nil {
			return err
		}
		Logger.Infof("created service %s", name)
	}

	if s.services.Size() == 0 {
		return errors.New("no services configured")
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	// Configure the transport layer
	s.transport.RegisterHandler(s.handle)

	return nil
}

// Serve starts the RPC server
// This function will also create the configured services and start the
// transport layer. It blocks until the transport is closed.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport, Serve returns afterward
func (s *RPCServer) Close() error {
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Request Handling
// --------------------------------------------------------------------------

// handle is the transport handler: it decodes a request, dispatches it and
// encodes the response. Every failure is turned into an exception response.
func (s *RPCServer) handle(service string, data []byte) []byte {
	start := time.Now()

	var resp *common.Response
	req, err := s.serializer.DeserializeRequest(data)
	if err != nil {
		Logger.Debugf("malformed request for %s: %v", service, err)
		resp = common.NewErrorResponse(common.ExMalformedRequest, err)
	} else {
		resp = s.dispatch(service, req)
	}

	out, err := s.serializer.SerializeResponse(resp)
	if err != nil {
		Logger.Warningf("failed to serialize response of %s: %v", service, err)
		resp = common.NewErrorResponse(common.ExInternal, fmt.Errorf("failed to serialize response: %w", err))
		if out, err = s.serializer.SerializeResponse(resp); err != nil {
			Logger.Errorf("failed to serialize error response of %s: %v", service, err)
			out = nil
		}
	}

	s.observe(service, resp, start)
	return out
}

// dispatch checks the request and hands it to its service
func (s *RPCServer) dispatch(service string, req *common.Request) (resp *common.Response) {
	if req.Service != service {
		return common.NewErrorResponse(common.ExMalformedRequest,
			fmt.Errorf("request for service %q was routed to %q", req.Service, service))
	}

	if s.config.RequireToken && subtle.ConstantTimeCompare([]byte(req.Token), []byte(s.config.Token)) != 1 {
		return common.NewErrorResponse(common.ExInvalidToken, errors.New("missing or invalid RPC token"))
	}

	adapter, ok := s.services.Load(service)
	if !ok {
		return common.NewErrorResponse(common.ExUnknownService, fmt.Errorf("unknown service %q", service))
	}

	// a failing service must not take the server down
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("service %s.%s panicked: %v", service, req.Method, r)
			resp = common.NewErrorResponse(common.ExInternal, fmt.Errorf("%s.%s: %v", service, req.Method, r))
		}
	}()

	resp = adapter.Handle(req)
	if resp == nil {
		return common.NewErrorResponse(common.ExInternal, fmt.Errorf("%s.%s returned no response", service, req.Method))
	}
	return resp
}
