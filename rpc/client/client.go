package client

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"github.com/ValentinKolb/dRPC/rpc/serializer"
	"github.com/ValentinKolb/dRPC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// RPCClient invokes service methods on a remote RPC server. It is safe for
// concurrent use as long as the transport is.
type RPCClient struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// NewRPCClient creates a new RPC client
// The function takes a config, a transport and a serializer as parameters.
// The transport is connected before the client is returned.
func NewRPCClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCClient, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	return &RPCClient{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}, nil
}

// Invoke calls service.method with args and returns the decoded result.
// If the call fails on the server, the error is a *registry.RemoteException.
func (c *RPCClient) Invoke(service, method string, args ...any) (any, error) {
	req := common.NewRequest(service, method, args...)
	req.Token = c.config.Token

	// Serialize the request
	reqBytes, err := c.serializer.SerializeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s.%s request: %w", service, method, err)
	}

	// Send the request
	respBytes, err := c.transport.Send(service, reqBytes)
	if err != nil {
		return nil, err
	}

	// Deserialize the response
	resp, err := c.serializer.DeserializeResponse(respBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize %s.%s response: %w", service, method, err)
	}

	if err := resp.Error(); err != nil {
		Logger.Debugf("%s.%s failed: %v", service, method, err)
		return nil, err
	}
	return resp.Value, nil
}

// Close closes the underlying transport
func (c *RPCClient) Close() error {
	return c.transport.Close()
}

// result converts the result of Invoke to T
func result[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type %T, expected %T", v, zero)
	}
	return t, nil
}
