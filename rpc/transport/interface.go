package transport

import (
	"github.com/ValentinKolb/dRPC/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes the name of the addressed service and the encoded request as parameters
// and returns the encoded response. It never fails, errors are encoded in the response.
type ServerHandleFunc func(service string, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and blocks while serving requests.
	// It returns nil after Close was called.
	Listen(config common.ServerConfig) error
	// Close stops listening and closes the listener
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to a service and returns the response
	Send(service string, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
