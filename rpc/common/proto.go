package common

import (
	"github.com/ValentinKolb/dRPC/lib/registry"
	"sync"
)

// --------------------------------------------------------------------------
// Request / Response Structure
// --------------------------------------------------------------------------

// Request is a single call of a service method.
//
// On the wire a request is one stream: [token] service method argc arg...
type Request struct {
	// Service is the name of the target service
	Service string
	// Method is the name of the service method
	Method string
	// Args are object graphs, encoded with the registry of the serializer
	Args []any
	// Token is the optional RPC token (empty = none)
	Token string
}

// Response is the result of a request. Exactly one of Value and Err is
// meaningful, Err != nil marks a failed call.
//
// On the wire a response is a status prefix followed by a stream holding a
// single object: "//OK" + value or "//EX" + *registry.RemoteException.
type Response struct {
	Value any
	Err   *registry.RemoteException
}

// Error returns the remote exception as an error, nil on success
func (r *Response) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// --------------------------------------------------------------------------
// Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a request for service.method
func NewRequest(service, method string, args ...any) *Request {
	return &Request{
		Service: service,
		Method:  method,
		Args:    args,
	}
}

// NewResponse creates a successful response
func NewResponse(value any) *Response {
	return &Response{Value: value}
}

// NewErrorResponse creates a failed response of the given exception kind
func NewErrorResponse(kind string, err error) *Response {
	return &Response{Err: registry.NewRemoteException(kind, err)}
}

// --------------------------------------------------------------------------
// Response Status
// --------------------------------------------------------------------------

// ResponseStatus is the status prefix of an encoded response
type ResponseStatus int

const (
	StatusOK ResponseStatus = iota // the call returned a value
	StatusEX                       // the call failed with an exception
)

const (
	// ResponsePrefixOK prefixes the stream of a successful response
	ResponsePrefixOK = "//OK"
	// ResponsePrefixEX prefixes the stream of a failed response
	ResponsePrefixEX = "//EX"
)

// String returns the wire prefix of the status
func (s ResponseStatus) String() string {
	switch s {
	case StatusOK:
		return ResponsePrefixOK
	case StatusEX:
		return ResponsePrefixEX
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Exception Kinds
// --------------------------------------------------------------------------

// Kinds of remote exceptions created by the server
const (
	ExUnknownService   = "UnknownService"
	ExUnknownMethod    = "UnknownMethod"
	ExInvalidArguments = "InvalidArguments"
	ExInvalidToken     = "InvalidToken"
	ExMalformedRequest = "MalformedRequest"
	ExServiceError     = "ServiceError"
	ExInternal         = "Internal"
)

// --------------------------------------------------------------------------
// Default Registry
// --------------------------------------------------------------------------

var (
	defaultRegistry     *registry.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding only the built-in types. It is
// used by the CLI and by the built-in services.
func DefaultRegistry() *registry.Registry {
	defaultRegistryOnce.Do(func() {
		reg, err := registry.NewBuilder().WithBuiltins().Build()
		if err != nil {
			// the built-in registrations are static
			panic(err)
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}
