package server

import (
	"github.com/ValentinKolb/dRPC/rpc/common"
)

// IServiceAdapter is the interface for all services served by the RPC server
type IServiceAdapter interface {
	// Handle handles a request and returns a response.
	// Failures must be reported as error responses (see common.NewErrorResponse),
	// a nil response is treated as an internal error.
	Handle(req *common.Request) (resp *common.Response)
}

// ServiceFunc adapts a plain function to IServiceAdapter
type ServiceFunc func(req *common.Request) *common.Response

// Handle calls f(req)
func (f ServiceFunc) Handle(req *common.Request) *common.Response {
	return f(req)
}
