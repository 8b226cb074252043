package server

import (
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/rpc/common"
)

// Method names of the echo service
const (
	MethodEcho = "echo"
	MethodPing = "ping"
)

// NewEchoAdapter creates the echo service. "echo" returns its single argument
// graph unchanged (several arguments are returned as one list), "ping"
// returns "pong".
func NewEchoAdapter() IServiceAdapter {
	return &echoAdapterImpl{}
}

type echoAdapterImpl struct{}

func (adapter *echoAdapterImpl) Handle(req *common.Request) *common.Response {
	switch req.Method {
	case MethodEcho:
		switch len(req.Args) {
		case 0:
			return common.NewResponse(nil)
		case 1:
			return common.NewResponse(req.Args[0])
		default:
			list := registry.ArrayList(req.Args)
			return common.NewResponse(&list)
		}
	case MethodPing:
		if resp := checkArgc(req, 0); resp != nil {
			return resp
		}
		return common.NewResponse("pong")
	default:
		return unknownMethod(req)
	}
}
