package server

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/rpc/common"
)

// checkArgc returns an InvalidArguments response if req does not carry
// exactly n arguments, nil otherwise
func checkArgc(req *common.Request, n int) *common.Response {
	if len(req.Args) != n {
		return common.NewErrorResponse(common.ExInvalidArguments,
			fmt.Errorf("%s.%s expects %d arguments, got %d", req.Service, req.Method, n, len(req.Args)))
	}
	return nil
}

// stringArg returns argument i as string
func stringArg(req *common.Request, i int) (string, *common.Response) {
	s, ok := req.Args[i].(string)
	if !ok {
		return "", common.NewErrorResponse(common.ExInvalidArguments,
			fmt.Errorf("%s.%s: argument %d must be a string, got %T", req.Service, req.Method, i, req.Args[i]))
	}
	return s, nil
}

// unknownMethod returns the response for methods a service does not implement
func unknownMethod(req *common.Request) *common.Response {
	return common.NewErrorResponse(common.ExUnknownMethod,
		fmt.Errorf("service %s has no method %q", req.Service, req.Method))
}
