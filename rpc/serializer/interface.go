package serializer

import "github.com/ValentinKolb/dRPC/rpc/common"

// IRPCSerializer is the interface for all request / response serializers
type IRPCSerializer interface {
	// SerializeRequest encodes a request into a byte array
	SerializeRequest(req *common.Request) ([]byte, error)
	// DeserializeRequest decodes a byte array produced by SerializeRequest
	DeserializeRequest(b []byte) (*common.Request, error)
	// SerializeResponse encodes a response into a byte array
	SerializeResponse(resp *common.Response) ([]byte, error)
	// DeserializeResponse decodes a byte array produced by SerializeResponse.
	// A remote exception is returned in Response.Err, not as error.
	DeserializeResponse(b []byte) (*common.Response, error)
}
