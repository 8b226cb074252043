// Package client implements the RPC client. RPCClient.Invoke encodes a call
// with an IRPCSerializer, sends it over an IRPCClientTransport and decodes
// the result. Exceptions raised on the server are returned as
// *registry.RemoteException errors, so callers can inspect them with
// errors.As.
//
// EchoClient and ObjectsClient wrap Invoke for the built-in services.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConf{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	ser, err := serializer.NewStreamSerializer(common.DefaultRegistry(), config.Stream)
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	c, err := client.NewRPCClient(config, tcp.NewTCPClientTransport(), ser)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	defer c.Close()
//
//	objects := client.NewObjectsClient(c, "objects")
//	if _, err := objects.Put("user:1", registry.StringMap{"name": "Ann"}); err != nil {
//	  log.Fatal(err)
//	}
package client
