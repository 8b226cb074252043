package client

// EchoClient is a typed client of the built-in echo service
type EchoClient struct {
	rpc     *RPCClient
	service string
}

// NewEchoClient creates a client for the echo service registered as service
func NewEchoClient(rpc *RPCClient, service string) *EchoClient {
	return &EchoClient{rpc: rpc, service: service}
}

// Echo sends value and returns the graph decoded from the response
func (c *EchoClient) Echo(value any) (any, error) {
	return c.rpc.Invoke(c.service, "echo", value)
}

// Ping returns nil if the service answers with "pong"
func (c *EchoClient) Ping() error {
	_, err := result[string](c.rpc.Invoke(c.service, "ping"))
	return err
}
