package client

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/registry"
)

// ObjectsClient is a typed client of the built-in objects service
type ObjectsClient struct {
	rpc     *RPCClient
	service string
}

// NewObjectsClient creates a client for the objects service registered as service
func NewObjectsClient(rpc *RPCClient, service string) *ObjectsClient {
	return &ObjectsClient{rpc: rpc, service: service}
}

// Put stores value under key. evicted reports whether another entry was
// dropped to make room.
func (c *ObjectsClient) Put(key string, value any) (evicted bool, err error) {
	return result[bool](c.rpc.Invoke(c.service, "put", key, value))
}

// Get returns the object graph stored under key, nil if the key is not set
func (c *ObjectsClient) Get(key string) (any, error) {
	return c.rpc.Invoke(c.service, "get", key)
}

// Delete removes key and reports whether it was set
func (c *ObjectsClient) Delete(key string) (bool, error) {
	return result[bool](c.rpc.Invoke(c.service, "delete", key))
}

// Keys returns all keys in sorted order
func (c *ObjectsClient) Keys() ([]string, error) {
	list, err := result[*registry.ArrayList](c.rpc.Invoke(c.service, "keys"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(*list))
	for i, item := range *list {
		key, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key type %T", item)
		}
		keys[i] = key
	}
	return keys, nil
}

// Len returns the number of stored objects
func (c *ObjectsClient) Len() (int, error) {
	n, err := result[int32](c.rpc.Invoke(c.service, "len"))
	return int(n), err
}

// Stats returns the store statistics (capacity, len, hits, misses, evictions)
func (c *ObjectsClient) Stats() (registry.StringMap, error) {
	return result[registry.StringMap](c.rpc.Invoke(c.service, "stats"))
}
