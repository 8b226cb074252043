package server

import (
	"github.com/ValentinKolb/dRPC/lib/objstore"
	"github.com/ValentinKolb/dRPC/lib/registry"
	"github.com/ValentinKolb/dRPC/rpc/common"
)

// Method names of the objects service
const (
	MethodPut    = "put"
	MethodGet    = "get"
	MethodDelete = "delete"
	MethodKeys   = "keys"
	MethodLen    = "len"
	MethodStats  = "stats"
)

// NewObjectsAdapter creates the objects service on top of store.
//
//	put(key, value) -> bool    true if another entry was evicted
//	get(key)        -> value   null if the key is not set
//	delete(key)     -> bool    true if the key was set
//	keys()          -> list    sorted keys
//	len()           -> int32
//	stats()         -> map     store statistics
func NewObjectsAdapter(store objstore.IObjectStore) IServiceAdapter {
	return &objectsAdapterImpl{store: store}
}

type objectsAdapterImpl struct {
	store objstore.IObjectStore
}

func (adapter *objectsAdapterImpl) Handle(req *common.Request) *common.Response {
	switch req.Method {
	case MethodPut:
		if resp := checkArgc(req, 2); resp != nil {
			return resp
		}
		key, resp := stringArg(req, 0)
		if resp != nil {
			return resp
		}
		return common.NewResponse(adapter.store.Put(key, req.Args[1]))

	case MethodGet:
		if resp := checkArgc(req, 1); resp != nil {
			return resp
		}
		key, resp := stringArg(req, 0)
		if resp != nil {
			return resp
		}
		value, _ := adapter.store.Get(key)
		return common.NewResponse(value)

	case MethodDelete:
		if resp := checkArgc(req, 1); resp != nil {
			return resp
		}
		key, resp := stringArg(req, 0)
		if resp != nil {
			return resp
		}
		return common.NewResponse(adapter.store.Delete(key))

	case MethodKeys:
		if resp := checkArgc(req, 0); resp != nil {
			return resp
		}
		keys := adapter.store.Keys()
		list := make(registry.ArrayList, len(keys))
		for i, k := range keys {
			list[i] = k
		}
		return common.NewResponse(&list)

	case MethodLen:
		if resp := checkArgc(req, 0); resp != nil {
			return resp
		}
		return common.NewResponse(int32(adapter.store.Len()))

	case MethodStats:
		if resp := checkArgc(req, 0); resp != nil {
			return resp
		}
		stats := adapter.store.Stats()
		return common.NewResponse(registry.StringMap{
			"capacity":  int64(stats.Capacity),
			"len":       int64(stats.Len),
			"hits":      int64(stats.Hits),
			"misses":    int64(stats.Misses),
			"evictions": int64(stats.Evictions),
		})

	default:
		return unknownMethod(req)
	}
}
