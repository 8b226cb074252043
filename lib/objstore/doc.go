// Package objstore implements a bounded, in-memory store for decoded object
// graphs. It backs the built-in "objects" service of the RPC server and keeps
// the least recently used entries once the capacity is reached.
//
// Key Features:
//   - Fixed capacity with least-recently-used eviction
//   - Values are arbitrary object graphs (anything the type registry can encode)
//   - Hit, miss and eviction counters for diagnostics
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Storage: The store wraps a hashicorp/golang-lru/v2 cache, which provides
//     its own locking. Keys are plain strings.
//
//   - Sharing: Stored graphs are not copied. The RPC server serializes every
//     value it returns, so remote clients always receive an independent copy.
//     In-process callers must not mutate a graph after storing it.
//
// Usage Example:
//
//	s, err := objstore.NewLocalStore(1024)
//	if err != nil {
//	  return err
//	}
//	s.Put("user:7", person)
//	v, ok := s.Get("user:7")
package objstore
