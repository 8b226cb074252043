// Package base provides the foundation for the socket transports of the RPC
// system, implementing the core functionality independent of the specific
// network protocol (TCP, Unix sockets, etc.). Protocol specific packages only
// provide connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Connection pooling and buffer reuse
//   - Frame-based message protocol with service name and requestID tracking
//   - Response correlation, retries and reconnection
//
// Frame Format:
//
//	+----------------+-------------+--------------+--------------+---------+
//	| name len (u16) | reqID (u64) | length (u32) | service name | payload |
//	+----------------+-------------+--------------+--------------+---------+
//
// All integers are big endian. Responses echo the service name and requestID
// of the request they answer.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Core client implementation that manages multiple connections
//     with round-robin load balancing. Supports multiple connections per endpoint
//     for improved throughput.
//
//   - serverTransport: Core server implementation that accepts connections and
//     passes every frame with its service name to the registered handler.
//
// Performance Optimizations:
//
//   - Connection Pooling: Multiple connections per endpoint improve throughput
//     for large messages. For small messages a single connection per endpoint
//     usually performs better.
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse read buffers.
//
//   - Asynchronous Processing: The client sends requests and correlates responses
//     asynchronously using unique request IDs.
//
//   - Frame Batching: net.Buffers writes header and payload with a single syscall.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport uses atomic operations
//	and mutexes to ensure concurrent access safety, while the server creates a
//	dedicated goroutine for each connection.
package base
