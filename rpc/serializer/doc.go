// Package serializer converts RPC requests and responses to bytes and back.
//
// The package focuses on:
//   - A small interface so client and server do not depend on the wire format
//   - Encoding arbitrary object graphs (shared and cyclic references included)
//   - Rejecting malformed input with errors instead of panics
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - streamSerializerImpl: Encodes every request and response as a single
//     stream (see lib/stream). A request stream holds the optional RPC token,
//     the service name, the method name, the argument count and the
//     arguments. A response is "//OK" followed by a stream with the return
//     value, or "//EX" followed by a stream with a *registry.RemoteException.
//
// Wire Example:
//
//	echo.echo("hi")  ->  7|0|3|echo|string|hi|1|1|1|2|3|
//
// Thread Safety:
//
//	The serializer only holds the immutable type registry and the stream
//	configuration. Each call creates its own Writer or Reader, so a single
//	serializer is safe for concurrent use across multiple goroutines.
//
// Usage:
//
//	s, err := serializer.NewStreamSerializer(common.DefaultRegistry(), common.StreamConf{})
//	data, err := s.SerializeRequest(common.NewRequest("echo", "echo", "hi"))
//	// ... send data ...
//	req, err := s.DeserializeRequest(data)
package serializer
