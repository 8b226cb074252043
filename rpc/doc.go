// Package rpc provides remote procedure calls that carry whole object graphs.
// Requests and responses are encoded as streams (see lib/stream), so shared
// and cyclic references survive the trip between client and server.
//
// The package is organized into several subpackages:
//
//   - common: Request and Response, exception kinds, configuration structures
//     and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP), routed by service name.
//
//   - serializer: Conversion between Request/Response and encoded streams.
//
//   - client: The RPC client plus typed clients for the built-in services.
//
//   - server: The RPC server, dispatching requests to services, including
//     the built-in echo and objects services.
package rpc
