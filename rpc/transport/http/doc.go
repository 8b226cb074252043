// Package http implements an HTTP-based transport layer for RPC communication.
// It provides concrete implementations of the transport interfaces defined in
// the parent package.
//
// The package focuses on:
//   - Client-side HTTP transport for sending RPC requests to servers
//   - Server-side HTTP transport for receiving and handling RPC requests
//   - Round-robin load balancing across multiple server endpoints
//   - Request routing based on the service name in the URL path
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport, sends every request
//     as "POST {endpoint}/{service}" with the encoded request as body. It uses
//     round-robin selection across endpoints and retries failed attempts.
//
//   - httpServerTransport: Implements IRPCServerTransport, routes
//     "POST /{service}" to the registered handler. If metrics are enabled the
//     Prometheus text exposition of all VictoriaMetrics metrics is served at
//     "GET /metrics".
//
// Bodies use the content type "text/x-drpc; charset=utf-8" since streams are
// plain text. RPC level failures are encoded in the body ("//EX"), HTTP status
// codes other than 200 are only used for transport errors.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. It uses
//	atomic operations for the round-robin counter to ensure thread safety when
//	selecting server endpoints.
package http
