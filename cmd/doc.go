// Package cmd implements the command-line interface of dRPC. It provides a
// hierarchical command structure for running the server and talking to it
// as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Start and configure the dRPC server
//   - obj: Operations on the objects service (put, get, del, keys, len, stats)
//   - echo: Round-trip values through the echo service
//   - stream: Offline tools to encode and inspect streams
//   - perf: Parallel benchmark with latency percentiles
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables DRPC_<FLAG>, .env and
// .env.local files are loaded on startup.
//
// See drpc -help for a list of all commands.
package cmd
