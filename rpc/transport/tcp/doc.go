// Package tcp implements the TCP socket transport of the RPC system. It
// provides concrete implementations of the base package's connector
// interfaces.
//
// This package builds on the base package's transport functionality, inheriting its
// connection pooling, buffer reuse and request routing. See the base package
// documentation for details on the frame format.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// The default server buffer size is set to 512 KB, which provides good performance
// for typical workloads, but can be customized with ServerTransportConf.BufferSize.
package tcp
