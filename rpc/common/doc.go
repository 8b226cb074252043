// Package common provides the data structures and utilities shared by the
// RPC client, server, serializer and transports.
//
// The package focuses on:
//   - The request / response envelope of a service call
//   - Configuration structures for client and server components
//   - Custom logging implementation on top of dragonboat's logger registry
//   - The default type registry holding the built-in types
//
// Key Components:
//
//   - Request: A call of Service.Method with a list of object graph arguments
//     and an optional RPC token.
//
//   - Response: Either a value or a *registry.RemoteException. Encoded
//     responses start with "//OK" or "//EX".
//
//   - ServerConfig / ClientConfig: Configuration for the server and the
//     client, each with a String() method printing a readable summary.
//
//   - Logger: Custom logging implementation that is installed as dragonboat's
//     logger factory, so every package logger (logger.GetLogger) shares the
//     "LEVEL | package | message" format.
package common
