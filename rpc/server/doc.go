// Package server implements the RPC server. It decodes requests with an
// IRPCSerializer, dispatches them by service name to an IServiceAdapter and
// encodes the result as a "//OK" or "//EX" response.
//
// Two services are built in:
//
//   - echo: "echo" returns its argument graph unchanged, "ping" returns "pong"
//   - objects: a bounded object store (put, get, delete, keys, len, stats),
//     backed by lib/objstore
//
// Malformed requests, unknown services or methods, invalid tokens and
// panicking services all produce exception responses, the server keeps
// running. With config.Metrics set, request counters and duration histograms
// are recorded with VictoriaMetrics/metrics (exposed by the http transport).
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Services:      []string{"echo", "objects"},
//	  TimeoutSecond: 5,
//	  Transport:     common.ServerTransportConf{Endpoint: ":8080"},
//	}
//
//	ser, err := serializer.NewStreamSerializer(common.DefaultRegistry(), config.Stream)
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	s := server.NewRPCServer(config, http.NewHttpServerTransport(), ser)
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Custom services are added with RegisterService before Serve is called.
package server
