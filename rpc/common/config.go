package common

import (
	"fmt"
	"github.com/ValentinKolb/dRPC/lib/stream"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared configuration structs
// --------------------------------------------------------------------------

// StreamConf controls how streams are written and read. Readers accept every
// supported version regardless of this configuration.
type StreamConf struct {
	// Version is the protocol version written (0 means stream.Version)
	Version int
	// ElideTypeNames replaces type signatures with short registry ids derived
	// from the signatures, so both peers must register matching types.
	ElideTypeNames bool
	// MaxDepth bounds the nesting of objects in read streams
	// (0 means stream.DefaultMaxDepth)
	MaxDepth int
}

// EffectiveVersion returns the version streams are written with
func (c StreamConf) EffectiveVersion() int {
	if c.Version == 0 {
		return stream.Version
	}
	return c.Version
}

// EffectiveMaxDepth returns the nesting bound used when reading streams
func (c StreamConf) EffectiveMaxDepth() int {
	if c.MaxDepth <= 0 {
		return stream.DefaultMaxDepth
	}
	return c.MaxDepth
}

// SocketConf holds socket buffer settings (0 keeps the OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec <= 0 keeps the OS default
	TCPLingerSec int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConf holds the transport settings of the server
type ServerTransportConf struct {
	// Endpoint is the listen address (host:port or unix socket path)
	Endpoint string
	// WorkersPerConn limits concurrent requests per connection (socket transports)
	WorkersPerConn int
	// BufferSize is the size of pooled read buffers (socket transports)
	BufferSize int
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters of the RPC server
type ServerConfig struct {
	// Services are the names of the built-in services to start
	Services []string

	// TimeoutSecond bounds reads and writes of a single request
	TimeoutSecond int64

	// Logging configuration
	LogLevel string

	// Transport settings
	Transport ServerTransportConf

	// Stream settings for responses
	Stream StreamConf

	// RequireToken rejects requests without the configured Token
	RequireToken bool
	Token        string

	// ObjectCapacity is the capacity of the objects service store
	ObjectCapacity int

	// Metrics exposes request metrics (http: GET /metrics)
	Metrics bool
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Metrics", fmt.Sprintf("%t", c.Metrics))

	// Stream
	addSection("Stream")
	addField("Version", strconv.Itoa(c.Stream.EffectiveVersion()))
	addField("Elide Type Names", fmt.Sprintf("%t", c.Stream.ElideTypeNames))
	addField("Max Depth", strconv.Itoa(c.Stream.EffectiveMaxDepth()))

	// Security
	addSection("Security")
	addField("Require Token", fmt.Sprintf("%t", c.RequireToken))
	if c.Token != "" {
		addField("Token", maskToken(c.Token))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Services
	addSection("Services")
	for i, service := range c.Services {
		addField(strconv.Itoa(i), service)
	}
	addField("Object Capacity", strconv.Itoa(c.ObjectCapacity))

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConf holds the transport settings of the client
type ClientTransportConf struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters of the RPC client
type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConf
	Stream        StreamConf
	// Token is sent with every request if set
	Token string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))
	addField("Stream Version", strconv.Itoa(c.Stream.EffectiveVersion()))
	addField("Elide Type Names", fmt.Sprintf("%t", c.Stream.ElideTypeNames))
	addField("Max Depth", strconv.Itoa(c.Stream.EffectiveMaxDepth()))
	if c.Token != "" {
		addField("Token", maskToken(c.Token))
	}

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// maskToken hides all but the first four characters of a token
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}
