package base

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dRPC/rpc/common"
	"io"
	"math"
	"net"
	"time"
)

// headerSize is the fixed part of a frame header (without the service name)
const headerSize = 2 + 8 + 4

// maxFrameSize limits the payload of a single frame
const maxFrameSize = 64 * 1024 * 1024

// writeFrame writes a frame to the connection with the format:
// - 2 bytes: length of the service name (uint16, big endian)
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - M bytes: service name
// - N bytes: data payload
func writeFrame(conn net.Conn, service string, requestID uint64, data []byte) error {
	if len(service) > math.MaxUint16 {
		return fmt.Errorf("service name too long: %d bytes", len(service))
	}
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame too large: %d bytes", len(data))
	}

	header := make([]byte, headerSize+len(service))
	binary.BigEndian.PutUint16(header[:2], uint16(len(service)))
	binary.BigEndian.PutUint64(header[2:10], requestID)
	binary.BigEndian.PutUint32(header[10:14], uint32(len(data)))
	copy(header[headerSize:], service)

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer
// If the buffer is too small, it will allocate a new temporary buffer for the data
func readFrame(conn net.Conn, buf []byte) (string, uint64, []byte, error) {
	var header [headerSize]byte

	// Read header
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return "", 0, nil, err
	}

	// Parse header
	serviceLength := binary.BigEndian.Uint16(header[:2])
	requestID := binary.BigEndian.Uint64(header[2:10])
	contentLength := binary.BigEndian.Uint32(header[10:14])

	if contentLength > maxFrameSize {
		return "", 0, nil, fmt.Errorf("frame too large: %d bytes", contentLength)
	}

	// Read service name
	service := make([]byte, serviceLength)
	if _, err := io.ReadFull(conn, service); err != nil {
		return "", 0, nil, err
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return string(service), requestID, []byte{}, nil
	}

	// Check if buffer is large enough for data
	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}

	// Read data
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return "", 0, nil, err
	}

	// Return data
	return string(service), requestID, buf[:contentLength], nil
}

// UpgradeTCPConnection applies the socket and TCP options to a connection.
// Connections that are not TCP connections are left unchanged.
func UpgradeTCPConnection(conn net.Conn, socket common.SocketConf, tcp common.TCPConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(tcp.TCPNoDelay); err != nil {
		return err
	}

	// Set socket buffer sizes if configured
	if socket.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(socket.WriteBufferSize); err != nil {
			return err
		}
	}
	if socket.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(socket.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcp.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(tcp.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// Set TCP linger option if configured
	if tcp.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(tcp.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
