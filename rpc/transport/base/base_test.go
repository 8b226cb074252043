package base

import (
	"bytes"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dRPC/rpc/common"
)

// unixConnector is a minimal connector for both sides, using unix sockets
type unixConnector struct{}

func (unixConnector) GetName() string { return "unix-test" }

func (unixConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("unix", endpoint)
}

func (unixConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("unix", config.Transport.Endpoint)
}

func (unixConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

type unixServerConnector struct{ unixConnector }

func (unixServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error { return nil }

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		service string
		id      uint64
		data    []byte
	}{
		{"echo", 1, []byte("7|0|0|")},
		{"", 0, nil},
		{"objects", 1 << 60, bytes.Repeat([]byte("x"), 4096)},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%d", tt.service, tt.id), func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- writeFrame(client, tt.service, tt.id, tt.data) }()

			// buffer smaller than the payload forces an allocation
			service, id, data, err := readFrame(server, make([]byte, 16))
			if err != nil {
				t.Fatalf("readFrame failed: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame failed: %v", err)
			}

			if service != tt.service || id != tt.id || !bytes.Equal(data, tt.data) {
				t.Errorf("frame mismatch: got (%q, %d, %d bytes)", service, id, len(data))
			}
		})
	}
}

func TestFrameTooLarge(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	if err := writeFrame(client, strings.Repeat("s", 1<<16), 1, nil); err == nil {
		t.Error("writeFrame should reject a service name longer than 65535 bytes")
	}
}

func TestClientServer(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "rpc.sock")

	server := NewBaseServerTransport(unixServerConnector{}, 1024, 4)
	server.RegisterHandler(func(service string, req []byte) []byte {
		return []byte(service + ":" + strings.ToUpper(string(req)))
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- server.Listen(common.ServerConfig{
			TimeoutSecond: 5,
			Transport:     common.ServerTransportConf{Endpoint: socket},
		})
	}()

	// wait for the socket
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	client := NewBaseClientTransport(unixConnector{})
	err := client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConf{
			Endpoints:              []string{socket},
			ConnectionsPerEndpoint: 2,
		},
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				req := fmt.Sprintf("req-%d-%d", g, i)
				resp, err := client.Send("echo", []byte(req))
				if err != nil {
					t.Errorf("Send failed: %v", err)
					return
				}
				if want := "echo:" + strings.ToUpper(req); string(resp) != want {
					t.Errorf("Send(%s) = %q, want %q", req, resp, want)
				}
			}
		}(g)
	}
	wg.Wait()

	if err := client.Close(); err != nil {
		t.Errorf("client Close failed: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Errorf("server Close failed: %v", err)
	}
	select {
	case err := <-listenErr:
		if err != nil {
			t.Errorf("Listen returned %v after Close", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("Listen did not return after Close")
	}

	if _, err := client.Send("echo", nil); err == nil {
		t.Error("Send after Close should fail")
	}
}

func TestConnectFailure(t *testing.T) {
	client := NewBaseClientTransport(unixConnector{})

	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Error("Connect without endpoints should fail")
	}

	missing := filepath.Join(t.TempDir(), "missing.sock")
	err := client.Connect(common.ClientConfig{Transport: common.ClientTransportConf{Endpoints: []string{missing}}})
	if err == nil {
		t.Error("Connect to a missing socket should fail")
	}
}
