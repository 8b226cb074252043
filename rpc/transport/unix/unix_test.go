package unix

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dRPC/rpc/common"
)

func TestUnixRoundTrip(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "drpc.sock")

	server := NewUnixServerTransport()
	server.RegisterHandler(func(service string, req []byte) []byte {
		return append([]byte(service+"|"), req...)
	})

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{TimeoutSecond: 5, Transport: common.ServerTransportConf{Endpoint: socket}})
	}()
	defer func() {
		_ = server.Close()
		if err := <-done; err != nil {
			t.Errorf("Listen returned %v", err)
		}
	}()

	// wait for the socket
	for start := time.Now(); ; time.Sleep(10 * time.Millisecond) {
		if conn, err := net.Dial("unix", socket); err == nil {
			conn.Close()
			break
		}
		if time.Since(start) > 5*time.Second {
			t.Fatal("server did not start")
		}
	}

	client := NewUnixClientTransport()
	if err := client.Connect(common.ClientConfig{TimeoutSecond: 5, Transport: common.ClientTransportConf{Endpoints: []string{socket}}}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	resp, err := client.Send("objects", []byte("7|0|0|"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(resp) != "objects|7|0|0|" {
		t.Errorf("Send returned %q", resp)
	}
}
