package rpcclient

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// startFakeDaemon listens on a Unix socket and echoes one JSON-RPC
// response per request line, plus lets the test push notifications.
func startFakeDaemon(t *testing.T, handle func(conn net.Conn, line []byte)) (socketPath string, closeFn func()) {
	t.Helper()
	dir := t.TempDir()
	socketPath = filepath.Join(dir, "signal.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			handle(conn, line)
		}
	}()
	return socketPath, func() { ln.Close() }
}

func TestRequestResponseCorrelation(t *testing.T) {
	socketPath, closeDaemon := startFakeDaemon(t, func(conn net.Conn, line []byte) {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
		}
		if err := json.Unmarshal(line, &req); err != nil {
			return
		}
		resp := rpcResponse{JSONRPC: "2.0", ID: &req.ID, Result: json.RawMessage(`{"ok":true}`)}
		data, _ := json.Marshal(resp)
		data = append(data, '\n')
		conn.Write(data)
	})
	defer closeDaemon()

	log := zerolog.Nop()
	tr := New(socketPath, log)
	if err := tr.Connect(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer tr.Disconnect()

	result, err := tr.Request(context.Background(), "send", map[string]any{"x": 1}, 2*time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !parsed.OK {
		t.Fatalf("expected ok=true, got %s", result)
	}
}

func TestRequestTimeout(t *testing.T) {
	socketPath, closeDaemon := startFakeDaemon(t, func(conn net.Conn, line []byte) {
		// never reply
	})
	defer closeDaemon()

	tr := New(socketPath, zerolog.Nop())
	if err := tr.Connect(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer tr.Disconnect()

	_, err := tr.Request(context.Background(), "send", nil, 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestDrainNotifications(t *testing.T) {
	socketPath, closeDaemon := startFakeDaemon(t, func(conn net.Conn, line []byte) {})
	defer closeDaemon()

	tr := New(socketPath, zerolog.Nop())
	if err := tr.Connect(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer tr.Disconnect()

	if notifs := tr.DrainNotifications(); len(notifs) != 0 {
		t.Fatalf("expected no notifications yet, got %d", len(notifs))
	}

	tr.dispatch(rpcResponse{Method: "receive", Params: json.RawMessage(`{"envelope":{}}`)})
	notifs := tr.DrainNotifications()
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	if len(tr.DrainNotifications()) != 0 {
		t.Fatal("expected drain to clear the queue")
	}
}

func TestDisconnectReleasesWaiters(t *testing.T) {
	socketPath, closeDaemon := startFakeDaemon(t, func(conn net.Conn, line []byte) {})
	defer closeDaemon()

	tr := New(socketPath, zerolog.Nop())
	if err := tr.Connect(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Request(context.Background(), "send", nil, 5*time.Second)
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	tr.Disconnect()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected error after disconnect")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request did not unblock after disconnect")
	}
}
