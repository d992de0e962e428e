// Package rpcclient is the long-lived Unix-socket JSON-RPC 2.0 client
// that carries Signal messages in and out of the bridge (spec.md §4.1).
//
// Concurrency contract: one writer goroutine at a time (serialized by
// writeMu), exactly one reader goroutine. The reader never blocks on a
// caller; request() blocks its own caller up to a timeout, correlating
// replies by id through a waiter map — grounded on beeper-ai-bridge's
// request/response correlation pattern generalized from an HTTP SDK to a
// raw socket.
package rpcclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/bridgeerr"
)

// Envelope is the raw inbound notification payload delivered by the
// "receive" JSON-RPC method, handed to the envelope parser unparsed.
type Envelope = json.RawMessage

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type waiter struct {
	resultCh chan rpcResponse
}

// Transport is a single JSON-RPC connection over a Unix domain socket.
type Transport struct {
	socketPath string
	log        zerolog.Logger

	mu        sync.Mutex // guards conn/connected/stopped
	conn      net.Conn
	connected bool
	stopped   bool

	writeMu sync.Mutex

	nextID  int64
	idMu    sync.Mutex
	waiters map[int64]*waiter
	waitMu  sync.Mutex

	notifications   []Envelope
	notificationsMu sync.Mutex

	readerDone chan struct{}
}

// New creates a transport bound to socketPath. Call Connect to dial.
func New(socketPath string, log zerolog.Logger) *Transport {
	return &Transport{
		socketPath: socketPath,
		log:        log,
		waiters:    make(map[int64]*waiter),
	}
}

// Connect attempts repeated connections (500ms backoff) until timeout
// elapses, then spawns the single reader goroutine.
func (t *Transport) Connect(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		conn, err := net.Dial("unix", t.socketPath)
		if err == nil {
			t.mu.Lock()
			t.conn = conn
			t.connected = true
			t.stopped = false
			t.mu.Unlock()
			t.readerDone = make(chan struct{})
			go t.readLoop()
			return nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return bridgeerr.Wrap(bridgeerr.TransportUnavailable, lastErr)
		}
		select {
		case <-ctx.Done():
			return bridgeerr.Wrap(bridgeerr.TransportUnavailable, ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Connected reports whether the transport currently believes it has a
// live socket.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *Transport) readLoop() {
	defer close(t.readerDone)
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			t.log.Warn().Err(err).Msg("rpcclient: discarding malformed line")
			continue
		}
		t.dispatch(resp)
	}
	t.markClosed()
}

func (t *Transport) dispatch(resp rpcResponse) {
	if resp.ID != nil {
		t.waitMu.Lock()
		w, ok := t.waiters[*resp.ID]
		if ok {
			delete(t.waiters, *resp.ID)
		}
		t.waitMu.Unlock()
		if ok {
			w.resultCh <- resp
			return
		}
		t.log.Debug().Int64("id", *resp.ID).Msg("rpcclient: response for unknown id, discarding")
		return
	}
	if resp.Method == "receive" {
		t.notificationsMu.Lock()
		t.notifications = append(t.notifications, Envelope(append([]byte(nil), resp.Params...)))
		t.notificationsMu.Unlock()
		return
	}
	t.log.Debug().Str("method", resp.Method).Msg("rpcclient: discarding unrecognized notification")
}

func (t *Transport) markClosed() {
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()

	t.waitMu.Lock()
	waiters := t.waiters
	t.waiters = make(map[int64]*waiter)
	t.waitMu.Unlock()
	for _, w := range waiters {
		w.resultCh <- rpcResponse{Error: &rpcError{Message: "transport-closed"}}
	}
}

// Request sends one JSON-RPC call and blocks until its response arrives
// or timeout elapses.
func (t *Transport) Request(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil, bridgeerr.New(bridgeerr.TransportClosed, "rpcclient: not connected")
	}
	conn := t.conn
	t.mu.Unlock()

	id := t.allocID()
	w := &waiter{resultCh: make(chan rpcResponse, 1)}
	t.waitMu.Lock()
	t.waiters[id] = w
	t.waitMu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		t.removeWaiter(id)
		return nil, fmt.Errorf("rpcclient: marshal request: %w", err)
	}
	data = append(data, '\n')

	t.writeMu.Lock()
	_, writeErr := conn.Write(data)
	t.writeMu.Unlock()
	if writeErr != nil {
		t.removeWaiter(id)
		return nil, bridgeerr.Wrap(bridgeerr.TransportClosed, writeErr)
	}

	select {
	case resp := <-w.resultCh:
		if resp.Error != nil {
			return nil, bridgeerr.New(bridgeerr.RPCError, resp.Error.Message)
		}
		return resp.Result, nil
	case <-time.After(timeout):
		t.removeWaiter(id)
		return nil, bridgeerr.New(bridgeerr.RPCTimeout, fmt.Sprintf("rpcclient: %s timed out after %s", method, timeout))
	case <-ctx.Done():
		t.removeWaiter(id)
		return nil, bridgeerr.Wrap(bridgeerr.TransportClosed, ctx.Err())
	}
}

func (t *Transport) removeWaiter(id int64) {
	t.waitMu.Lock()
	delete(t.waiters, id)
	t.waitMu.Unlock()
}

func (t *Transport) allocID() int64 {
	t.idMu.Lock()
	defer t.idMu.Unlock()
	t.nextID++
	return t.nextID
}

// DrainNotifications returns and clears all queued inbound-message
// notifications received since the last call. Non-blocking.
func (t *Transport) DrainNotifications() []Envelope {
	t.notificationsMu.Lock()
	defer t.notificationsMu.Unlock()
	out := t.notifications
	t.notifications = nil
	return out
}

// Disconnect stops the transport: closes the socket, releases all
// pending waiters, and joins the reader.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	conn := t.conn
	t.connected = false
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if t.readerDone != nil {
		<-t.readerDone
	}
}

// Reconnect disconnects, waits briefly, then reconnects.
func (t *Transport) Reconnect(ctx context.Context, timeout time.Duration) error {
	t.Disconnect()
	time.Sleep(300 * time.Millisecond)
	return t.Connect(ctx, timeout)
}

// Send issues the Signal "send" method.
func (t *Transport) Send(ctx context.Context, recipient, message string, attachments []string) error {
	params := map[string]any{"recipient": []string{recipient}, "message": message}
	if len(attachments) > 0 {
		params["attachments"] = attachments
	}
	_, err := t.Request(ctx, "send", params, 30*time.Second)
	return err
}

// SendTyping issues the Signal "sendTyping" method.
func (t *Transport) SendTyping(ctx context.Context, recipient string, stop bool) error {
	params := map[string]any{"recipient": recipient, "stop": stop}
	_, err := t.Request(ctx, "sendTyping", params, 10*time.Second)
	return err
}

// SendReaction issues the Signal "sendReaction" method.
func (t *Transport) SendReaction(ctx context.Context, recipient, emoji, targetAuthor string, targetTimestamp int64) error {
	params := map[string]any{
		"recipient":       recipient,
		"emoji":           emoji,
		"targetAuthor":    targetAuthor,
		"targetTimestamp": targetTimestamp,
	}
	_, err := t.Request(ctx, "sendReaction", params, 10*time.Second)
	return err
}

// ListContacts issues the Signal "listContacts" method.
func (t *Transport) ListContacts(ctx context.Context) (json.RawMessage, error) {
	return t.Request(ctx, "listContacts", nil, 15*time.Second)
}
