package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// CheckEvent describes websocket payloads emitted during batch check runs.
type CheckEvent struct {
	Type      string          `json:"type"`
	JobID     string          `json:"job_id"`
	BatchID   uint            `json:"batch_id"`
	Total     int             `json:"total,omitempty"`
	Processed int             `json:"processed,omitempty"`
	Result    *CheckResultDTO `json:"result,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// CheckNotifier keeps track of active websocket clients and broadcasts
// batch check events.
type CheckNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *CheckEvent
}

// NewCheckNotifier constructs a notifier instance.
func NewCheckNotifier() *CheckNotifier {
	return &CheckNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle. The
// most recent status event is replayed so late joiners see current progress.
func (n *CheckNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	status := n.lastStatus
	n.mu.Unlock()

	if status != nil {
		_ = client.writeJSON(*status)
	}
	return client
}

// Unregister removes the websocket client and closes the socket.
func (n *CheckNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *CheckNotifier) Broadcast(event CheckEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	if event.Type == "started" || event.Type == "result" {
		snapshot := event
		snapshot.Result = nil
		n.lastStatus = &snapshot
	}

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// LastStatus returns a copy of the most recent status event, if any.
func (n *CheckNotifier) LastStatus() *CheckEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	snapshot := *n.lastStatus
	return &snapshot
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
