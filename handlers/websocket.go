package handlers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"pbl5-backend/models"
)

// Observer - one connected telemetry client
type Observer interface {
	WriteJSON(v interface{}) error
	Close() error
}

// ClientManager - fan-out of telemetry to web clients. Slow or broken
// observers are dropped on their first failed write.
type ClientManager struct {
	clients    map[Observer]bool
	broadcast  chan interface{}
	register   chan Observer
	unregister chan Observer
	done       chan struct{}
	mutex      sync.RWMutex
}

// NewClientManager - manager with a broadcast queue of size buffer
func NewClientManager(buffer int) *ClientManager {
	if buffer <= 0 {
		buffer = 100
	}
	return &ClientManager{
		clients:    make(map[Observer]bool),
		broadcast:  make(chan interface{}, buffer),
		register:   make(chan Observer),
		unregister: make(chan Observer),
		done:       make(chan struct{}),
	}
}

// Start - client management loop
func (manager *ClientManager) Start(ctx context.Context) {
	log.Println("✅ ClientManager started")
	defer close(manager.done)
	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mutex.Lock()
			manager.clients[client] = true
			manager.mutex.Unlock()
			log.Printf("client registered (%d connected)", manager.GetClientCount())

		case client := <-manager.unregister:
			manager.drop(client)

		case message := <-manager.broadcast:
			manager.handleBroadcast(message)
		}
	}
}

func (manager *ClientManager) handleBroadcast(message interface{}) {
	manager.mutex.RLock()
	var failed []Observer
	for client := range manager.clients {
		if err := client.WriteJSON(message); err != nil {
			log.Printf("send failed, dropping client: %v", err)
			failed = append(failed, client)
		}
	}
	manager.mutex.RUnlock()

	for _, client := range failed {
		manager.drop(client)
	}
}

func (manager *ClientManager) drop(client Observer) {
	manager.mutex.Lock()
	_, ok := manager.clients[client]
	delete(manager.clients, client)
	manager.mutex.Unlock()
	if ok {
		_ = client.Close()
		log.Printf("client unregistered (%d connected)", manager.GetClientCount())
	}
}

func (manager *ClientManager) closeAll() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	for client := range manager.clients {
		_ = client.Close()
		delete(manager.clients, client)
	}
}

// Broadcast - queue message for every client; drops it when the queue is full
func (manager *ClientManager) Broadcast(message interface{}) bool {
	select {
	case manager.broadcast <- message:
		return true
	default:
		log.Println("⚠️ broadcast queue full, message dropped")
		return false
	}
}

// BroadcastMessage - envelope helper for server events
func (manager *ClientManager) BroadcastMessage(msgType string, data interface{}) bool {
	return manager.Broadcast(models.WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Register - hand a client to the management loop
func (manager *ClientManager) Register(client Observer) {
	select {
	case manager.register <- client:
	case <-manager.done:
		_ = client.Close()
	}
}

// Unregister - remove a client; no-op once the manager has stopped
func (manager *ClientManager) Unregister(client Observer) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

// GetClientCount - connected clients
func (manager *ClientManager) GetClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// wsObserver - websocket connection with a bounded write
type wsObserver struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (o *wsObserver) WriteJSON(v interface{}) error {
	if o.timeout > 0 {
		_ = o.conn.SetWriteDeadline(time.Now().Add(o.timeout))
	}
	return o.conn.WriteJSON(v)
}

func (o *wsObserver) Close() error {
	return o.conn.Close()
}

// HandleTelemetryWebSocket - /ws telemetry stream. Incoming messages are
// read and discarded to keep the connection alive.
func (manager *ClientManager) HandleTelemetryWebSocket(writeTimeout time.Duration) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		observer := &wsObserver{conn: c, timeout: writeTimeout}

		welcome := models.WebSocketMessage{
			Type: models.MessageTypeSystemInfo,
			Data: map[string]interface{}{
				"message":      "telemetry connected",
				"connected_at": time.Now().Format(time.RFC3339),
			},
			Timestamp: time.Now().UnixMilli(),
		}
		if err := observer.WriteJSON(welcome); err != nil {
			log.Printf("WebSocket welcome failed: %v", err)
			return
		}

		manager.Register(observer)
		defer manager.Unregister(observer)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				log.Printf("WebSocket closed: %v", err)
				return
			}
		}
	}
}
