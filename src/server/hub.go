package server

import (
	"encoding/json"
	"net/http"
	"time"

	"nday-analyzer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

func (s *HTTPServer) startHub() {
	s.hubOnce.Do(func() {
		go s.handleWebsockets()
	})
}

// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *HTTPServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.setConnections(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setConnections(len(s.clients))

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
				s.setConnections(len(s.clients))
			}

		case run := <-s.broadcast:
			msg := &models.MPushMessage{Type: "RUN", Run: run}
			for client := range s.clients {
				if !client.wants(run.Result.Symbol) {
					continue
				}
				if !client.trySend(msg) {
					// Slow consumer, drop it so the hub never blocks
					delete(s.clients, client)
					client.close()
				}
			}
			s.setConnections(len(s.clients))
		}
	}
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) setConnections(n int) {
	s.stateMutex.Lock()
	s.connections = n
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// PublishRun queues a finished run for subscribed websocket clients.
// It never blocks the caller: when the queue is full the run is dropped.
func (s *HTTPServer) PublishRun(run *models.MAnalysisRun) {
	if run == nil {
		return
	}

	s.stateMutex.Lock()
	s.lastRunAt = run.CreatedAt.UnixMilli()
	s.stateMutex.Unlock()

	select {
	case <-s.done:
	case s.broadcast <- run:
	default:
		s.Logger.Warning("Broadcast queue full, dropping run %s", run.ID)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	case <-time.After(writeWait):
		s.Logger.Warning("Hub is not running, refusing websocket from %s", c.ClientIP())
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command. An empty symbol list
// subscribes to every run.
func (s *HTTPServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	symbols := client.subscribe(cmd.Symbols)

	client.trySend(&models.MPushMessage{Type: "SUBSCRIBED", Symbols: symbols})
}
