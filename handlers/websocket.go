package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/stackarena/stackarena-backend/game"
	"github.com/stackarena/stackarena-backend/models"
	"github.com/stackarena/stackarena-backend/responses"
	"github.com/stackarena/stackarena-backend/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Connection is one user's websocket. It implements game.Subscriber: events
// are enqueued on the buffered send channel and written by a single writer
// goroutine, which preserves per-session delivery order.
type Connection struct {
	ws       *websocket.Conn
	send     chan []byte
	username string

	mu     sync.Mutex
	closed bool
}

// Deliver enqueues an event without blocking. A consumer too slow to drain
// its buffer loses messages rather than stalling a broadcast.
func (c *Connection) Deliver(event game.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling %s event: %v", event.Type, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		log.Printf("Dropping %s event for slow connection of user %s", event.Type, c.username)
	}
}

func (c *Connection) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func WsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tokenStr := vars["token"]

	claims, err := ValidateToken(tokenStr)
	if err != nil {
		log.Println(err)
		utils.HandleError(w, responses.UnauthorizedError{Msg: "Error validating token."})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	connection := &Connection{ws: conn, send: make(chan []byte, 256), username: claims.Username}
	log.Printf("User %s connected", connection.username)

	go connection.writePump()
	connection.readPump()
}

func (c *Connection) readPump() {
	defer func() {
		// A dropped connection takes the same path as an explicit leave:
		// held seats are forfeited and every subscription is removed.
		coordinator.Disconnect(c.username, c)
		c.shutdown()
		c.ws.Close()
		log.Printf("User %s disconnected", c.username)
	}()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from user %s: %v", c.username, err)
			break
		}
		c.processMessage(message)
	}
}

func (c *Connection) writePump() {
	defer c.ws.Close()

	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("error writing message: %v", err)
			break
		}
	}
}

func (c *Connection) processMessage(rawMessage []byte) {
	var msg models.SocketMessage
	if err := json.Unmarshal(rawMessage, &msg); err != nil {
		log.Printf("Error unmarshalling socket message from user %s: %v", c.username, err)
		return
	}

	switch msg.Action {
	case "joinGame":
		coordinator.Join(msg.GameID, c.username, c)
	case "makeMove":
		coordinator.Move(msg.GameID, c.username, msg.Move, c)
	case "leaveGame":
		coordinator.Leave(msg.GameID, c.username, c)
	case "watchGame":
		coordinator.Watch(msg.GameID, c.username, c)
	case "unwatchGame":
		coordinator.Unwatch(msg.GameID, c)
	case "joinChat":
		if msg.ChatID != "" {
			coordinator.Hub().Subscribe(msg.ChatID, c)
		}
	case "leaveChat":
		if msg.ChatID != "" {
			coordinator.Hub().Unsubscribe(msg.ChatID, c)
		}
	default:
		log.Printf("Unhandled socket action: %s", msg.Action)
	}
}
