package wsgate

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"anonpair/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
)

// Client is one WebSocket connection of an anonymous user.
type Client struct {
	UserID models.UserID
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan OutFrame

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(hub *Hub, user models.UserID, conn *websocket.Conn) *Client {
	return &Client{
		UserID: user,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan OutFrame, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Run registers the client and starts its pumps.
func (c *Client) Run() {
	c.Hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which closes the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) enqueue(f OutFrame) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}
	select {
	case c.Send <- f:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var f InFrame
		if err := json.Unmarshal(message, &f); err != nil {
			log.Printf("Error decoding JSON from client %d: %v", c.UserID, err)
			continue
		}
		ev, err := f.Event(c.UserID)
		if err != nil {
			log.Printf("WARN: ignoring frame from client %d: %v", c.UserID, err)
			continue
		}
		if err := c.Hub.Events.Submit(context.Background(), ev); err != nil {
			log.Printf("ERROR: submit from client %d: %v", c.UserID, err)
		}
	}
}

// writePump writes queued frames, one JSON document per WebSocket message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case f := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(f); err != nil {
				log.Printf("Error writing frame for client %d: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
