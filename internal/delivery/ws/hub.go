package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultWriteWait = 5 * time.Second

// client serializes writes to one socket; gorilla conn allows a single writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]*client

	// дедлайн записи: клиент, который не читает, не держит остальных
	writeWait time.Duration
}

func NewHub() *Hub {
	log.Printf("[hub] init")
	return &Hub{
		rooms:     make(map[string]map[*websocket.Conn]*client),
		writeWait: defaultWriteWait,
	}
}

func (h *Hub) Register(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]*client)
		log.Printf("[hub] create room=%s", roomID)
	}

	h.rooms[roomID][conn] = &client{conn: conn}
	log.Printf("[hub] register room=%s conns=%d", roomID, len(h.rooms[roomID]))
}

func (h *Hub) Unregister(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		log.Printf("[hub] unregister skip: no room=%s", roomID)
		return
	}

	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
		log.Printf("[hub] unregister room=%s conns=%d", roomID, len(conns))
	}

	if len(conns) == 0 {
		delete(h.rooms, roomID)
		log.Printf("[hub] delete room=%s", roomID)
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *Hub) snapshot(roomID string) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*client, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

// SendToRoom пишет вне лока хаба. Соединение с ошибкой записи выкидывается.
func (h *Hub) SendToRoom(roomID string, msg []byte) {
	clients := h.snapshot(roomID)
	if len(clients) == 0 {
		log.Printf("[hub][SEND-SKIP] room=%s reason=no_active_connections", roomID)
		return
	}

	log.Printf("[hub][SEND] room=%s conns=%d bytes=%d", roomID, len(clients), len(msg))

	for _, c := range clients {
		if err := h.write(c, msg); err != nil {
			log.Printf("[hub][SEND-ERR] room=%s err=%v drop", roomID, err)
			h.Unregister(roomID, c.conn)
		}
	}
}

func (h *Hub) write(c *client, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
