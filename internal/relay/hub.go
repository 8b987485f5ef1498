package relay

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	roomCodeLength = 6
	maxRoomSize    = 4

	statusWaiting = "waiting"
	statusPlaying = "playing"
)

// Seat colors, assigned in join order.
var seatColors = []string{"#dc2626", "#2563eb", "#059669", "#f59e0b"}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the single wire envelope, both directions. The relay never looks
// inside Data: game payloads pass through verbatim.
type Message struct {
	Type     string          `json:"type"`
	Room     string          `json:"room,omitempty"`
	PlayerID string          `json:"playerId,omitempty"`
	Name     string          `json:"name,omitempty"`
	Color    string          `json:"color,omitempty"`
	Host     bool            `json:"host,omitempty"`
	Action   string          `json:"action,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Players  []PlayerInfo    `json:"players,omitempty"`
	Rooms    []RoomInfo      `json:"rooms,omitempty"`
}

// PlayerInfo is one room member as seen by the others.
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Host  bool   `json:"host"`
}

// RoomInfo is one discoverable room.
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Status  string `json:"status"`
}

// Client is one websocket connection. conn may be nil in tests; messages are
// then observable on the send channel.
type Client struct {
	id   string
	name string

	conn *websocket.Conn
	send chan []byte

	roomCode string
}

type room struct {
	code    string
	status  string
	hostID  string
	members []*Client
}

// Hub owns every room and connection. The relay holds no game state at all:
// it moves envelopes between room members and nothing more.
type Hub struct {
	mu     sync.Mutex
	logger *zap.Logger
	rng    *rand.Rand

	clients map[*Client]bool
	rooms   map[string]*room
}

func NewHub(logger *zap.Logger, seed int64) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		clients: make(map[*Client]bool),
		rooms:   make(map[string]*room),
	}
}

// ServeWS upgrades the request and runs the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	h.logger.Info("client connected", zap.String("client", client.id))

	go client.writePump()
	client.readPump(h)
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.Disconnect(c)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Debug("bad envelope", zap.Error(err))
			continue
		}
		h.HandleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

// HandleMessage dispatches one inbound envelope.
func (h *Hub) HandleMessage(c *Client, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch msg.Type {
	case "create_room":
		h.createRoom(c, msg.Name)
	case "join_room":
		h.joinRoom(c, msg.Room, msg.Name)
	case "leave_room":
		h.leaveRoom(c)
	case "start_game":
		h.startGame(c)
	case "game_action":
		h.forwardAction(c, msg)
	case "list_rooms":
		h.sendTo(c, Message{Type: "room_list", Rooms: h.roomList()})
	default:
		h.sendTo(c, Message{Type: "error", Error: "unknown message type"})
	}
}

// Disconnect removes a dropped client, with the same room bookkeeping as an
// explicit leave.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoom(c)
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.logger.Info("client disconnected", zap.String("client", c.id))
}

func (h *Hub) createRoom(c *Client, name string) {
	if c.roomCode != "" {
		h.sendTo(c, Message{Type: "error", Error: "already in a room"})
		return
	}
	code := h.newRoomCode()
	c.name = name
	r := &room{code: code, status: statusWaiting, hostID: c.id, members: []*Client{c}}
	h.rooms[code] = r
	c.roomCode = code

	h.logger.Info("room created", zap.String("room", code), zap.String("host", c.id))
	h.sendTo(c, Message{Type: "room_created", Room: code, PlayerID: c.id,
		Color: seatColors[0], Host: true, Players: r.playerInfos()})
	h.broadcastRoomList()
}

func (h *Hub) joinRoom(c *Client, code, name string) {
	if c.roomCode != "" {
		h.sendTo(c, Message{Type: "error", Error: "already in a room"})
		return
	}
	r := h.rooms[code]
	if r == nil {
		h.sendTo(c, Message{Type: "error", Error: "room not found"})
		return
	}
	if len(r.members) >= maxRoomSize {
		h.sendTo(c, Message{Type: "error", Error: "room is full"})
		return
	}
	if r.status == statusPlaying {
		h.sendTo(c, Message{Type: "error", Error: "game already started"})
		return
	}

	c.name = name
	c.roomCode = code
	r.members = append(r.members, c)
	seat := len(r.members) - 1

	h.sendTo(c, Message{Type: "room_joined", Room: code, PlayerID: c.id,
		Color: seatColors[seat], Players: r.playerInfos()})
	h.broadcastToRoom(r, c, Message{Type: "player_joined", Room: code,
		PlayerID: c.id, Name: name, Color: seatColors[seat], Players: r.playerInfos()})
	h.broadcastRoomList()
}

func (h *Hub) leaveRoom(c *Client) {
	r := h.rooms[c.roomCode]
	c.roomCode = ""
	if r == nil {
		return
	}
	for i, m := range r.members {
		if m == c {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}

	if len(r.members) == 0 {
		delete(h.rooms, r.code)
		h.logger.Info("room deleted", zap.String("room", r.code))
		h.broadcastRoomList()
		return
	}

	// Host migration: the longest-seated member inherits the room.
	if r.hostID == c.id {
		r.hostID = r.members[0].id
		h.broadcastToRoom(r, nil, Message{Type: "host_changed",
			Room: r.code, PlayerID: r.hostID, Players: r.playerInfos()})
	}
	h.broadcastToRoom(r, nil, Message{Type: "player_left", Room: r.code,
		PlayerID: c.id, Players: r.playerInfos()})
	h.broadcastRoomList()
}

func (h *Hub) startGame(c *Client) {
	r := h.rooms[c.roomCode]
	if r == nil {
		h.sendTo(c, Message{Type: "error", Error: "not in a room"})
		return
	}
	if r.hostID != c.id {
		h.sendTo(c, Message{Type: "error", Error: "only the host can start"})
		return
	}
	if r.status == statusPlaying {
		h.sendTo(c, Message{Type: "error", Error: "game already started"})
		return
	}

	r.status = statusPlaying
	h.broadcastToRoom(r, nil, Message{Type: "game_started", Room: r.code, Players: r.playerInfos()})
	h.broadcastRoomList()
	h.logger.Info("game started", zap.String("room", r.code), zap.Int("players", len(r.members)))
}

// forwardAction relays a game envelope to every other room member with the
// actor stamped on. The payload is never inspected.
func (h *Hub) forwardAction(c *Client, msg Message) {
	r := h.rooms[c.roomCode]
	if r == nil {
		h.sendTo(c, Message{Type: "error", Error: "not in a room"})
		return
	}
	h.broadcastToRoom(r, c, Message{Type: "game_action", Room: r.code,
		PlayerID: c.id, Action: msg.Action, Data: msg.Data})
}

func (h *Hub) newRoomCode() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for {
		buf := make([]byte, roomCodeLength)
		for i := range buf {
			buf[i] = alphabet[h.rng.Intn(len(alphabet))]
		}
		code := string(buf)
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}

func (r *room) playerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.members))
	for i, m := range r.members {
		infos = append(infos, PlayerInfo{
			ID:    m.id,
			Name:  m.name,
			Color: seatColors[i],
			Host:  m.id == r.hostID,
		})
	}
	return infos
}

func (h *Hub) roomList() []RoomInfo {
	list := make([]RoomInfo, 0, len(h.rooms))
	for _, r := range h.rooms {
		list = append(list, RoomInfo{Code: r.code, Players: len(r.members), Status: r.status})
	}
	return list
}

func (h *Hub) sendTo(c *Client, msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
		h.logger.Warn("client send buffer full", zap.String("client", c.id))
	}
}

// broadcastToRoom delivers to every room member except skip (nil = everyone).
func (h *Hub) broadcastToRoom(r *room, skip *Client, msg Message) {
	for _, m := range r.members {
		if m != skip {
			h.sendTo(m, msg)
		}
	}
}

func (h *Hub) broadcastRoomList() {
	msg := Message{Type: "room_list", Rooms: h.roomList()}
	for c := range h.clients {
		h.sendTo(c, msg)
	}
}
