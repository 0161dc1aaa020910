package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"padrelay/internal/dispatch"
	"padrelay/internal/protocol"
	"padrelay/internal/ratelimit"
	"padrelay/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096

	// sendBuffer holds outbound frames per connection
	sendBuffer = 64
	// queueSize holds non-motion events awaiting the host per connection
	queueSize = 64
	// maxViolations is how many consecutive rate-limited frames close a connection
	maxViolations = 100
)

// errInvalidRoomReply is the rejection text web clients already match on
var errInvalidRoomReply = errors.New("Invalid room ID")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins as this is a local network tool
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Relay owns every live WebSocket connection
type Relay struct {
	server *Server
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*wsClient
}

func newRelay(s *Server) *Relay {
	return &Relay{
		server:  s,
		logger:  s.logger.With("component", "relay"),
		clients: make(map[string]*wsClient),
	}
}

// frame is an encoded outbound message with its WebSocket frame type
type frame struct {
	kind int
	data []byte
}

// job is a queued host event and the codec its reply should use
type job struct {
	ev    protocol.Event
	codec protocol.Codec
}

// wsClient represents a connected controller or page
type wsClient struct {
	id      string
	relay   *Relay
	conn    *websocket.Conn
	logger  *slog.Logger
	guard   *ratelimit.Guard

	send chan frame
	jobs chan job
	done chan struct{}
	once sync.Once

	// binary records the frame type of the last inbound frame, used for broadcasts
	binary atomic.Bool
}

func (r *Relay) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("WebSocket upgrade failed", "remote", req.RemoteAddr, "err", err)
		return
	}

	cfg := r.server.cfg
	id := uuid.NewString()
	c := &wsClient{
		id:      id,
		relay:   r,
		conn:    conn,
		logger:  r.logger.With("peer", id),
		guard:   ratelimit.NewGuard(ratelimit.NewLimiter(cfg.MessagesPerSecond, cfg.MessageBurst), maxViolations),
		send:    make(chan frame, sendBuffer),
		jobs:    make(chan job, queueSize),
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	r.clients[id] = c
	r.mu.Unlock()

	c.logger.Info("Client connected", "remote", req.RemoteAddr)

	// Pages served by this host connect while a room is active and join it directly
	if r.server.registry.Admit(c) {
		c.logger.Info("Client auto-joined room", "room", r.server.registry.ActiveRoom())
	}

	ctx, cancel := context.WithCancel(context.Background())
	go c.writePump()
	go c.worker(ctx)
	go func() {
		defer cancel()
		c.readPump(ctx)
	}()
}

// closeAll disconnects every client
func (r *Relay) closeAll() {
	r.mu.Lock()
	clients := make([]*wsClient, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (r *Relay) remove(c *wsClient) {
	r.mu.Lock()
	delete(r.clients, c.id)
	r.mu.Unlock()
}

func (c *wsClient) ID() string { return c.id }

// Notify queues msg using the client's current codec without blocking
func (c *wsClient) Notify(msg protocol.Message) {
	codec := protocol.JSON
	if c.binary.Load() {
		codec = protocol.MsgPack
	}
	c.reply(codec, msg)
}

func (c *wsClient) reply(codec protocol.Codec, msg protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		c.logger.Error("Encode failed", "type", msg.Type, "codec", codec.Name(), "err", err)
		return
	}
	kind := websocket.TextMessage
	if codec == protocol.MsgPack {
		kind = websocket.BinaryMessage
	}

	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- frame{kind: kind, data: data}:
	default:
		c.logger.Warn("Send buffer full, dropping message", "type", msg.Type)
	}
}

// close signals the write pump, which sends the close frame and then closes the socket
func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// readPump decodes frames, handles joins and motion inline and queues the rest
func (c *wsClient) readPump(ctx context.Context) {
	registry := c.relay.server.registry
	defer func() {
		registry.Leave(c.id)
		c.relay.remove(c)
		c.close()
		c.logger.Info("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Read error", "err", err)
			}
			return
		}

		allowed, exceeded := c.guard.Check()
		if exceeded {
			c.logger.Warn("Rate limit exceeded, closing connection")
			return
		}
		if !allowed {
			continue
		}

		codec := protocol.JSON
		if kind == websocket.BinaryMessage {
			codec = protocol.MsgPack
		}
		c.binary.Store(kind == websocket.BinaryMessage)

		ev, err := protocol.Decode(codec, data)
		if err != nil {
			c.logger.Debug("Dropping frame", "codec", codec.Name(), "err", err)
			continue
		}
		c.handle(ctx, codec, ev)
	}
}

func (c *wsClient) handle(ctx context.Context, codec protocol.Codec, ev protocol.Event) {
	s := c.relay.server

	if e, ok := ev.(protocol.JoinRoom); ok {
		if err := s.registry.Join(c, e.RoomID); err != nil {
			if errors.Is(err, session.ErrInvalidRoom) {
				err = errInvalidRoomReply
			}
			c.reply(codec, protocol.RoomJoined("", err))
			return
		}
		c.reply(codec, protocol.RoomJoined(e.RoomID, nil))
		return
	}

	if !s.registry.IsMember(c.id) {
		c.logger.Debug("Dropping event from non-member", "type", ev.Kind())
		return
	}

	if dispatch.IsMotion(ev) {
		s.dispatcher.Dispatch(ctx, ev)
		return
	}

	select {
	case c.jobs <- job{ev: ev, codec: codec}:
	default:
		c.logger.Warn("Event queue full, dropping event", "type", ev.Kind())
	}
}

// worker applies queued events one at a time, in arrival order
func (c *wsClient) worker(ctx context.Context) {
	timeout := c.relay.server.cfg.HostCallTimeout
	for {
		select {
		case <-c.done:
			return
		case j := <-c.jobs:
			c.run(ctx, timeout, j)
		}
	}
}

func (c *wsClient) run(ctx context.Context, timeout time.Duration, j job) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	d := c.relay.server.dispatcher
	if _, ok := j.ev.(protocol.VolumeQuery); ok {
		c.reply(j.codec, d.VolumeStatus(ctx))
		return
	}
	if err := d.Dispatch(ctx, j.ev); err != nil {
		c.logger.Debug("Event failed", "type", j.ev.Kind(), "err", err)
	}
}

// writePump pumps queued frames to the websocket connection
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
