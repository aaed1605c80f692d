package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/schedule"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 16
)

// Message types sent on the countdown stream
const (
	MessageTypeCountdown      = "countdown"
	MessageTypeSeasonComplete = "season_complete"
	MessageTypeUnavailable    = "unavailable"
)

// Message is a countdown stream frame
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// CountdownUpdate is the time remaining to the next race
type CountdownUpdate struct {
	Race        schedule.FormattedEntry `json:"race"`
	Countdown   schedule.Countdown      `json:"countdown"`
	GeneratedAt time.Time               `json:"generated_at"`
}

func countdownTo(c *schedule.Classifier, now time.Time) (CountdownUpdate, bool) {
	next, ok := c.NextRace(now)
	if !ok {
		return CountdownUpdate{}, false
	}
	return CountdownUpdate{
		Race:        next,
		Countdown:   schedule.CalculateCountdown(next.GrandPrix, now),
		GeneratedAt: now.UTC(),
	}, true
}

// countdownMessage builds the frame broadcast on every tick
func (s *Server) countdownMessage() Message {
	if s.opts.Schedule == nil {
		return Message{Type: MessageTypeUnavailable, Data: "schedule not configured"}
	}
	c, err := s.opts.Schedule.Classifier()
	if err != nil {
		return Message{Type: MessageTypeUnavailable, Data: err.Error()}
	}
	update, ok := countdownTo(c, s.clock())
	if !ok {
		return Message{Type: MessageTypeSeasonComplete}
	}
	return Message{Type: MessageTypeCountdown, Data: update}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleCountdownStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Countdown upgrade failed")
		return
	}
	s.hub.Serve(conn)
}

// CountdownHub pushes the countdown to every connected websocket client at a fixed interval
type CountdownHub struct {
	message  func() Message
	interval time.Duration
	logger   *logrus.Entry

	register   chan *countdownClient
	unregister chan *countdownClient
	done       chan struct{}
	once       sync.Once

	mu      sync.RWMutex
	clients map[*countdownClient]struct{}
}

// NewCountdownHub creates a hub that calls message on every tick
func NewCountdownHub(message func() Message, interval time.Duration, log *logrus.Logger) *CountdownHub {
	return &CountdownHub{
		message:    message,
		interval:   interval,
		logger:     logger.OrDiscard(log).WithField("component", "countdown_hub"),
		register:   make(chan *countdownClient),
		unregister: make(chan *countdownClient, sendBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*countdownClient]struct{}),
	}
}

// ClientCount returns the number of connected clients
func (h *CountdownHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts until ctx is canceled, then closes every client
func (h *CountdownHub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.shutdown()

	for {
		// client lifecycle first so a new client never misses its first frame
		select {
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logger.WithField("clients", h.ClientCount()).Info("Countdown hub stopping")
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-ticker.C:
			h.broadcast(h.message())
		}
	}
}

// Serve attaches an upgraded connection to the hub
func (h *CountdownHub) Serve(conn *websocket.Conn) {
	c := &countdownClient{
		id:   uuid.New(),
		hub:  h,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}

	// register is unbuffered: a send only completes once Run has taken the client
	timer := time.NewTimer(writeWait)
	defer timer.Stop()
	select {
	case h.register <- c:
	case <-h.done:
		rejectConn(conn, "shutting down")
		return
	case <-timer.C:
		h.logger.WithField("client_id", c.id).Warn("Countdown hub not accepting clients")
		rejectConn(conn, "countdown unavailable")
		return
	}

	go c.writePump()
	go c.readPump()
}

func rejectConn(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, reason), time.Now().Add(writeWait))
	_ = conn.Close()
}

func (h *CountdownHub) add(c *countdownClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateCountdownClients(count)
	h.logger.WithFields(logrus.Fields{"client_id": c.id, "clients": count}).Debug("Countdown client connected")

	h.deliver(c, h.message())
}

func (h *CountdownHub) remove(c *countdownClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateCountdownClients(count)
	h.logger.WithFields(logrus.Fields{"client_id": c.id, "clients": count}).Debug("Countdown client disconnected")
}

func (h *CountdownHub) broadcast(msg Message) {
	h.mu.RLock()
	clients := make([]*countdownClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.deliver(c, msg)
	}
}

// deliver drops a client whose buffer is full
func (h *CountdownHub) deliver(c *countdownClient, msg Message) {
	select {
	case c.send <- msg:
	default:
		h.logger.WithField("client_id", c.id).Warn("Countdown client too slow, disconnecting")
		h.remove(c)
	}
}

func (h *CountdownHub) shutdown() {
	h.once.Do(func() { close(h.done) })

	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	metrics.UpdateCountdownClients(0)
}

type countdownClient struct {
	id   uuid.UUID
	hub  *CountdownHub
	conn *websocket.Conn
	send chan Message
}

func (c *countdownClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// inbound frames only keep the read deadline moving
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.WithError(err).WithField("client_id", c.id).Debug("Countdown client read failed")
			}
			return
		}
	}
}

func (c *countdownClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
