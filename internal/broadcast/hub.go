package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second  // actor command timeout
	stopTimeout    = 10 * time.Second // graceful shutdown timeout
)

type roomClients map[*websocket.Conn]*clientWriter

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerReply struct {
	writer *clientWriter
	err    error
}

type registerCmd struct {
	baseHubCmd
	room         string
	connection   *websocket.Conn
	replyChannel chan registerReply
}

type unregisterCmd struct {
	baseHubCmd
	room       string
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	topic   string
	payload []byte
}

type clientCountCmd struct {
	baseHubCmd
	room         string
	replyChannel chan int
}

type sessionCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Session is the handle a connection handler holds for its registration:
// one live connection bound to exactly one room for its whole life.
type Session struct {
	hub       *Hub
	room      string
	channelID uuid.UUID
	conn      *websocket.Conn
	writer    *clientWriter
}

// Room returns the group the session is registered in.
func (s *Session) Room() string { return s.room }

// ChannelID returns the unique identifier of this session.
func (s *Session) ChannelID() uuid.UUID { return s.channelID }

// Send enqueues a frame for delivery to this session. Non-blocking:
// returns false when the session's buffer is full and the frame was
// dropped.
func (s *Session) Send(data []byte) bool {
	select {
	case s.writer.sendChannel <- data:
		return true
	default:
		return false
	}
}

// RefreshReadDeadline extends the liveness deadline after inbound traffic.
func (s *Session) RefreshReadDeadline() {
	s.writer.updateReadDeadline()
}

// Close removes the session from its room and closes the connection.
// Idempotent: closing a session that was already evicted is a no-op.
func (s *Session) Close() {
	s.hub.unregister(s.room, s.conn)
}

// Hub is the process-local membership registry: room -> set of sessions.
// All mutation and fanout happen on the actor goroutine.
type Hub struct {
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	rooms       map[string]roomClients
	maxPerRoom  int
	onRoomEmpty func(room string)
	done        chan struct{}
	stopTimeout time.Duration
}

// NewHub creates the hub and starts its actor goroutine.
// maxPerRoom limits sessions per room (prevents resource exhaustion).
// onRoomEmpty is called when the last session leaves a room on this instance.
func NewHub(maxPerRoom int, onRoomEmpty func(room string), clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:       make(chan hubCmd, 256),
		clock:       clock,
		rooms:       make(map[string]roomClients),
		maxPerRoom:  maxPerRoom,
		onRoomEmpty: onRoomEmpty,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go h.run()
	return h
}

// Register joins a connection to a room, creating the room on demand.
// Idempotent: registering the same connection in the same room again
// returns a session backed by the existing writer, so a publish is still
// delivered once.
func (h *Hub) Register(room string, conn *websocket.Conn) (*Session, error) {
	replyCh := make(chan registerReply, 1)
	h.cmdCh <- registerCmd{room: room, connection: conn, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		if reply.err != nil {
			return nil, reply.err
		}
		return &Session{hub: h, room: room, channelID: uuid.New(), conn: conn, writer: reply.writer}, nil
	case <-timer.Chan():
		return nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Dispatch routes a bus message to the local sessions of its topic's room.
// Safe to call from the bus subscription goroutine; messages arriving
// after shutdown are dropped.
func (h *Hub) Dispatch(msg domain.BusMessage) {
	select {
	case h.cmdCh <- broadcastCmd{topic: msg.Topic, payload: msg.Payload}:
	case <-h.done:
		metrics.BusSubscriptionDrops.Inc()
	}
}

// ClientCount returns the number of sessions in a room.
// Returns -1 if the command times out.
func (h *Hub) ClientCount(room string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{room: room, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// SessionCount returns the total number of sessions across all rooms.
// Returns -1 if the command times out or the hub has stopped.
func (h *Hub) SessionCount() int {
	replyCh := make(chan int, 1)
	select {
	case h.cmdCh <- sessionCountCmd{replyChannel: replyCh}:
	case <-h.done:
		return -1
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("SessionCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, force-disconnecting and deregistering every
// session. Blocks until the actor goroutine has exited or the stop
// timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(h.stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded, forcing exit", "timeout", h.stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
		close(h.done)
		slog.Error("Hub goroutine may have leaked", "active_rooms", len(h.rooms))
	}
}

func (h *Hub) unregister(room string, conn *websocket.Conn) {
	select {
	case h.cmdCh <- unregisterCmd{room: room, connection: conn}:
	case <-h.done:
	}
}

func (h *Hub) run() {
	// Panic recovery wrapper
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllClients("hub panic")
		}
	}()

	defer close(h.done)

	// Track command channel depth every second
	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(h.cmdCh)
			metrics.HubCommandChannelDepth.Set(float64(depth))

			if depth > 200 { // 80% of 256
				slog.Warn("Command channel near capacity", "depth", depth, "capacity", cap(h.cmdCh))
			}

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c)
			case broadcastCmd:
				h.handleBroadcast(c)
			case clientCountCmd:
				c.replyChannel <- len(h.rooms[c.room])
			case sessionCountCmd:
				total := 0
				for _, clients := range h.rooms {
					total += len(clients)
				}
				c.replyChannel <- total
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	clients, exists := h.rooms[c.room]
	if !exists {
		clients = make(roomClients)
		h.rooms[c.room] = clients
	}

	// Duplicate join: reuse the existing writer, membership stays a set.
	if cw, joined := clients[c.connection]; joined {
		c.replyChannel <- registerReply{writer: cw}
		return
	}

	if len(clients) >= h.maxPerRoom {
		slog.Warn("Rejecting session: max clients reached", "room", c.room, "max_clients", h.maxPerRoom)
		c.connection.Close()
		c.replyChannel <- registerReply{err: fmt.Errorf("max clients per room (%d) reached", h.maxPerRoom)}
		return
	}

	cw := newClientWriter(c.connection, h.clock)
	clients[c.connection] = cw

	metrics.HubActiveRooms.Set(float64(len(h.rooms)))
	metrics.HubConnectedSessions.Inc()

	slog.Debug("Session registered", "room", c.room, "total_clients", len(clients))
	c.replyChannel <- registerReply{writer: cw}
}

func (h *Hub) handleUnregister(c unregisterCmd) {
	clients, exists := h.rooms[c.room]
	if !exists {
		return
	}

	cw, exists := clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, c.connection)

	metrics.HubConnectedSessions.Dec()

	if len(clients) == 0 {
		delete(h.rooms, c.room)
		metrics.HubActiveRooms.Set(float64(len(h.rooms)))
		if h.onRoomEmpty != nil {
			h.onRoomEmpty(c.room)
		}
		slog.Info("Last session left room", "room", c.room)
	} else {
		slog.Debug("Session unregistered", "room", c.room, "remaining_clients", len(clients))
	}
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	clients, exists := h.rooms[c.topic]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range clients {
		select {
		case writer.sendChannel <- c.payload:
			metrics.HubMessagesDelivered.Inc()
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow session", "room", c.topic)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleUnregister(unregisterCmd{room: c.topic, connection: conn})
	}
}

func (h *Hub) handleStop() {
	totalClients := 0
	for _, clients := range h.rooms {
		totalClients += len(clients)
	}

	slog.Info("Hub shutting down", "rooms", len(h.rooms), "total_clients", totalClients)

	h.closeAllClients("Server shutting down")

	slog.Info("Hub shutdown complete", "disconnected_clients", totalClients)
}

// closeAllClients closes all sessions with the given reason.
// Used during panic recovery and graceful shutdown.
func (h *Hub) closeAllClients(reason string) {
	for room, clients := range h.rooms {
		for _, cw := range clients {
			cw.stopGraceful(reason)
		}
		delete(h.rooms, room)
		if h.onRoomEmpty != nil {
			h.onRoomEmpty(room)
		}
	}
	metrics.HubActiveRooms.Set(0)
	metrics.HubConnectedSessions.Set(0)
}
