package hub

import (
	"time"

	"collaborative-coderoom/internal/store"

	"github.com/sirupsen/logrus"
)

// Websocket timing constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// Message kinds carried on the hub's internal channel.
const (
	msgEvent      = "event"
	msgDisconnect = "disconnect"
)

// HubMessage is the unit of work flowing from client pumps into the hub's
// event loop.
type HubMessage struct {
	Kind    string
	Client  *Client
	RawData []byte
}

// Hub owns all room synchronization state. Every event is processed to
// completion by the single Run goroutine before the next one is taken, so
// the registry, the room store, and the per-room membership groups never see
// interleaved handlers. Clients talk to the hub only through QueueMessage.
type Hub struct {
	messages chan HubMessage

	// Room broadcast groups: the transport-level membership used both for
	// fan-out and for roster computation.
	rooms map[string]map[*Client]struct{}

	registry *store.ConnectionRegistry
	store    *store.RoomStore
	log      *logrus.Logger
}

// NewHub creates a hub over the given stores.
func NewHub(registry *store.ConnectionRegistry, roomStore *store.RoomStore, log *logrus.Logger) *Hub {
	if registry == nil || roomStore == nil {
		panic("hub: registry and room store must be non-nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		messages: make(chan HubMessage, 512),
		rooms:    make(map[string]map[*Client]struct{}),
		registry: registry,
		store:    roomStore,
		log:      log,
	}
}

// Run drains the hub's message channel until Close is called. It must run
// in exactly one goroutine; handler serialization is the concurrency model.
func (h *Hub) Run() {
	log := h.log.WithField("component", "hub")
	log.Info("Hub is running")

	for msg := range h.messages {
		switch msg.Kind {
		case msgEvent:
			h.dispatch(msg.Client, msg.RawData)
		case msgDisconnect:
			h.handleDisconnect(msg.Client)
		default:
			log.Warnf("Unknown hub message kind: %s", msg.Kind)
		}
	}
	log.Info("Hub stopped")
}

// Close stops the Run loop. Pending messages are still drained.
func (h *Hub) Close() {
	close(h.messages)
}

// QueueMessage enqueues work for the event loop without blocking. Returns
// false if the hub is overloaded and the message was dropped.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messages <- msg:
		return true
	default:
		h.log.WithFields(logrus.Fields{
			"kind":    msg.Kind,
			"conn_id": msg.Client.ID(),
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// send queues data on one client's outbound channel. Non-blocking: a client
// whose send buffer is full misses the message and its write pump deals
// with the connection.
func (h *Hub) send(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.WithField("conn_id", c.ID()).Warn("Client send buffer full, dropping message")
	}
}

// broadcast sends data to every client in the room, excluding sender when
// it is non-nil.
func (h *Hub) broadcast(roomID string, data []byte, exclude *Client) {
	group, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for c := range group {
		if c == exclude {
			continue
		}
		h.send(c, data)
	}
}

// roster resolves the room's broadcast group to display names via the
// registry. Map iteration makes the order nondeterministic, which the
// protocol permits.
func (h *Hub) roster(roomID string) []string {
	users := make([]string, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if p, ok := h.registry.Lookup(c.ID()); ok {
			users = append(users, p.RosterName())
		}
	}
	return users
}
