package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	svtypes "github.com/openalpha/stakevault/x/stakevault/types"
)

const (
	// ChannelAudit carries every audit entry as it is committed
	ChannelAudit = "audit"

	// StakesChannelPrefix is followed by a staker address and carries the
	// audit entries that concern that staker
	StakesChannelPrefix = "stakes:"
)

// Observer receives hub activity, typically a metrics collector
type Observer interface {
	RecordWSConnection(delta int)
	RecordWSMessage(channel string)
}

// Hub maintains the set of active clients and fans audit entries out to
// the channels they subscribed to
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	register   chan *Client
	unregister chan *Client

	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	done chan struct{}
	once sync.Once

	mu sync.RWMutex

	config   *HubConfig
	observer Observer
	logger   log.Logger
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxSubscriptions int
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxSubscriptions: 50,
		MessageRateLimit: 20,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub. observer may be nil.
func NewHub(config *HubConfig, observer Observer, logger log.Logger) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		done:        make(chan struct{}),
		config:      config,
		observer:    observer,
		logger:      logger.With("module", "api/websocket"),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop terminates Run and closes every client
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.RecordWSConnection(1)
	}
	h.logger.Debug("Client connected", "client", client.id, "ip", client.ip)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}
		client.closeSend()
	}
	h.mu.Unlock()

	if ok && h.observer != nil {
		h.observer.RecordWSConnection(-1)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.closeSend()
		if h.observer != nil {
			h.observer.RecordWSConnection(-1)
		}
	}
	h.clients = make(map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true
	h.mu.Unlock()

	req.Client.sendJSON(&WSMessage{Type: "subscribed", Channel: req.Channel})
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if _, ok := h.clients[req.Client]; !ok {
		h.mu.Unlock()
		return
	}
	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	h.mu.Unlock()

	req.Client.sendJSON(&WSMessage{Type: "unsubscribed", Channel: req.Channel})
}

// BroadcastToChannel sends a message to all clients subscribed to a channel.
// Slow clients whose buffer is full miss the message.
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to encode message", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.channels[channel]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
		}
	}
	if h.observer != nil {
		h.observer.RecordWSMessage(channelKind(channel))
	}
}

// channelKind strips the address from per-staker channels
func channelKind(channel string) string {
	if strings.HasPrefix(channel, StakesChannelPrefix) {
		return strings.TrimSuffix(StakesChannelPrefix, ":")
	}
	return channel
}

// PublishAudit broadcasts an audit entry on the audit channel and, when the
// entry names a staker, on that staker's channel
func (h *Hub) PublishAudit(entry svtypes.AuditEntry) {
	msg := &WSMessage{Type: entry.Kind, Channel: ChannelAudit, Data: entry}
	h.BroadcastToChannel(ChannelAudit, msg)

	staker := entryStaker(entry)
	if staker == "" {
		return
	}
	channel := StakesChannelPrefix + staker
	h.BroadcastToChannel(channel, &WSMessage{Type: entry.Kind, Channel: channel, Data: entry})
}

func entryStaker(entry svtypes.AuditEntry) string {
	var payload struct {
		Staker string `json:"staker"`
	}
	if err := entry.Decode(&payload); err != nil {
		return ""
	}
	return payload.Staker
}

// validChannel reports whether channel is one the hub serves
func validChannel(channel string) bool {
	if channel == ChannelAudit {
		return true
	}
	return strings.HasPrefix(channel, StakesChannelPrefix) && len(channel) > len(StakesChannelPrefix)
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Upgrade failed", "error", err)
		return
	}

	client := NewClient(h, conn, uuid.NewString(), getClientIPFromRequest(r))

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
