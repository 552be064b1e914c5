package realtime

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/logx"
)

// Custom WebSocket close codes (4000-4999 range).
const (
	// CloseSessionKicked signals that an administrator terminated the user's sessions.
	CloseSessionKicked = 4001

	// CloseSlowConsumer signals that the connection could not keep up with broadcasts.
	CloseSlowConsumer = 4002
)

var (
	// ErrSendQueueFull is returned by Peer.Enqueue when the outbound buffer is full.
	ErrSendQueueFull = errors.New("realtime: send queue full")

	// ErrPeerClosed is returned by Peer.Enqueue once the connection is closing.
	ErrPeerClosed = errors.New("realtime: peer closed")
)

// Peer is one live connection as seen by the hub and the lifecycle.
type Peer interface {
	// ID is unique across all live connections.
	ID() string

	// Identity is the user resolved at handshake, nil for anonymous connections.
	Identity() *user.Identity

	// Enqueue hands a ready frame to the connection without blocking.
	Enqueue(frame []byte) error

	// Close asks the connection to shut down with the given close code. It must not block
	// and is safe to call more than once.
	Close(code int, reason string)
}

// Hub is the broadcast gateway: the set of live peers and the fan-out to them.
type Hub struct {
	mu sync.RWMutex

	// peers maps connection id to peer.
	peers map[string]Peer

	logger zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		peers:  make(map[string]Peer),
		logger: logx.Component("hub"),
	}
}

// Add starts delivering broadcasts to p.
func (h *Hub) Add(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	total := len(h.peers)
	h.mu.Unlock()

	h.logger.Debug().Str("conn_id", p.ID()).Int("total_peers", total).Msg("Peer added.")
}

// Remove stops delivering broadcasts to the peer with connID. It reports whether the peer was present.
func (h *Hub) Remove(connID string) bool {
	h.mu.Lock()
	_, ok := h.peers[connID]
	delete(h.peers, connID)
	total := len(h.peers)
	h.mu.Unlock()

	if ok {
		h.logger.Debug().Str("conn_id", connID).Int("total_peers", total).Msg("Peer removed.")
	}
	return ok
}

// Count returns the number of live peers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.peers)
}

// Publish delivers payload under event to every live peer. Delivery is best-effort:
// a peer whose queue is full is closed and skipped, and no error reaches the caller.
// Frames from one caller reach each peer in the order Publish was called.
func (h *Hub) Publish(event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode broadcast frame. Dropping.")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for connID, p := range h.peers {
		if err := p.Enqueue(frame); err != nil {
			if errors.Is(err, ErrSendQueueFull) {
				h.logger.Warn().Str("conn_id", connID).Str("event", event).Msg("Peer send queue full. Closing slow consumer.")
				p.Close(CloseSlowConsumer, "Too many pending messages.")
			} else {
				h.logger.Debug().Err(err).Str("conn_id", connID).Str("event", event).Msg("Skipping peer.")
			}
			continue
		}
		delivered++
	}

	h.logger.Debug().Str("event", event).Int("delivered", delivered).Int("total_peers", len(h.peers)).Msg("Broadcast published.")
}

// Send delivers a single frame to the peer with connID.
func (h *Hub) Send(connID, event string, payload any) error {
	h.mu.RLock()
	p, ok := h.peers[connID]
	h.mu.RUnlock()

	if !ok {
		return ErrPeerClosed
	}

	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	return p.Enqueue(frame)
}

// Terminate closes the connection with connID. Unknown ids are ignored.
func (h *Hub) Terminate(connID string, code int, reason string) {
	h.mu.RLock()
	p, ok := h.peers[connID]
	h.mu.RUnlock()

	if ok {
		p.Close(code, reason)
	}
}

// CloseAll closes every live peer. Used on shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, p := range h.peers {
		p.Close(websocket.CloseGoingAway, reason)
	}

	h.logger.Info().Int("total_peers", len(h.peers)).Msg("Closed all peers.")
}
