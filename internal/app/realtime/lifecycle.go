package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rosterhub/internal/app/presence"
	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/logx"
)

// LifecycleConfig holds the lifecycle delays.
type LifecycleConfig struct {
	// DisconnectDelay postpones the unregister of a dropped connection. Zero processes it immediately.
	DisconnectDelay time.Duration

	// LogoutGrace is how long a logged-out connection stays open so queued frames can flush.
	LogoutGrace time.Duration
}

// Lifecycle keeps the presence registry in step with connect, logout and disconnect
// events, and publishes the resulting snapshot after each change.
type Lifecycle struct {
	registry *presence.Registry
	hub      *Hub
	cfg      LifecycleConfig

	// mu serializes each registry mutation with the publish of its snapshot, so
	// peers never receive an older snapshot after a newer one.
	mu sync.Mutex

	// pending tracks delayed disconnects and logout closes.
	pending sync.WaitGroup

	logger zerolog.Logger
}

// NewLifecycle wires a lifecycle to its registry and hub.
func NewLifecycle(registry *presence.Registry, hub *Hub, cfg LifecycleConfig) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		hub:      hub,
		cfg:      cfg,
		logger:   logx.Component("lifecycle"),
	}
}

// Hub returns the broadcast hub.
func (l *Lifecycle) Hub() *Hub {
	return l.hub
}

// OnlineUsers returns the current presence snapshot.
func (l *Lifecycle) OnlineUsers() []user.Identity {
	return l.registry.Snapshot()
}

// Connect admits an authenticated or anonymous peer. The peer starts receiving
// broadcasts, and an authenticated one is registered and announced.
func (l *Lifecycle) Connect(p Peer) {
	l.hub.Add(p)

	identity := p.Identity()
	if identity == nil {
		l.logger.Debug().Str("conn_id", p.ID()).Msg("Anonymous connection admitted.")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot, changed := l.registry.Register(p.ID(), identity)
	l.logger.Info().
		Str("conn_id", p.ID()).
		Str("user_id", identity.ID).
		Int("online_users", len(snapshot)).
		Msg("Connection registered.")

	if changed {
		l.hub.Publish(EventOnlineUsers, snapshot)
	}
}

// Logout handles an explicit logout from p: the connection leaves presence at once,
// and is closed after the grace delay.
func (l *Lifecycle) Logout(p Peer) {
	if identity := p.Identity(); identity != nil {
		l.unregister(p.ID(), identity.ID, "logout")
	}

	l.after(l.cfg.LogoutGrace, func() {
		p.Close(websocket.CloseNormalClosure, "Logged out.")
	})
}

// Disconnect handles the transport going away. The peer stops receiving broadcasts
// immediately; presence is updated after the disconnect delay. Calling it for a peer
// that already logged out or was force-disconnected is a no-op for presence.
func (l *Lifecycle) Disconnect(p Peer) {
	l.hub.Remove(p.ID())

	identity := p.Identity()
	if identity == nil {
		return
	}

	connID, userID := p.ID(), identity.ID
	l.after(l.cfg.DisconnectDelay, func() {
		l.unregister(connID, userID, "disconnect")
	})
}

// ForceDisconnect terminates every connection of userID and removes them from presence.
// It reports whether the user was online.
func (l *Lifecycle) ForceDisconnect(userID, reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot, ok := l.registry.ForceDisconnect(userID, func(connID string) {
		l.hub.Terminate(connID, CloseSessionKicked, reason)
	})
	if !ok {
		return false
	}

	l.logger.Warn().Str("user_id", userID).Str("reason", reason).Msg("User sessions terminated.")
	l.hub.Publish(EventOnlineUsers, snapshot)
	return true
}

// Wait blocks until every delayed disconnect and logout close has run. It must not
// overlap with calls that can still schedule one.
func (l *Lifecycle) Wait() {
	l.pending.Wait()
}

func (l *Lifecycle) unregister(connID, userID, cause string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot, changed := l.registry.Unregister(connID, userID)
	if !changed {
		return
	}

	l.logger.Info().
		Str("conn_id", connID).
		Str("user_id", userID).
		Str("cause", cause).
		Int("online_users", len(snapshot)).
		Msg("Connection unregistered.")

	l.hub.Publish(EventOnlineUsers, snapshot)
}

func (l *Lifecycle) after(delay time.Duration, fn func()) {
	l.pending.Add(1)

	if delay <= 0 {
		defer l.pending.Done()
		fn()
		return
	}

	time.AfterFunc(delay, func() {
		defer l.pending.Done()
		fn()
	})
}
