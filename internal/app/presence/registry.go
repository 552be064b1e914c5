/*
Package presence tracks which authenticated users currently hold live connections.

Presence is user-level: a user is online while at least one of their connections is
registered and disappears only when the last one is removed. All operations are
mutually atomic; callers never touch the underlying map.
*/
package presence

import (
	"sync"

	"rosterhub/internal/app/user"
)

// entry is the per-user record: the identity captured at first registration and the set of live connection ids.
type entry struct {
	identity user.Identity
	conns    map[string]struct{}
}

// Registry maps user ids to their live connections.
type Registry struct {
	mu sync.Mutex

	entries map[string]*entry

	// order keeps user ids in entry insertion order for snapshots.
	order []string

	// owner maps connection id to user id so a connection belongs to exactly one entry.
	owner map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		owner:   make(map[string]string),
	}
}

// Register adds connID to the entry of identity, creating the entry if needed.
// A nil identity is a no-op: anonymous connections are never tracked.
// It returns the snapshot after the mutation and whether the registry changed.
func (r *Registry) Register(connID string, identity *user.Identity) ([]user.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if identity == nil || identity.ID == "" || connID == "" {
		return r.snapshotLocked(), false
	}

	if prev, ok := r.owner[connID]; ok {
		if prev == identity.ID {
			return r.snapshotLocked(), false
		}
		r.removeLocked(connID, prev)
	}

	e, ok := r.entries[identity.ID]
	if !ok {
		e = &entry{identity: *identity, conns: make(map[string]struct{})}
		r.entries[identity.ID] = e
		r.order = append(r.order, identity.ID)
	}

	e.conns[connID] = struct{}{}
	r.owner[connID] = identity.ID

	return r.snapshotLocked(), true
}

// Unregister removes connID from the entry of userID and deletes the entry once it is empty.
// Unknown users or connections are a no-op, so calling it twice is safe.
// It returns the snapshot after the mutation and whether the registry changed.
func (r *Registry) Unregister(connID, userID string) ([]user.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := r.removeLocked(connID, userID)
	return r.snapshotLocked(), changed
}

// Snapshot returns the public identity of every present user, one per user id, in insertion order.
func (r *Registry) Snapshot() []user.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// ForceDisconnect removes the entry of userID and hands each of its connection ids
// to terminate. The entry is gone before terminate runs, so the disconnects it
// causes find nothing to unregister. terminate is called without the registry lock held.
// It returns the snapshot after removal and whether an entry existed.
func (r *Registry) ForceDisconnect(userID string, terminate func(connID string)) ([]user.Identity, bool) {
	r.mu.Lock()

	e, ok := r.entries[userID]
	if !ok {
		snapshot := r.snapshotLocked()
		r.mu.Unlock()
		return snapshot, false
	}

	connIDs := make([]string, 0, len(e.conns))
	for connID := range e.conns {
		connIDs = append(connIDs, connID)
		delete(r.owner, connID)
	}
	r.deleteEntryLocked(userID)
	snapshot := r.snapshotLocked()

	r.mu.Unlock()

	if terminate != nil {
		for _, connID := range connIDs {
			terminate(connID)
		}
	}

	return snapshot, true
}

// ConnectionCount returns how many live connections userID holds.
func (r *Registry) ConnectionCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		return len(e.conns)
	}
	return 0
}

// IsOnline reports whether userID has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	return r.ConnectionCount(userID) > 0
}

func (r *Registry) removeLocked(connID, userID string) bool {
	if connID == "" || userID == "" {
		return false
	}

	e, ok := r.entries[userID]
	if !ok {
		return false
	}

	if _, ok := e.conns[connID]; !ok {
		return false
	}

	delete(e.conns, connID)
	delete(r.owner, connID)

	if len(e.conns) == 0 {
		r.deleteEntryLocked(userID)
	}
	return true
}

func (r *Registry) deleteEntryLocked(userID string) {
	delete(r.entries, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) snapshotLocked() []user.Identity {
	snapshot := make([]user.Identity, 0, len(r.order))
	for _, id := range r.order {
		snapshot = append(snapshot, r.entries[id].identity)
	}
	return snapshot
}
