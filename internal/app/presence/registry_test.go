package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterhub/internal/app/user"
)

var (
	u1 = &user.Identity{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: user.RoleUser}
	u2 = &user.Identity{ID: "u2", FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Role: user.RoleAdmin}
)

func ids(snapshot []user.Identity) []string {
	out := make([]string, 0, len(snapshot))
	for _, identity := range snapshot {
		out = append(out, identity.ID)
	}
	return out
}

func TestRegistry_Multiplicity(t *testing.T) {
	for _, order := range [][2]string{{"A", "B"}, {"B", "A"}} {
		t.Run(order[0]+"_then_"+order[1], func(t *testing.T) {
			r := NewRegistry()
			r.Register("A", u1)
			snapshot, changed := r.Register("B", u1)
			assert.True(t, changed)
			assert.Len(t, snapshot, 1)
			assert.Equal(t, 2, r.ConnectionCount("u1"))

			snapshot, _ = r.Unregister(order[0], "u1")
			assert.Equal(t, []string{"u1"}, ids(snapshot))
			assert.True(t, r.IsOnline("u1"))

			snapshot, _ = r.Unregister(order[1], "u1")
			assert.Empty(t, snapshot)
			assert.False(t, r.IsOnline("u1"))
			assert.Empty(t, r.entries)
			assert.Empty(t, r.owner)
		})
	}
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("A", u1)
	r.Register("B", u1)

	first, changed := r.Unregister("A", "u1")
	assert.True(t, changed)

	second, changed := r.Unregister("A", "u1")
	assert.False(t, changed)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.ConnectionCount("u1"))

	_, changed = r.Unregister("A", "nobody")
	assert.False(t, changed)
	_, changed = r.Unregister("A", "")
	assert.False(t, changed)
}

func TestRegistry_AnonymousExcluded(t *testing.T) {
	r := NewRegistry()

	snapshot, changed := r.Register("A", nil)
	assert.False(t, changed)
	assert.Empty(t, snapshot)

	_, changed = r.Register("B", &user.Identity{})
	assert.False(t, changed)
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_RegisterSameConnectionTwice(t *testing.T) {
	r := NewRegistry()
	r.Register("A", u1)

	_, changed := r.Register("A", u1)
	assert.False(t, changed)
	assert.Equal(t, 1, r.ConnectionCount("u1"))
}

func TestRegistry_ConnectionBelongsToOneEntry(t *testing.T) {
	r := NewRegistry()
	r.Register("A", u1)

	snapshot, changed := r.Register("A", u2)
	assert.True(t, changed)
	assert.Equal(t, []string{"u2"}, ids(snapshot))
	assert.Equal(t, 0, r.ConnectionCount("u1"))
}

func TestRegistry_SnapshotOnePerUser(t *testing.T) {
	r := NewRegistry()
	r.Register("A", u1)
	r.Register("B", u2)
	r.Register("C", u1)

	snapshot := r.Snapshot()
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids(snapshot))
	assert.Contains(t, snapshot, *u1)
}

func TestRegistry_ForceDisconnectIsolation(t *testing.T) {
	r := NewRegistry()
	r.Register("A", u1)
	r.Register("B", u1)
	r.Register("C", u2)

	var terminated []string
	snapshot, ok := r.ForceDisconnect("u1", func(connID string) {
		terminated = append(terminated, connID)
		// The disconnect caused by termination must be a no-op.
		_, changed := r.Unregister(connID, "u1")
		assert.False(t, changed)
	})

	require.True(t, ok)
	assert.ElementsMatch(t, []string{"A", "B"}, terminated)
	assert.Equal(t, []string{"u2"}, ids(snapshot))
	assert.False(t, r.IsOnline("u1"))
	assert.Equal(t, 1, r.ConnectionCount("u2"))

	_, ok = r.ForceDisconnect("u1", func(string) { t.Fatal("terminate called for absent user") })
	assert.False(t, ok)
}

func TestRegistry_ConcurrentUsers(t *testing.T) {
	r := NewRegistry()
	const users, conns = 20, 10

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		identity := &user.Identity{ID: fmt.Sprintf("user-%d", i), Role: user.RoleUser}
		for j := 0; j < conns; j++ {
			wg.Add(1)
			go func(connID string) {
				defer wg.Done()
				r.Register(connID, identity)
				r.Snapshot()
				r.Unregister(connID, identity.ID)
			}(fmt.Sprintf("%s-conn-%d", identity.ID, j))
		}
	}
	wg.Wait()

	assert.Empty(t, r.Snapshot())
	assert.Empty(t, r.owner)
}
