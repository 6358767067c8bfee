package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_RejectsDuplicateUsername(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	alice := newSession("alice", "10.0.0.1:1000", 4)
	req.NoError(r.register(alice))

	imposter := newSession("alice", "10.0.0.2:2000", 4)
	req.ErrorIs(r.register(imposter), ErrUsernameTaken)

	// the failed registration must not alter the registry
	req.Equal(1, r.count())
	req.True(r.contains(alice.ID))
	req.False(r.contains(imposter.ID))
}

func TestRegistry_Unregister_Idempotent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	alice := newSession("alice", "10.0.0.1:1000", 4)
	req.NoError(r.register(alice))

	req.True(r.unregister(alice.ID))
	req.False(r.unregister(alice.ID))
	req.False(r.unregister(uuid.New()))
	req.Zero(r.count())

	// the name is free again after removal
	req.NoError(r.register(newSession("alice", "10.0.0.3:3000", 4)))
}

func TestRegistry_Usernames_SortedSnapshot(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	for _, name := range []string{"carol", "alice", "bob"} {
		req.NoError(r.register(newSession(name, "addr", 4)))
	}

	req.Equal([]string{"alice", "bob", "carol"}, r.usernames())
}

func TestRegistry_AllExcept(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	alice := newSession("alice", "addr", 4)
	bob := newSession("bob", "addr", 4)
	req.NoError(r.register(alice))
	req.NoError(r.register(bob))

	targets := r.allExcept(alice.ID)
	req.Len(targets, 1)
	req.Equal(bob.ID, targets[0].ID)

	req.Len(r.allExcept(uuid.Nil), 2)
}
