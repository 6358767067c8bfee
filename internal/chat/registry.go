package chat

import (
	"sort"

	"github.com/google/uuid"
)

// Registry maps live sessions by id and by username. It carries no lock of
// its own: the Hub owns it and every method below must run under the Hub's
// serialization.
type Registry struct {
	byID   map[uuid.UUID]*Session
	byName map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uuid.UUID]*Session),
		byName: make(map[string]*Session),
	}
}

// register inserts the session, failing atomically on a duplicate username.
func (r *Registry) register(s *Session) error {
	if _, taken := r.byName[s.Username]; taken {
		return ErrUsernameTaken
	}
	r.byID[s.ID] = s
	r.byName[s.Username] = s
	return nil
}

// unregister removes the session by id. Removing an absent id is a no-op;
// the return value reports whether anything was removed.
func (r *Registry) unregister(id uuid.UUID) bool {
	s, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.byName, s.Username)
	return true
}

func (r *Registry) contains(id uuid.UUID) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) count() int {
	return len(r.byID)
}

// usernames returns the live usernames, sorted.
func (r *Registry) usernames() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// allExcept returns every live session other than the given id. A zero id
// excludes nothing.
func (r *Registry) allExcept(id uuid.UUID) []*Session {
	out := make([]*Session, 0, len(r.byID))
	for sid, s := range r.byID {
		if sid == id {
			continue
		}
		out = append(out, s)
	}
	return out
}
