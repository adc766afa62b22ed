package session

import "sync"

// Registry tracks the live controller of every session on this instance.
type Registry struct {
	mu   sync.Mutex
	live map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{live: make(map[string]*Controller)}
}

// Attach claims sessionID for c. A session has at most one live controller.
func (r *Registry) Attach(sessionID string, c *Controller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[sessionID]; ok {
		return ErrAttached
	}
	r.live[sessionID] = c
	return nil
}

// Detach releases sessionID if c still holds it.
func (r *Registry) Detach(sessionID string, c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[sessionID] == c {
		delete(r.live, sessionID)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
