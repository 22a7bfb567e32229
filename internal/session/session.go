// Package session holds the process-wide credentials and server state.
package session

import (
	"slices"
	"sync"
	"time"
)

// Status is the last observed reachability of the LLM server.
type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusOnline  Status = "ONLINE"
	StatusOffline Status = "OFFLINE"
)

// Snapshot is an immutable view of the session, read once per request.
type Snapshot struct {
	Token        string    `json:"-"`
	DefaultModel string    `json:"default_model"`
	Models       []string  `json:"models"`
	Status       Status    `json:"status"`
	CheckedAt    time.Time `json:"checked_at,omitzero"`
}

// HasToken reports whether a bearer token is configured, without exposing it.
func (s Snapshot) HasToken() bool {
	return s.Token != ""
}

// Session is safe for concurrent use. Updates are last-write-wins.
type Session struct {
	mu    sync.RWMutex
	state Snapshot
}

// New creates a session with initial credentials.
func New(token, defaultModel string) *Session {
	return &Session{state: Snapshot{Token: token, DefaultModel: defaultModel, Status: StatusUnknown}}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.state
	snap.Models = slices.Clone(s.state.Models)
	return snap
}

// UpdateCredentials replaces the token and default model. An empty
// defaultModel keeps the current one.
func (s *Session) UpdateCredentials(token, defaultModel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	if defaultModel != "" {
		s.state.DefaultModel = defaultModel
	}
}

// SetModels records the models the server last reported.
func (s *Session) SetModels(models []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Models = slices.Clone(models)
}

// SetStatus records the server status and returns the previous one.
func (s *Session) SetStatus(status Status, at time.Time) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state.Status
	s.state.Status = status
	s.state.CheckedAt = at
	return prev
}
