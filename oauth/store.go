package oauth

import (
	"sync"
	"time"
)

// SafetyMargin is how long before expiry a token is already treated as stale.
const SafetyMargin = 30 * time.Second

// TokenBundle is the current OAuth2 credential set. ExpiresAt is epoch milliseconds.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// State describes whether the stored access token can be used as is.
type State int

const (
	Stale State = iota
	Fresh
)

func (s State) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "stale"
}

// StateAt reports the bundle's state at now. A missing token or expiry is stale,
// as is an expiry inside the safety margin.
func (b TokenBundle) StateAt(now time.Time) State {
	if b.AccessToken == "" || b.ExpiresAt == 0 {
		return Stale
	}
	if now.UnixMilli()+SafetyMargin.Milliseconds() < b.ExpiresAt {
		return Fresh
	}
	return Stale
}

// Store holds exactly one current bundle. Readers always get a full copy.
type Store struct {
	mu     sync.RWMutex
	bundle TokenBundle
}

func NewStore(initial TokenBundle) *Store {
	return &Store{bundle: initial}
}

// Bundle returns a copy of the current bundle.
func (s *Store) Bundle() TokenBundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle
}

// Replace swaps the whole bundle in one step.
func (s *Store) Replace(b TokenBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundle = b
}
