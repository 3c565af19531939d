package session

import (
	"sync"

	"github.com/example/delivery-rider/internal/domain/models"
)

// Store owns the in-memory session state. Nothing else mutates it: login,
// refresh, earnings updates and logout all go through the methods here.
// Subscribers are notified synchronously on every mutation, which is how the
// UI layer observes the session.
type Store struct {
	mu       sync.RWMutex
	session  models.Session
	watchers []func(models.Session)
}

func NewStore() *Store {
	return &Store{}
}

// Current returns a copy of the session.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// AccessToken returns the current access token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// Subscribe registers a synchronous observer of session mutations.
func (s *Store) Subscribe(fn func(models.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Set replaces the whole session.
func (s *Store) Set(sess models.Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.notify(sess)
}

// SetAccessToken swaps the access token, keeping the profile fields.
func (s *Store) SetAccessToken(token string) {
	s.mu.Lock()
	s.session.AccessToken = token
	sess := s.session
	s.mu.Unlock()
	s.notify(sess)
}

// SetEarnings updates the rider's earnings figure.
func (s *Store) SetEarnings(earnings int) {
	s.mu.Lock()
	s.session.Earnings = earnings
	sess := s.session
	s.mu.Unlock()
	s.notify(sess)
}

// Clear resets the session to the logged-out zero value.
func (s *Store) Clear() {
	s.Set(models.Session{})
}

func (s *Store) notify(sess models.Session) {
	s.mu.RLock()
	watchers := make([]func(models.Session), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.RUnlock()

	for _, fn := range watchers {
		fn(sess)
	}
}
