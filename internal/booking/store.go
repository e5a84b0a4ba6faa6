package booking

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("booking: session not found")

// Store keeps active booking sessions in memory. Sessions are the only state
// this service holds and they are deliberately not durable: a reset or an
// idle timeout destroys them, matching the session-only persistence contract
// of the flow.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	now func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a fresh session with a random opaque ID.
func (s *Store) Create() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := NewSession(uuid.NewString(), s.now())
	s.sessions[sess.ID] = sess
	return *sess
}

// Update runs fn with the session under the store lock and bumps its idle
// clock. All session reads and mutations go through here or View; fn must not
// block on the network.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.LastSeen = s.now()
	return fn(sess)
}

// View is Update for read-only callers; fn gets a copy.
func (s *Store) View(id string, fn func(Session)) error {
	return s.Update(id, func(sess *Session) error {
		fn(*sess)
		return nil
	})
}

// Delete destroys a session outright.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle past the TTL and returns how many it dropped.
// A session with a submission in flight is never swept.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	dropped := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) && !sess.Submitting {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// StartSweeper sweeps on an interval until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(); n > 0 {
					log.Printf("[booking] swept %d expired sessions", n)
				}
			}
		}
	}()
}
