// Package session owns the authenticated identity. Persistent storage is a
// private detail of Store; other packages go through GetSession, SetSession
// and Clear.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"fleetconsole/internal/storage"
)

const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyUserID       = "userId"
	keyName         = "name"
	keyEmail        = "email"
	keyRole         = "role"
)

// ErrSessionReplaced is returned by UpdateAccessToken when the session it was
// meant for is gone.
var ErrSessionReplaced = errors.New("session cleared or replaced")

// Keys lists every persisted session key.
var Keys = []string{keyAccessToken, keyRefreshToken, keyUserID, keyName, keyEmail, keyRole}

type Listener func(*Session)

type Store struct {
	backend storage.Store

	// wmu serializes writers so storage and the in-memory copy agree.
	wmu     sync.Mutex
	mu      sync.RWMutex
	current *Session

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewStore(backend storage.Store) *Store {
	return &Store{backend: backend, listeners: map[int]Listener{}}
}

// Load restores a persisted session. Fragments are wiped.
func (s *Store) Load(ctx context.Context) error {
	vals := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, ok, err := s.backend.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if ok {
			vals[k] = v
		}
	}
	if len(vals) == 0 {
		return nil
	}

	role, _ := ParseRole(vals[keyRole])
	sess := &Session{
		UserID:       vals[keyUserID],
		Name:         vals[keyName],
		Email:        vals[keyEmail],
		Role:         role,
		AccessToken:  vals[keyAccessToken],
		RefreshToken: vals[keyRefreshToken],
	}
	if !sess.IsAuthenticated() {
		log.Printf("[SESSION] persisted session incomplete, clearing")
		return s.Clear(ctx)
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return nil
}

// GetSession returns a copy of the current session, or nil when there is
// none.
func (s *Store) GetSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// SetSession replaces every field. The in-memory copy changes only after
// the write to storage succeeded.
func (s *Store) SetSession(ctx context.Context, sess Session) error {
	if role, ok := ParseRole(string(sess.Role)); ok {
		sess.Role = role
	}
	if !sess.IsAuthenticated() {
		return fmt.Errorf("session incomplete: tokens and user record are required")
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.persistLocked(ctx, sess); err != nil {
		return err
	}
	s.notify(&sess)
	return nil
}

// UpdateAccessToken stores a refreshed access token, keeping the refresh
// token and identity. It is a no-op returning ErrSessionReplaced when the
// session was cleared or replaced since refreshToken was read.
func (s *Store) UpdateAccessToken(ctx context.Context, refreshToken, accessToken string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil || cur.RefreshToken != refreshToken {
		return ErrSessionReplaced
	}
	next := *cur
	next.AccessToken = accessToken
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.notify(&next)
	return nil
}

// persistLocked requires wmu.
func (s *Store) persistLocked(ctx context.Context, sess Session) error {
	err := s.backend.SetMany(ctx, map[string]string{
		keyAccessToken:  sess.AccessToken,
		keyRefreshToken: sess.RefreshToken,
		keyUserID:       sess.UserID,
		keyName:         sess.Name,
		keyEmail:        sess.Email,
		keyRole:         string(sess.Role),
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	cp := sess
	s.current = &cp
	s.mu.Unlock()
	return nil
}

// Clear removes every persisted key and the in-memory session.
func (s *Store) Clear(ctx context.Context) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.backend.Delete(ctx, Keys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.notify(nil)
	}
	return nil
}

// Subscribe registers fn for every change. Listeners run in write order while
// the writer lock is held, so they must not call SetSession,
// UpdateAccessToken or Clear. The returned func unregisters it.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify(sess *Session) {
	s.lmu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}
