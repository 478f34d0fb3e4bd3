package demosite

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie holding the session id.
const SessionCookieName = "demo_session"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

type session struct {
	user  string
	flash *Flash
}

// sessionStore keeps sessions in memory, keyed by random id.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// ensure returns the session id bound to r, issuing a new cookie when the
// request has none or an unknown one.
func (s *sessionStore) ensure(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		s.mu.Lock()
		_, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if ok {
			return c.Value
		}
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *sessionStore) user(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[c.Value]; ok {
		return sess.user
	}
	return ""
}

func (s *sessionStore) setUser(id, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.user = user
	}
}

func (s *sessionStore) setFlash(id string, f Flash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.flash = &f
	}
}

// popFlash returns and clears the pending flash for r.
func (s *sessionStore) popFlash(r *http.Request) *Flash {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.Value]
	if !ok {
		return nil
	}
	f := sess.flash
	sess.flash = nil
	return f
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
