package httpserver

import (
	"net/http"
	"sync"
	"time"

	"cinescope/pkg/jwt"
	"cinescope/search"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookie = "cinescope_session"

	DefaultSessionIdleTTL = 30 * time.Minute
)

// PageSession is the search page of one browser session.
type PageSession struct {
	ID         string
	Controller *search.Controller
	View       *PageView

	lastSeen time.Time
}

// ControllerFactory builds the controller of a new browser session.
type ControllerFactory func(sid string, view search.View) *search.Controller

// SessionRegistry maps browser sessions to their page. Sessions idle longer
// than the TTL are dropped on the next lookup.
type SessionRegistry struct {
	tokens  *jwt.SessionProvider
	factory ControllerFactory
	ttl     time.Duration
	secure  bool
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*PageSession
	lastSweep time.Time
}

func NewSessionRegistry(tokens *jwt.SessionProvider, factory ControllerFactory, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	return &SessionRegistry{
		tokens:   tokens,
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*PageSession),
	}
}

// Resolve returns the session of the request, creating one (and its cookie)
// when the cookie is missing or invalid. A valid cookie whose session was
// evicted gets a fresh page under the same id.
func (r *SessionRegistry) Resolve(c echo.Context) (*PageSession, error) {
	sid := ""
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		if parsed, err := r.tokens.Parse(cookie.Value); err == nil {
			sid = parsed
		}
	}

	if sid == "" {
		sid = uuid.NewString()
		token, err := r.tokens.Issue(sid)
		if err != nil {
			return nil, err
		}
		c.SetCookie(&http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return r.get(sid), nil
}

func (r *SessionRegistry) get(sid string) *PageSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	s, ok := r.sessions[sid]
	if !ok {
		view := NewPageView()
		s = &PageSession{
			ID:         sid,
			View:       view,
			Controller: r.factory(sid, view),
		}
		r.sessions[sid] = s
	}
	s.lastSeen = now
	return s
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.ttl/2 {
		return
	}
	r.lastSweep = now
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, id)
		}
	}
}
