package leadgate

import (
	"net/http"
	"sync"
	"time"
)

// CookieStore is a MarkerStore over an HTTP request/response pair. Reads come
// from the request's cookies; writes go out as Set-Cookie headers.
type CookieStore struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
}

// NewCookieStore creates a store bound to one request/response cycle.
func NewCookieStore(r *http.Request, w http.ResponseWriter, secure bool) *CookieStore {
	return &CookieStore{r: r, w: w, secure: secure}
}

// Get returns the named cookie's value, if present.
func (s *CookieStore) Get(name string) (string, bool) {
	if s == nil || s.r == nil {
		return "", false
	}
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// Set writes the marker cookie on the response.
func (s *CookieStore) Set(name, value string, expiresAt time.Time) {
	if s == nil || s.w == nil {
		return
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		Secure:   s.secure,
		HttpOnly: false, // the page script reads it to re-evaluate access
		SameSite: http.SameSiteLaxMode,
	})
}

// MemoryStore is an in-process MarkerStore, used by tests and by Go clients
// that have no cookie jar.
type MemoryStore struct {
	mu      sync.RWMutex
	markers map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[string]string)}
}

// Get returns the stored value for name.
func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.markers[name]
	return value, ok
}

// Set stores value under name. Expiry is carried inside the marker value, so
// the store itself keeps no clock.
func (s *MemoryStore) Set(name, value string, _ time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[name] = value
}
