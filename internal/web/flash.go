package web

import (
	"crypto/rand"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// FlashCookieName is the single cookie referencing server-held flash state.
const FlashCookieName = "flash"

// DefaultFlashTTL bounds how long unconsumed flash state survives.
const DefaultFlashTTL = 10 * time.Minute

type flashEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// FlashStore holds short-lived per-redirect state (generated credentials,
// field errors, echoed form values) server-side, keyed by a one-time token.
// The browser only ever carries the token, authenticated with securecookie.
type FlashStore struct {
	mu      sync.Mutex
	entries map[string]flashEntry
	codec   *securecookie.SecureCookie
	ttl     time.Duration
}

// NewFlashStore builds a store signing its cookie with hashKey. An empty key
// gets a random one, which is fine for a single-process deployment: flash
// state does not survive restarts anyway.
func NewFlashStore(hashKey []byte, ttl time.Duration) *FlashStore {
	if len(hashKey) == 0 {
		hashKey = make([]byte, 32)
		if _, err := rand.Read(hashKey); err != nil {
			log.Fatal("failed to generate flash hash key: ", err)
		}
	}
	if ttl <= 0 {
		ttl = DefaultFlashTTL
	}
	return &FlashStore{
		entries: map[string]flashEntry{},
		codec:   securecookie.New(hashKey, nil),
		ttl:     ttl,
	}
}

// Put stores values and returns the cookie that references them.
func (s *FlashStore) Put(values map[string]string) *http.Cookie {
	key := uuid.NewString()

	s.mu.Lock()
	s.entries[key] = flashEntry{values: values, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	encoded, err := s.codec.Encode(FlashCookieName, key)
	if err != nil {
		log.Printf("[web] failed to encode flash cookie: %v", err)
		return &http.Cookie{Name: FlashCookieName, Value: "", MaxAge: -1, Path: "/"}
	}
	return &http.Cookie{
		Name:     FlashCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Pop consumes the flash state referenced by the encoded cookie value. The
// entry is removed on first read; a second Pop with the same token finds
// nothing.
func (s *FlashStore) Pop(encoded string) map[string]string {
	var key string
	if err := s.codec.Decode(FlashCookieName, encoded, &key); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(s.entries, key)
	if time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.values
}

// Sweep drops expired entries. Called periodically by the janitor.
func (s *FlashStore) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// SetFlash stores values in the flash store and attaches the reference cookie
// to the response.
func (c *Context) SetFlash(resp *Response, values map[string]string) *Response {
	if c.flash == nil {
		return resp
	}
	return resp.WithCookie(c.flash.Put(values))
}

// PopFlash consumes the request's flash state, if any.
func (c *Context) PopFlash() map[string]string {
	if c.flash == nil {
		return nil
	}
	encoded, ok := c.request.Cookie(FlashCookieName)
	if !ok {
		return nil
	}
	return c.flash.Pop(encoded)
}
