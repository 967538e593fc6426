// Package clientstate stores small client-owned documents such as the cart
// and affiliate attribution. The browser keeps the state; the server only
// reads and rewrites it per request.
package clientstate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// MaxValueSize keeps encoded values inside the common 4 KB cookie limit.
const MaxValueSize = 3800

// Store is a key/value store scoped to one client.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, maxAge time.Duration) error
	Delete(key string)
}

// GetJSON decodes key into dest. A missing or undecodable value reports false.
func GetJSON(s Store, key string, dest any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(s Store, key string, value any, maxAge time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode %s", key))
	}
	return s.Set(key, raw, maxAge)
}

// CookieOptions controls the attributes of written cookies.
type CookieOptions struct {
	Domain string
	Path   string
	Secure bool
}

// CookieStore reads cookies from the request and writes Set-Cookie headers.
// Writes are visible to later reads within the same request.
type CookieStore struct {
	r       *http.Request
	w       http.ResponseWriter
	opts    CookieOptions
	mu      sync.Mutex
	pending map[string][]byte
	deleted map[string]bool
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &CookieStore{
		r:       r,
		w:       w,
		opts:    opts,
		pending: map[string][]byte{},
		deleted: map[string]bool{},
	}
}

func (s *CookieStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted[key] {
		return nil, false
	}
	if v, ok := s.pending[key]; ok {
		return v, true
	}
	cookie, err := s.r.Cookie(key)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func (s *CookieStore) Set(key string, value []byte, maxAge time.Duration) error {
	encoded := base64.RawURLEncoding.EncodeToString(value)
	if len(encoded) > MaxValueSize {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s state is too large", key).
			WithDetails(map[string]any{"key": key, "size": len(encoded), "limit": MaxValueSize})
	}
	s.mu.Lock()
	s.pending[key] = value
	delete(s.deleted, key)
	s.mu.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    encoded,
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		Secure:   s.opts.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) Delete(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.deleted[key] = true
	s.mu.Unlock()

	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// MemoryStore is an in-process Store used by tests and tooling.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}
