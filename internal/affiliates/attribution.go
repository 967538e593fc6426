package affiliates

import (
	"time"

	"github.com/angelmondragon/vps-storefront/pkg/clientstate"
)

const (
	// CookieName mirrors the attribution into a cookie readable by the storefront.
	CookieName = "hb_affiliate"
	// TTL is how long a captured attribution stays valid.
	TTL = 30 * 24 * time.Hour
)

// Attribution is a captured affiliate with its validity window.
type Attribution struct {
	Params
	CapturedAt time.Time `json:"capturedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether now is past the expiry.
func (a Attribution) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// Store persists attribution in client-owned state. Expiry is checked lazily
// on read.
type Store struct {
	state clientstate.Store
	now   func() time.Time
}

// NewStore wraps state. A nil clock uses time.Now.
func NewStore(state clientstate.Store, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{state: state, now: now}
}

// Save overwrites the stored attribution.
func (s *Store) Save(params Params) (Attribution, error) {
	now := s.now().UTC()
	attr := Attribution{
		Params:     params,
		CapturedAt: now,
		ExpiresAt:  now.Add(TTL),
	}
	if err := clientstate.SetJSON(s.state, CookieName, attr, TTL); err != nil {
		return Attribution{}, err
	}
	return attr, nil
}

// Read returns the attribution, deleting it when it has expired.
func (s *Store) Read() (*Attribution, bool) {
	var attr Attribution
	if !clientstate.GetJSON(s.state, CookieName, &attr) {
		return nil, false
	}
	if attr.Expired(s.now()) || !attr.HasAffiliate() {
		s.state.Delete(CookieName)
		return nil, false
	}
	return &attr, true
}

// Capture stores params only when they carry an affiliate that differs from
// the current record. Repeat visits with the same link keep the original
// capture time.
func (s *Store) Capture(params Params) (*Attribution, bool, error) {
	current, ok := s.Read()
	if !params.HasAffiliate() {
		return current, false, nil
	}
	if ok && current.ID == params.ID && current.Code == params.Code {
		return current, false, nil
	}
	attr, err := s.Save(params)
	if err != nil {
		return current, false, err
	}
	return &attr, true, nil
}

// Clear removes the stored attribution.
func (s *Store) Clear() {
	s.state.Delete(CookieName)
}
