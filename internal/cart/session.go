package cart

import (
	"net/url"
	"time"

	"github.com/angelmondragon/vps-storefront/internal/affiliates"
	"github.com/angelmondragon/vps-storefront/pkg/clientstate"
)

const (
	// StorageKey names the persisted cart document.
	StorageKey = "vps_cart"
	storageTTL = 30 * 24 * time.Hour
)

// Session is a cart bound to client storage. Every dispatched action is
// persisted immediately. Concurrent tabs race with last write wins.
type Session struct {
	store clientstate.Store
	state State
}

// CaptureAffiliate attaches an affiliate captured at now, valid for the
// attribution TTL.
func CaptureAffiliate(id, code string, now time.Time) Action {
	return SetAffiliate(id, code, now.Add(affiliates.TTL))
}

// Restore loads the persisted cart and drops its affiliate once expired at
// now. Affiliate params from query then take precedence; repeating the stored
// affiliate keeps the original expiry.
func Restore(store clientstate.Store, query url.Values, now time.Time) (*Session, error) {
	s := &Session{store: store}
	var restored State
	if clientstate.GetJSON(store, StorageKey, &restored) {
		s.state = restored
	}
	if s.state.HasAffiliate() && !s.state.AffiliateActive(now) {
		if _, err := s.Dispatch(ClearAffiliate()); err != nil {
			return nil, err
		}
	}

	params := affiliates.FromQuery(query)
	if !params.HasAffiliate() {
		return s, nil
	}
	if params.ID == s.state.AffiliateID && params.Code == s.state.AffiliateCode {
		return s, nil
	}
	if _, err := s.Dispatch(CaptureAffiliate(params.ID, params.Code, now)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) State() State {
	return s.state
}

// Dispatch reduces the action and persists the resulting state.
func (s *Session) Dispatch(a Action) (State, error) {
	next := Reduce(s.state, a)
	if err := clientstate.SetJSON(s.store, StorageKey, next, storageTTL); err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}
