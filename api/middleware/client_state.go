package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/vps-storefront/internal/affiliates"
	"github.com/angelmondragon/vps-storefront/pkg/clientstate"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

const ctxClientState contextKey = "client_state"

// ClientState binds a cookie-backed store to each request so handlers share
// one view of the client-owned cart and attribution.
func ClientState(opts clientstate.CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := clientstate.NewCookieStore(w, r, opts)
			ctx := context.WithValue(r.Context(), ctxClientState, clientstate.Store(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientStateFromContext returns the request's store. Outside the ClientState
// middleware it falls back to a store bound to w and r.
func ClientStateFromContext(ctx context.Context, w http.ResponseWriter, r *http.Request) clientstate.Store {
	if ctx != nil {
		if store, ok := ctx.Value(ctxClientState).(clientstate.Store); ok && store != nil {
			return store
		}
	}
	return clientstate.NewCookieStore(w, r, clientstate.CookieOptions{})
}

// AffiliateCapture records fresh affiliate query parameters in the
// hb_affiliate cookie and exposes the current attribution to handlers.
func AffiliateCapture(now func() time.Time, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			store := affiliates.NewStore(ClientStateFromContext(ctx, w, r), now)

			attr, captured, err := store.Capture(affiliates.FromQuery(r.URL.Query()))
			if err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "affiliate.capture_failed")
			}
			if attr != nil {
				if logg != nil {
					ctx = logg.WithAffiliateID(ctx, attr.ID)
					if captured {
						logg.Info(logg.WithField(ctx, "utm_campaign", attr.Campaign), "affiliate.captured")
					}
				}
				ctx = context.WithValue(ctx, ctxAttribution, *attr)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AttributionFromContext returns the attribution seen by AffiliateCapture.
func AttributionFromContext(ctx context.Context) (affiliates.Attribution, bool) {
	if ctx == nil {
		return affiliates.Attribution{}, false
	}
	attr, ok := ctx.Value(ctxAttribution).(affiliates.Attribution)
	return attr, ok
}
