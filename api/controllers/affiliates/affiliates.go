package affiliates

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/api/validators"
	internalaffiliates "github.com/angelmondragon/vps-storefront/internal/affiliates"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Validator checks affiliate ids against the billing system.
type Validator interface {
	Validate(ctx context.Context, affiliateID string) internalaffiliates.Validation
}

// Lister returns every billing affiliate.
type Lister interface {
	List(ctx context.Context) ([]internalaffiliates.Affiliate, error)
}

// CommissionPreviewer computes the payout for one product.
type CommissionPreviewer interface {
	CommissionPreview(ctx context.Context, affiliateID, productID string) (*internalaffiliates.CommissionPreview, error)
}

// Validate reports whether ?id= is an active affiliate. Lookup failures are
// reported as valid:false with status 200.
func Validate(svc Validator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}
		affiliateID := validators.SanitizeString(r.URL.Query().Get("id"), 64)
		if affiliateID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "id is required"))
			return
		}
		responses.WriteSuccess(w, svc.Validate(r.Context(), affiliateID))
	}
}

// Commissions previews the commission on ?product= for the affiliate in the path.
func Commissions(svc CommissionPreviewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}
		affiliateID := validators.SanitizeString(chi.URLParam(r, "id"), 64)
		productID := validators.SanitizeString(r.URL.Query().Get("product"), 100)
		if affiliateID == "" || productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id and product are required"))
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithAffiliateID(ctx, affiliateID)
		}
		preview, err := svc.CommissionPreview(ctx, affiliateID, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

// List returns the billing affiliates for admins.
func List(svc Lister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"affiliates": list})
	}
}
