package products

import (
	"context"
	"net/http"

	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/api/validators"
	internalproducts "github.com/angelmondragon/vps-storefront/internal/products"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Service lists storefront products and billing order pages.
type Service interface {
	List(ctx context.Context, categoryID string) (*internalproducts.ListResult, error)
	OrderPages(ctx context.Context) ([]internalproducts.OrderPage, error)
}

// List returns catalog products merged with billing availability.
func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		category := validators.SanitizeString(r.URL.Query().Get("category"), 64)
		result, err := svc.List(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderPages returns the billing storefront categories.
func OrderPages(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		pages, err := svc.OrderPages(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orderPages": pages})
	}
}
