package payments

import (
	"context"
	"net/http"

	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/api/validators"
	internalpayments "github.com/angelmondragon/vps-storefront/internal/payments"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Service covers gateway listing and invoice payment.
type Service interface {
	ListActiveGateways(ctx context.Context) []internalpayments.GatewayInfo
	Initialize(ctx context.Context, input internalpayments.InitializeInput) (*internalpayments.Initialization, error)
	Confirm(ctx context.Context, input internalpayments.ConfirmInput) error
}

// Methods lists checkout payment options. It never fails: a billing outage
// yields the fallback list.
func Methods(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"methods": svc.ListActiveGateways(r.Context())})
	}
}

// Modules is Methods under the billing-facing path.
func Modules(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"modules": svc.ListActiveGateways(r.Context())})
	}
}

// Initialize charges or redirects depending on the selected method.
func Initialize(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		var payload internalpayments.InitializeInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Initialize(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Confirm records a manual payment against an invoice.
func Confirm(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		var payload internalpayments.ConfirmInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Confirm(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"invoiceId": payload.InvoiceID, "recorded": true})
	}
}
