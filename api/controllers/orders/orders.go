package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/vps-storefront/api/middleware"
	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/api/validators"
	internalorders "github.com/angelmondragon/vps-storefront/internal/orders"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Placer runs the order orchestrator.
type Placer interface {
	PlaceOrder(ctx context.Context, customer internalorders.Customer, items []internalorders.LineItem, affiliateID string) (*internalorders.Result, error)
}

// Lister returns billing orders for a client.
type Lister interface {
	ListOrders(ctx context.Context, clientID string) ([]internalorders.OrderSummary, error)
}

// AffiliateChecker confirms an affiliate may receive referrals.
type AffiliateChecker interface {
	IsValid(ctx context.Context, affiliateID string) bool
}

type createOrderRequest struct {
	Customer      internalorders.Customer `json:"customer"`
	ProductID     string                  `json:"productId" validate:"required,max=100"`
	Cycle         string                  `json:"cycle,omitempty" validate:"omitempty,max=20"`
	Quantity      int                     `json:"quantity,omitempty" validate:"omitempty,min=1,max=100"`
	ConfigOptions map[string]string       `json:"configOptions,omitempty"`
	Addons        []string                `json:"addons,omitempty" validate:"omitempty,max=20,dive,required,max=100"`
	PaymentModule string                  `json:"paymentModule,omitempty" validate:"omitempty,max=100"`
	Domain        string                  `json:"domain,omitempty" validate:"omitempty,max=253"`
	AffiliateID   string                  `json:"affiliateId,omitempty" validate:"omitempty,max=64"`
}

type createAdvancedOrderRequest struct {
	Customer    internalorders.Customer   `json:"customer"`
	Items       []internalorders.LineItem `json:"items" validate:"required,min=1,max=20,dive"`
	AffiliateID string                    `json:"affiliateId,omitempty" validate:"omitempty,max=64"`
}

// CreateOrder places a single product order.
func CreateOrder(placer Placer, checker AffiliateChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if placer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item := internalorders.LineItem{
			ProductID:     payload.ProductID,
			Quantity:      payload.Quantity,
			Cycle:         payload.Cycle,
			ConfigOptions: payload.ConfigOptions,
			Addons:        payload.Addons,
			PaymentModule: payload.PaymentModule,
			Domain:        payload.Domain,
		}
		affiliateID := ResolveAffiliate(r.Context(), checker, payload.AffiliateID, logg)
		Place(w, r, placer, payload.Customer, []internalorders.LineItem{item}, affiliateID, logg)
	}
}

// CreateAdvancedOrder places one billing order per line item.
func CreateAdvancedOrder(placer Placer, checker AffiliateChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if placer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createAdvancedOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		affiliateID := ResolveAffiliate(r.Context(), checker, payload.AffiliateID, logg)
		Place(w, r, placer, payload.Customer, payload.Items, affiliateID, logg)
	}
}

// Place runs the orchestrator and writes the result. A result with at least
// one placed order is 201; a result with none is reported as an error whose
// details carry every step.
func Place(w http.ResponseWriter, r *http.Request, placer Placer, customer internalorders.Customer, items []internalorders.LineItem, affiliateID string, logg *logger.Logger) {
	result, err := placer.PlaceOrder(r.Context(), customer, items, affiliateID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if !result.Success {
		responses.WriteError(r.Context(), logg, w, FailedPlacementError(result))
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, result)
}

// FailedPlacementError maps a result without any placed order to the code of
// its first failed step.
func FailedPlacementError(result *internalorders.Result) error {
	code := pkgerrors.CodeRemoteCall
	message := "no order could be placed"
	for _, step := range result.Steps {
		if step.Status == internalorders.StepError && step.ErrorCode != "" {
			code = pkgerrors.Code(step.ErrorCode)
			if step.Error != "" {
				message = step.Error
			}
			break
		}
	}
	if meta := pkgerrors.MetadataFor(code); !meta.DetailsAllowed {
		code = pkgerrors.CodeRemoteCall
	}
	return pkgerrors.New(code, message).WithDetails(result)
}

// ResolveAffiliate picks the explicit affiliate, falling back to the captured
// attribution. Affiliates the billing system does not confirm are dropped.
func ResolveAffiliate(ctx context.Context, checker AffiliateChecker, explicit string, logg *logger.Logger) string {
	affiliateID := strings.TrimSpace(explicit)
	if affiliateID == "" {
		if attr, ok := middleware.AttributionFromContext(ctx); ok {
			affiliateID = attr.ID
		}
	}
	if affiliateID == "" || checker == nil {
		return affiliateID
	}
	if !checker.IsValid(ctx, affiliateID) {
		if logg != nil {
			logg.Warn(logg.WithAffiliateID(ctx, affiliateID), "order.affiliate_dropped")
		}
		return ""
	}
	return affiliateID
}

// List returns billing orders for the client_id query parameter.
func List(lister Lister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		clientID := validators.SanitizeString(r.URL.Query().Get("client_id"), 64)
		if clientID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "client_id is required"))
			return
		}
		list, err := lister.ListOrders(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}
