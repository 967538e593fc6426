package cart

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/vps-storefront/api/controllers/orders"
	"github.com/angelmondragon/vps-storefront/api/middleware"
	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/api/validators"
	"github.com/angelmondragon/vps-storefront/internal/affiliates"
	internalcart "github.com/angelmondragon/vps-storefront/internal/cart"
	"github.com/angelmondragon/vps-storefront/internal/catalog"
	internalorders "github.com/angelmondragon/vps-storefront/internal/orders"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Catalog resolves products and addons added to the cart.
type Catalog interface {
	Product(internalID string) (catalog.Product, error)
	AddonBillingID(internalProductID, addonID string) (string, error)
}

// Handlers groups the cart endpoints. The cart itself lives in client state.
// A nil Now uses time.Now.
type Handlers struct {
	Catalog  Catalog
	Placer   orders.Placer
	Checker  orders.AffiliateChecker
	Currency string
	Logger   *logger.Logger
	Now      func() time.Time
}

type addItemRequest struct {
	ProductID     string            `json:"productId" validate:"required,max=100"`
	Cycle         string            `json:"cycle,omitempty" validate:"omitempty,max=20"`
	ConfigOptions map[string]string `json:"configOptions,omitempty"`
	Addons        []string          `json:"addons,omitempty" validate:"omitempty,max=20,dive,required,max=100"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=100"`
}

type affiliateRequest struct {
	AffiliateID   string `json:"affiliateId,omitempty" validate:"omitempty,max=64"`
	AffiliateCode string `json:"affiliateCode,omitempty" validate:"omitempty,max=64"`
}

type checkoutRequest struct {
	Customer      internalorders.Customer `json:"customer"`
	PaymentModule string                  `json:"paymentModule,omitempty" validate:"omitempty,max=100"`
	Domain        string                  `json:"domain,omitempty" validate:"omitempty,max=253"`
}

func (h Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h Handlers) session(w http.ResponseWriter, r *http.Request) (*internalcart.Session, error) {
	store := middleware.ClientStateFromContext(r.Context(), w, r)
	return internalcart.Restore(store, r.URL.Query(), h.now())
}

func (h Handlers) dispatch(w http.ResponseWriter, r *http.Request, action internalcart.Action) {
	session, err := h.session(w, r)
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	state, err := session.Dispatch(action)
	if err != nil {
		responses.WriteError(r.Context(), h.Logger, w, err)
		return
	}
	responses.WriteSuccess(w, state.View())
}

// Get returns the cart with item count and total.
func (h Handlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.session(w, r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, session.State().View())
	}
}

// AddItem adds one unit of a catalog product. Adding a line that already
// exists increments its quantity.
func (h Handlers) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Catalog == nil {
			responses.WriteError(r.Context(), h.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		item, err := h.lineFor(payload)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		h.dispatch(w, r, internalcart.AddItem(item))
	}
}

func (h Handlers) lineFor(payload addItemRequest) (internalcart.Item, error) {
	product, err := h.Catalog.Product(payload.ProductID)
	if err != nil {
		return internalcart.Item{}, err
	}
	cycle, err := catalog.ParseCycle(payload.Cycle)
	if err != nil {
		return internalcart.Item{}, err
	}
	for _, addonID := range payload.Addons {
		if _, err := h.Catalog.AddonBillingID(product.ID, addonID); err != nil {
			return internalcart.Item{}, err
		}
	}
	for key, value := range payload.ConfigOptions {
		if !product.ConfigOptionAllowed(key, value) {
			return internalcart.Item{}, pkgerrors.Newf(pkgerrors.CodeValidation, "option %s does not accept %q", key, value).
				WithDetails(map[string]any{"option": key, "value": value})
		}
	}

	id := product.ID
	if cycle != catalog.CycleMonthly {
		id += "@" + string(cycle)
	}
	return internalcart.Item{
		ID:   id,
		Name: product.Name,
		Specs: internalcart.Specs{
			CPU:     product.Specs.CPU,
			RAM:     product.Specs.RAM,
			Storage: product.Specs.Storage,
		},
		UnitPrice:        DisplayPrice(product.Pricing.Price(cycle).StringFixed(0), h.Currency),
		ProductID:        product.ID,
		BillingProductID: product.BillingID,
		Cycle:            string(cycle),
		ConfigOptions:    payload.ConfigOptions,
		Addons:           payload.Addons,
	}, nil
}

// DisplayPrice formats a whole amount the way the storefront shows it.
func DisplayPrice(amount, currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "CZK":
		return amount + " Kč"
	case "EUR":
		return amount + " €"
	default:
		return amount + " " + strings.ToUpper(currency)
	}
}

// UpdateQuantity sets the quantity of the line in the path. Zero removes it.
func (h Handlers) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		h.dispatch(w, r, internalcart.UpdateQuantity(chi.URLParam(r, "id"), *payload.Quantity))
	}
}

// RemoveItem drops the line in the path.
func (h Handlers) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.dispatch(w, r, internalcart.RemoveItem(chi.URLParam(r, "id")))
	}
}

// Clear empties the cart and keeps the affiliate.
func (h Handlers) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.dispatch(w, r, internalcart.ClearCart())
	}
}

// SetAffiliate stores the affiliate on the cart. An id the billing system
// does not confirm is rejected. An empty body detaches the affiliate from the
// cart and drops the captured attribution.
func (h Handlers) SetAffiliate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload affiliateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		affiliateID := strings.TrimSpace(payload.AffiliateID)
		if affiliateID != "" && h.Checker != nil && !h.Checker.IsValid(r.Context(), affiliateID) {
			responses.WriteError(r.Context(), h.Logger, w, pkgerrors.Newf(pkgerrors.CodeValidation, "affiliate %q is not active", affiliateID).
				WithDetails(map[string]any{"affiliateId": affiliateID}))
			return
		}
		code := strings.TrimSpace(payload.AffiliateCode)
		if affiliateID == "" && code == "" {
			affiliates.NewStore(middleware.ClientStateFromContext(r.Context(), w, r), h.Now).Clear()
			h.dispatch(w, r, internalcart.ClearAffiliate())
			return
		}
		h.dispatch(w, r, internalcart.CaptureAffiliate(affiliateID, code, h.now()))
	}
}

// Checkout places the cart through the order orchestrator. The cart is
// cleared only when the placement succeeded.
func (h Handlers) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Placer == nil {
			responses.WriteError(r.Context(), h.Logger, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		session, err := h.session(w, r)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		state := session.State()
		if len(state.Items) == 0 {
			responses.WriteError(r.Context(), h.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		items := LineItems(state, payload.PaymentModule, payload.Domain)
		affiliateID := orders.ResolveAffiliate(r.Context(), h.Checker, state.AffiliateID, h.Logger)
		result, err := h.Placer.PlaceOrder(r.Context(), payload.Customer, items, affiliateID)
		if err != nil {
			responses.WriteError(r.Context(), h.Logger, w, err)
			return
		}
		if !result.Success {
			responses.WriteError(r.Context(), h.Logger, w, orders.FailedPlacementError(result))
			return
		}
		if _, err := session.Dispatch(internalcart.ClearCart()); err != nil {
			h.warn(r.Context(), "cart.clear_failed", err)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func (h Handlers) warn(ctx context.Context, msg string, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn(h.Logger.WithField(ctx, "error", err.Error()), msg)
}

// LineItems maps cart lines to orchestrator input in cart order.
func LineItems(state internalcart.State, paymentModule, domain string) []internalorders.LineItem {
	items := make([]internalorders.LineItem, 0, len(state.Items))
	for _, it := range state.Items {
		productID := it.ProductID
		if productID == "" {
			productID = it.ID
		}
		items = append(items, internalorders.LineItem{
			ProductID:     productID,
			Quantity:      it.Quantity,
			Cycle:         it.Cycle,
			ConfigOptions: it.ConfigOptions,
			Addons:        it.Addons,
			PaymentModule: paymentModule,
			Domain:        domain,
		})
	}
	return items
}
