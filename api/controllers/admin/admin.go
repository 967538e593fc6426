package admin

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/api/validators"
	"github.com/angelmondragon/vps-storefront/internal/dashboard"
	internalorders "github.com/angelmondragon/vps-storefront/internal/orders"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// PlacementLister reads the placement journal.
type PlacementLister interface {
	List(ctx context.Context, filter internalorders.JournalFilter) ([]internalorders.Placement, error)
}

// PlacementFinder loads one journal entry.
type PlacementFinder interface {
	Find(ctx context.Context, id uuid.UUID) (*internalorders.Placement, error)
}

// PlacementJournal is the read side of the journal used by the admin routes.
type PlacementJournal interface {
	PlacementLister
	PlacementFinder
}

// CatalogRefresher reloads the product table.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

type placementStep struct {
	Position         int    `json:"position"`
	ProductID        string `json:"productId"`
	BillingProductID string `json:"billingProductId,omitempty"`
	Status           string `json:"status"`
	OrderID          string `json:"orderId,omitempty"`
	OrderNumber      string `json:"orderNumber,omitempty"`
	InvoiceID        string `json:"invoiceId,omitempty"`
	ReferrerAssigned bool   `json:"referrerAssigned"`
	ErrorCode        string `json:"errorCode,omitempty"`
	Error            string `json:"error,omitempty"`
}

type placementView struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"clientId,omitempty"`
	ClientCreated bool            `json:"clientCreated"`
	CustomerEmail string          `json:"customerEmail"`
	AffiliateID   string          `json:"affiliateId,omitempty"`
	Outcome       string          `json:"outcome"`
	ItemCount     int             `json:"itemCount"`
	Succeeded     int             `json:"succeeded"`
	ErrorCode     string          `json:"errorCode,omitempty"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Steps         []placementStep `json:"steps"`
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func toPlacementView(p internalorders.Placement) placementView {
	view := placementView{
		ID:            p.ID.String(),
		ClientID:      deref(p.ClientID),
		ClientCreated: p.ClientCreated,
		CustomerEmail: p.CustomerEmail,
		AffiliateID:   deref(p.AffiliateID),
		Outcome:       p.Outcome,
		ItemCount:     p.ItemCount,
		Succeeded:     p.SucceededCount,
		ErrorCode:     deref(p.ErrorCode),
		Error:         deref(p.ErrorMessage),
		CreatedAt:     p.CreatedAt,
		Steps:         make([]placementStep, 0, len(p.Steps)),
	}
	for _, s := range p.Steps {
		view.Steps = append(view.Steps, placementStep{
			Position:         s.Position,
			ProductID:        s.ProductID,
			BillingProductID: deref(s.BillingProductID),
			Status:           s.Status,
			OrderID:          deref(s.OrderID),
			OrderNumber:      deref(s.OrderNumber),
			InvoiceID:        deref(s.InvoiceID),
			ReferrerAssigned: s.ReferrerAssigned,
			ErrorCode:        deref(s.ErrorCode),
			Error:            deref(s.ErrorMessage),
		})
	}
	return view
}

// Placements lists journal entries, newest first, filtered by ?outcome=.
func Placements(repo PlacementLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "placement journal is not configured"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalorders.JournalFilter{
			Outcome: validators.SanitizeString(r.URL.Query().Get("outcome"), 16),
			Limit:   limit,
		}
		placements, err := repo.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]placementView, 0, len(placements))
		for _, p := range placements {
			views = append(views, toPlacementView(p))
		}
		responses.WriteSuccess(w, map[string]any{"placements": views})
	}
}

// Placement returns a single journal entry with its steps by {id}.
func Placement(repo PlacementFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "placement journal is not configured"))
			return
		}
		raw := strings.TrimSpace(chi.URLParam(r, "id"))
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "placement id %q is not a uuid", raw))
			return
		}
		placement, err := repo.Find(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"placement": toPlacementView(*placement)})
	}
}

// RefreshCatalog reloads the catalog file and reports the product count.
func RefreshCatalog(refresher CatalogRefresher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if refresher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		size, err := refresher.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "catalog_size", size), "catalog.refreshed")
		}
		responses.WriteSuccess(w, map[string]any{"products": size})
	}
}

// Dashboard renders the status page from the collected sources.
func Dashboard(sources dashboard.Sources, renderer dashboard.Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if renderer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard unavailable"))
			return
		}
		status, err := dashboard.Collect(r.Context(), sources)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "collect dashboard status"))
			return
		}
		var buf bytes.Buffer
		if err := renderer.Render(&buf, status); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render dashboard"))
			return
		}
		w.Header().Set("Content-Type", renderer.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
