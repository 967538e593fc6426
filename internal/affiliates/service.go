package affiliates

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vps-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/hostbill"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Gateway is the subset of the billing client used for affiliates.
type Gateway interface {
	GetAffiliates(ctx context.Context) ([]hostbill.Affiliate, error)
	GetAffiliate(ctx context.Context, affiliateID string) (*hostbill.Affiliate, error)
	GetAffiliateCommissionPlans(ctx context.Context, affiliateID string) ([]hostbill.CommissionPlan, error)
}

// CommissionCatalog resolves products and computes commissions.
type CommissionCatalog interface {
	PlanForProduct(internalID string, plans []catalog.Plan) (*catalog.Plan, error)
	CommissionFor(internalID string, plan *catalog.Plan) (catalog.Commission, error)
}

// Affiliate is the storefront view of a billing affiliate.
type Affiliate struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Status   string `json:"status"`
	Active   bool   `json:"active"`
}

// Validation is the outcome of checking an affiliate id.
type Validation struct {
	AffiliateID string     `json:"affiliateId"`
	Valid       bool       `json:"valid"`
	Affiliate   *Affiliate `json:"affiliate,omitempty"`
}

// CommissionPreview is the payout an affiliate would earn on one product.
type CommissionPreview struct {
	AffiliateID string             `json:"affiliateId"`
	ProductID   string             `json:"productId"`
	Commission  catalog.Commission `json:"commission"`
}

type Service struct {
	gateway Gateway
	catalog CommissionCatalog
	logg    *logger.Logger
}

func NewService(gateway Gateway, cat CommissionCatalog, logg *logger.Logger) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("affiliate gateway required")
	}
	if cat == nil {
		return nil, errors.New("catalog required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Service{gateway: gateway, catalog: cat, logg: logg}, nil
}

// Validate confirms the affiliate exists and is Active. Lookup failures mark
// the affiliate invalid and are never returned to the caller.
func (s *Service) Validate(ctx context.Context, affiliateID string) Validation {
	affiliateID = strings.TrimSpace(affiliateID)
	result := Validation{AffiliateID: affiliateID}
	if affiliateID == "" {
		return result
	}
	aff, err := s.gateway.GetAffiliate(ctx, affiliateID)
	if err != nil {
		ctx = s.logg.WithAffiliateID(ctx, affiliateID)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "affiliate.validate_failed")
		return result
	}
	view := toAffiliate(*aff)
	result.Affiliate = &view
	result.Valid = view.Active
	return result
}

// IsValid is Validate reduced to a boolean.
func (s *Service) IsValid(ctx context.Context, affiliateID string) bool {
	return s.Validate(ctx, affiliateID).Valid
}

func (s *Service) List(ctx context.Context) ([]Affiliate, error) {
	records, err := s.gateway.GetAffiliates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Affiliate, 0, len(records))
	for _, r := range records {
		out = append(out, toAffiliate(r))
	}
	return out, nil
}

// Plans loads the affiliate's commission plans in calculation form.
func (s *Service) Plans(ctx context.Context, affiliateID string) ([]catalog.Plan, error) {
	records, err := s.gateway.GetAffiliateCommissionPlans(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	plans := make([]catalog.Plan, 0, len(records))
	for _, r := range records {
		plan, err := toPlan(r)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// CommissionPreview computes the commission for the first plan covering the
// product. No applicable plan yields zero with HasCommission=false.
func (s *Service) CommissionPreview(ctx context.Context, affiliateID, productID string) (*CommissionPreview, error) {
	affiliateID = strings.TrimSpace(affiliateID)
	productID = strings.TrimSpace(productID)
	if affiliateID == "" || productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id and product are required")
	}
	plans, err := s.Plans(ctx, affiliateID)
	if err != nil {
		return nil, err
	}
	plan, err := s.catalog.PlanForProduct(productID, plans)
	if err != nil {
		return nil, err
	}
	commission, err := s.catalog.CommissionFor(productID, plan)
	if err != nil {
		return nil, err
	}
	return &CommissionPreview{AffiliateID: affiliateID, ProductID: productID, Commission: commission}, nil
}

func toAffiliate(a hostbill.Affiliate) Affiliate {
	name := strings.TrimSpace(a.FirstName.String() + " " + a.LastName.String())
	return Affiliate{
		ID:       a.ID.String(),
		ClientID: a.ClientID.String(),
		Name:     name,
		Email:    a.Email.String(),
		Status:   a.Status.String(),
		Active:   a.Active(),
	}
}

func toPlan(r hostbill.CommissionPlan) (catalog.Plan, error) {
	rate := decimal.Zero
	if raw := strings.TrimSpace(strings.TrimSuffix(r.Rate.String(), "%")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.Plan{}, pkgerrors.Wrap(pkgerrors.CodeInvalidResponse, err, "commission plan rate").
				WithDetails(map[string]any{"method": hostbill.MethodGetCommissionPlans, "plan_id": r.ID.String()})
		}
		rate = parsed
	}
	products := make([]string, 0, len(r.Products))
	for _, p := range r.Products {
		products = append(products, p.String())
	}
	recurring := r.Recurring.String()
	return catalog.Plan{
		ID:                r.ID.String(),
		Name:              r.Name.String(),
		Type:              catalog.ParsePlanType(r.Type.String()),
		Rate:              rate,
		BillingProductIDs: products,
		Recurring:         recurring == "1" || strings.EqualFold(recurring, "true"),
	}, nil
}
