package products

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/angelmondragon/vps-storefront/internal/catalog"
	"github.com/angelmondragon/vps-storefront/pkg/hostbill"
)

// Gateway is the subset of the billing client used for product listings.
type Gateway interface {
	GetProducts(ctx context.Context, categoryID string) ([]hostbill.Product, error)
	GetOrderPages(ctx context.Context) ([]hostbill.OrderPage, error)
}

// Catalog provides the storefront product table.
type Catalog interface {
	Products() []catalog.Product
	AvailableAddons(internalID string) []catalog.Addon
}

// Listing is a storefront product merged with its billing record.
// Available is false when the billing system does not list the product.
type Listing struct {
	catalog.Product
	Addons      []catalog.Addon `json:"addons"`
	Available   bool            `json:"available"`
	BillingName string          `json:"billingName,omitempty"`
}

// ListResult carries the listings plus billing products the catalog does not map.
type ListResult struct {
	Products []Listing `json:"products"`
	Unmapped []string  `json:"unmappedBillingIds,omitempty"`
}

// OrderPage is a billing storefront category.
type OrderPage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type Service struct {
	gateway Gateway
	catalog Catalog
}

func NewService(gateway Gateway, cat Catalog) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("billing gateway required")
	}
	if cat == nil {
		return nil, errors.New("catalog required")
	}
	return &Service{gateway: gateway, catalog: cat}, nil
}

// List merges billing products with the catalog. With a category only
// catalog products present in that category are returned.
func (s *Service) List(ctx context.Context, categoryID string) (*ListResult, error) {
	categoryID = strings.TrimSpace(categoryID)
	billing, err := s.gateway.GetProducts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]hostbill.Product, len(billing))
	for _, p := range billing {
		byID[p.ID.String()] = p
	}

	result := &ListResult{Products: []Listing{}}
	mapped := map[string]bool{}
	for _, p := range s.catalog.Products() {
		mapped[p.BillingID] = true
		record, ok := byID[p.BillingID]
		if categoryID != "" && !ok {
			continue
		}
		result.Products = append(result.Products, Listing{
			Product:     p,
			Addons:      s.catalog.AvailableAddons(p.ID),
			Available:   ok,
			BillingName: record.Name.String(),
		})
	}
	for id := range byID {
		if !mapped[id] {
			result.Unmapped = append(result.Unmapped, id)
		}
	}
	sort.Strings(result.Unmapped)
	return result, nil
}

func (s *Service) OrderPages(ctx context.Context) ([]OrderPage, error) {
	pages, err := s.gateway.GetOrderPages(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OrderPage, 0, len(pages))
	for _, p := range pages {
		out = append(out, OrderPage{ID: p.ID.String(), Name: p.Name.String(), Slug: p.Slug.String()})
	}
	return out, nil
}
