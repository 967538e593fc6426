package orders

import (
	"context"

	"github.com/angelmondragon/vps-storefront/internal/catalog"
	"github.com/angelmondragon/vps-storefront/pkg/hostbill"
)

// Gateway is the subset of the billing client the orchestrator drives.
type Gateway interface {
	GetClients(ctx context.Context, filter hostbill.ClientFilter) ([]hostbill.ClientRecord, error)
	AddClient(ctx context.Context, client hostbill.ClientInput) (string, error)
	AddOrder(ctx context.Context, req hostbill.OrderRequest) (hostbill.OrderCreated, error)
	GetOrderDetails(ctx context.Context, orderID string) (*hostbill.OrderDetails, error)
	SetOrderReferrer(ctx context.Context, orderID, affiliateID string) error
	GetOrders(ctx context.Context, filter hostbill.OrderFilter) ([]hostbill.OrderSummary, error)
}

// Catalog resolves storefront products to billing ids.
type Catalog interface {
	Product(internalID string) (catalog.Product, error)
	AddonBillingID(internalProductID, addonID string) (string, error)
}

// Journal records placement outcomes for reconciliation.
type Journal interface {
	Record(ctx context.Context, placement *Placement) error
}

// PasswordGenerator produces initial passwords for new billing clients.
type PasswordGenerator func() (string, error)

// PlacementObserver counts placement outcomes.
type PlacementObserver interface {
	ObservePlacement(outcome string)
}
