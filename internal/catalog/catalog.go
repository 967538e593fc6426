package catalog

import (
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// Specs describes the hardware of a VPS tier.
type Specs struct {
	CPU     string `json:"cpu"`
	RAM     string `json:"ram"`
	Storage string `json:"storage"`
}

// Pricing holds per-cycle prices in the default currency.
type Pricing struct {
	Monthly      decimal.Decimal `json:"monthly"`
	Quarterly    decimal.Decimal `json:"quarterly"`
	Semiannually decimal.Decimal `json:"semiannually"`
	Annually     decimal.Decimal `json:"annually"`
}

// Product is a storefront product and its billing counterpart.
type Product struct {
	ID            string              `json:"id"`
	BillingID     string              `json:"billingId"`
	Name          string              `json:"name"`
	Specs         Specs               `json:"specs"`
	Pricing       Pricing             `json:"pricing"`
	AddonIDs      []string            `json:"availableAddonIds"`
	ConfigOptions map[string][]string `json:"configOptionChoices,omitempty"`
}

// Addon is an optional extra that specific products whitelist.
type Addon struct {
	ID        string          `json:"id"`
	BillingID string          `json:"billingId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// Table is an immutable snapshot of the mapping between storefront and
// billing ids. Readers hold a *Table and never observe a partial refresh.
type Table struct {
	products  map[string]Product
	byBilling map[string]string
	addons    map[string]Addon
	order     []string
}

func newTable(products []Product, addons []Addon) (*Table, error) {
	t := &Table{
		products:  make(map[string]Product, len(products)),
		byBilling: make(map[string]string, len(products)),
		addons:    make(map[string]Addon, len(addons)),
	}
	for _, a := range addons {
		if a.ID == "" || a.BillingID == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "addon %q requires id and billing id", a.Name)
		}
		if _, dup := t.addons[a.ID]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "duplicate addon id %q", a.ID)
		}
		t.addons[a.ID] = a
	}
	for _, p := range products {
		if p.ID == "" || p.BillingID == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "product %q requires id and billing id", p.Name)
		}
		if _, dup := t.products[p.ID]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "duplicate product id %q", p.ID)
		}
		if other, dup := t.byBilling[p.BillingID]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "products %q and %q share billing id %q", other, p.ID, p.BillingID)
		}
		for _, addonID := range p.AddonIDs {
			if _, ok := t.addons[addonID]; !ok {
				return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "product %q references unknown addon %q", p.ID, addonID)
			}
		}
		t.products[p.ID] = p
		t.byBilling[p.BillingID] = p.ID
		t.order = append(t.order, p.ID)
	}
	return t, nil
}

func mappingError(kind, id string) error {
	return pkgerrors.Newf(pkgerrors.CodeMapping, "%s %q has no billing counterpart", kind, id).
		WithDetails(map[string]any{kind + "_id": id})
}

// Catalog serves the current Table and swaps it atomically on refresh.
type Catalog struct {
	table  atomic.Pointer[Table]
	path   string
	reload singleflight.Group
}

// New returns a catalog serving table with no backing file.
func New(table *Table) *Catalog {
	c := &Catalog{}
	c.table.Store(table)
	return c
}

// Snapshot returns the table currently being served.
func (c *Catalog) Snapshot() *Table {
	return c.table.Load()
}

// Replace swaps the whole table in one step.
func (c *Catalog) Replace(table *Table) {
	if table != nil {
		c.table.Store(table)
	}
}

func (c *Catalog) ToBillingProductID(internalID string) (string, error) {
	return c.Snapshot().ToBillingProductID(internalID)
}

func (c *Catalog) ToInternalProductID(billingID string) (string, error) {
	return c.Snapshot().ToInternalProductID(billingID)
}

func (c *Catalog) Product(internalID string) (Product, error) {
	return c.Snapshot().Product(internalID)
}

func (c *Catalog) Products() []Product {
	return c.Snapshot().Products()
}

func (c *Catalog) AvailableAddons(internalID string) []Addon {
	return c.Snapshot().AvailableAddons(internalID)
}

func (c *Catalog) AddonBillingID(internalProductID, addonID string) (string, error) {
	return c.Snapshot().AddonBillingID(internalProductID, addonID)
}

func (c *Catalog) CommissionFor(internalID string, plan *Plan) (Commission, error) {
	return c.Snapshot().CommissionFor(internalID, plan)
}

func (c *Catalog) Size() int {
	return c.Snapshot().Size()
}

// ToBillingProductID fails with CodeMapping for ids the catalog does not offer.
func (t *Table) ToBillingProductID(internalID string) (string, error) {
	p, err := t.Product(internalID)
	if err != nil {
		return "", err
	}
	return p.BillingID, nil
}

func (t *Table) ToInternalProductID(billingID string) (string, error) {
	id, ok := t.byBilling[strings.TrimSpace(billingID)]
	if !ok {
		return "", mappingError("billing_product", billingID)
	}
	return id, nil
}

func (t *Table) Product(internalID string) (Product, error) {
	p, ok := t.products[strings.TrimSpace(internalID)]
	if !ok {
		return Product{}, mappingError("product", internalID)
	}
	return p, nil
}

// Products returns products in catalog file order.
func (t *Table) Products() []Product {
	out := make([]Product, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.products[id])
	}
	return out
}

// AvailableAddons returns the addons whitelisted for the product, empty when
// the product has none or is unknown.
func (t *Table) AvailableAddons(internalID string) []Addon {
	p, ok := t.products[strings.TrimSpace(internalID)]
	if !ok {
		return []Addon{}
	}
	out := make([]Addon, 0, len(p.AddonIDs))
	for _, id := range p.AddonIDs {
		out = append(out, t.addons[id])
	}
	return out
}

// AddonBillingID resolves an addon that the product whitelists.
func (t *Table) AddonBillingID(internalProductID, addonID string) (string, error) {
	for _, a := range t.AvailableAddons(internalProductID) {
		if a.ID == addonID {
			return a.BillingID, nil
		}
	}
	return "", mappingError("addon", addonID)
}

// ConfigOptionAllowed reports whether value is a valid choice. Options the
// product does not restrict accept any value.
func (p Product) ConfigOptionAllowed(key, value string) bool {
	choices, ok := p.ConfigOptions[strings.TrimPrefix(key, ConfigOptionPrefix)]
	if !ok || len(choices) == 0 {
		return true
	}
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}

func (t *Table) Size() int {
	return len(t.products)
}

