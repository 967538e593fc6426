package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

const testCatalog = `
addons:
  - {id: backup, billing_id: "21", name: Backup, price: "99"}
  - {id: ipv4, billing_id: "22", name: IPv4, price: "49"}
products:
  - id: vps-a
    billing_id: "101"
    name: A
    pricing: {monthly: "500", quarterly: "1400", annually: "5000"}
    addons: [backup]
    config_options:
      os: [debian-12]
  - id: vps-b
    billing_id: "102"
    name: B
    pricing: {m: "250"}
`

func mustParse(t *testing.T, doc string) *Table {
	t.Helper()
	table, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return table
}

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Open("")
	if err != nil {
		t.Fatalf("open default catalog: %v", err)
	}
	if c.Size() == 0 {
		t.Fatalf("expected embedded products")
	}
	for _, p := range c.Products() {
		billingID, err := c.ToBillingProductID(p.ID)
		if err != nil {
			t.Fatalf("map %s: %v", p.ID, err)
		}
		back, err := c.ToInternalProductID(billingID)
		if err != nil || back != p.ID {
			t.Fatalf("mapping is not bijective for %s: %s %v", p.ID, back, err)
		}
	}
}

func TestUnmappedProductIsMappingError(t *testing.T) {
	table := mustParse(t, testCatalog)
	if _, err := table.ToBillingProductID("vps-missing"); !pkgerrors.IsCode(err, pkgerrors.CodeMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
	if _, err := table.ToInternalProductID("999"); !pkgerrors.IsCode(err, pkgerrors.CodeMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestParseRejectsSharedBillingID(t *testing.T) {
	_, err := Parse([]byte(`
products:
  - {id: a, billing_id: "1", name: A}
  - {id: b, billing_id: "1", name: B}
`))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseRejectsUnknownAddonReference(t *testing.T) {
	_, err := Parse([]byte(`
products:
  - {id: a, billing_id: "1", name: A, addons: [nope]}
`))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAvailableAddons(t *testing.T) {
	table := mustParse(t, testCatalog)
	addons := table.AvailableAddons("vps-a")
	if len(addons) != 1 || addons[0].ID != "backup" {
		t.Fatalf("unexpected addons %+v", addons)
	}
	if got := table.AvailableAddons("vps-b"); len(got) != 0 {
		t.Fatalf("expected no addons, got %+v", got)
	}
	if _, err := table.AddonBillingID("vps-a", "ipv4"); !pkgerrors.IsCode(err, pkgerrors.CodeMapping) {
		t.Fatalf("addon not whitelisted for product should fail, got %v", err)
	}
	if id, err := table.AddonBillingID("vps-a", "backup"); err != nil || id != "21" {
		t.Fatalf("unexpected addon billing id %q %v", id, err)
	}
}

func TestCommissionAmount(t *testing.T) {
	price := decimal.NewFromInt(500)
	cases := []struct {
		name string
		plan *Plan
		want string
	}{
		{"percent", &Plan{Type: PlanPercent, Rate: decimal.NewFromInt(20)}, "100"},
		{"fixed", &Plan{Type: PlanFixed, Rate: decimal.NewFromInt(50)}, "50"},
		{"no plan", nil, "0"},
		{"rounded", &Plan{Type: PlanPercent, Rate: decimal.RequireFromString("12.345")}, "61.73"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CommissionAmount(price, tc.plan)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
	if got := CommissionAmount(price, &Plan{Type: PlanPercent, Rate: decimal.NewFromInt(20)}).StringFixed(2); got != "100.00" {
		t.Fatalf("expected 100.00, got %s", got)
	}
}

func TestCommissionForCoversEveryCycle(t *testing.T) {
	table := mustParse(t, testCatalog)
	commission, err := table.CommissionFor("vps-a", &Plan{ID: "p1", Type: PlanPercent, Rate: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("commission: %v", err)
	}
	if !commission.HasCommission || commission.Monthly.String() != "50" || commission.Quarterly.String() != "140" ||
		commission.Semiannually.String() != "0" || commission.Annually.String() != "500" {
		t.Fatalf("unexpected commission %+v", commission)
	}

	none, err := table.CommissionFor("vps-a", nil)
	if err != nil {
		t.Fatalf("commission without plan: %v", err)
	}
	if none.HasCommission || !none.Monthly.IsZero() || !none.Annually.IsZero() {
		t.Fatalf("expected zero commission, got %+v", none)
	}
}

func TestPlanForProduct(t *testing.T) {
	table := mustParse(t, testCatalog)
	plans := []Plan{
		{ID: "other", BillingProductIDs: []string{"102"}},
		{ID: "match", BillingProductIDs: []string{"101"}},
	}
	plan, err := table.PlanForProduct("vps-a", plans)
	if err != nil || plan == nil || plan.ID != "match" {
		t.Fatalf("unexpected plan %+v %v", plan, err)
	}
	plan, err = table.PlanForProduct("vps-a", plans[:1])
	if err != nil || plan != nil {
		t.Fatalf("expected no plan, got %+v %v", plan, err)
	}
}

func TestParseCycle(t *testing.T) {
	for input, want := range map[string]string{"": "m", "monthly": "m", "q": "q", "Annually": "a", "semiannually": "s"} {
		cycle, err := ParseCycle(input)
		if err != nil || cycle.BillingCode() != want {
			t.Fatalf("cycle %q: got %q %v", input, cycle.BillingCode(), err)
		}
	}
	if _, err := ParseCycle("biennially"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfigOptions(t *testing.T) {
	table := mustParse(t, testCatalog)
	p, _ := table.Product("vps-a")
	if !p.ConfigOptionAllowed("config_option_os", "debian-12") || p.ConfigOptionAllowed("os", "windows") {
		t.Fatalf("unexpected config option validation")
	}
	if !p.ConfigOptionAllowed("hostname", "anything") {
		t.Fatalf("unrestricted options accept any value")
	}
	if ConfigOptionKey("os") != "config_option_os" || ConfigOptionKey("config_option_os") != "config_option_os" {
		t.Fatalf("unexpected option key prefixing")
	}
}

func TestRefreshSwapsTableAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	before := c.Snapshot()

	if err := os.WriteFile(path, []byte(`
products:
  - {id: vps-c, billing_id: "103", name: C}
`), 0o600); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}
	n, err := c.Refresh(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("refresh: %d %v", n, err)
	}
	if before.Size() != 2 {
		t.Fatalf("old snapshot must stay intact, got %d", before.Size())
	}
	if _, err := c.ToBillingProductID("vps-a"); err == nil {
		t.Fatalf("expected old product to disappear after refresh")
	}

	if err := os.WriteFile(path, []byte("products: [{"), 0o600); err != nil {
		t.Fatalf("corrupt catalog: %v", err)
	}
	if _, err := c.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh failure")
	}
	if c.Size() != 1 {
		t.Fatalf("failed refresh must keep serving the previous table")
	}
}
