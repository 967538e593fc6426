package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

type PlanType string

const (
	PlanPercent PlanType = "Percent"
	PlanFixed   PlanType = "Fixed"
)

// ParsePlanType accepts the spellings HostBill uses for plan types.
func ParsePlanType(value string) PlanType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "fixed", "flat", "amount":
		return PlanFixed
	default:
		return PlanPercent
	}
}

// Plan is a commission plan as used for calculation.
type Plan struct {
	ID                string
	Name              string
	Type              PlanType
	Rate              decimal.Decimal
	BillingProductIDs []string
	Recurring         bool
}

// AppliesTo reports whether the plan covers the billing product. A plan with
// no product list covers every product.
func (p Plan) AppliesTo(billingProductID string) bool {
	if len(p.BillingProductIDs) == 0 {
		return true
	}
	for _, id := range p.BillingProductIDs {
		if id == billingProductID {
			return true
		}
	}
	return false
}

// Commission is the affiliate payout for each billing cycle.
type Commission struct {
	Monthly       decimal.Decimal `json:"monthly"`
	Quarterly     decimal.Decimal `json:"quarterly"`
	Semiannually  decimal.Decimal `json:"semiannually"`
	Annually      decimal.Decimal `json:"annually"`
	HasCommission bool            `json:"hasCommission"`
	PlanID        string          `json:"planId,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// CommissionAmount is price*rate/100 for Percent plans and the flat rate for
// Fixed plans, rounded to two decimals. No plan yields zero.
func CommissionAmount(price decimal.Decimal, plan *Plan) decimal.Decimal {
	if plan == nil {
		return decimal.Zero
	}
	switch plan.Type {
	case PlanFixed:
		return plan.Rate.Round(2)
	default:
		return price.Mul(plan.Rate).Div(hundred).Round(2)
	}
}

// CommissionFor applies plan to every cycle price of the product.
func (t *Table) CommissionFor(internalID string, plan *Plan) (Commission, error) {
	p, err := t.Product(internalID)
	if err != nil {
		return Commission{}, err
	}
	if plan == nil {
		return Commission{
			Monthly:      decimal.Zero,
			Quarterly:    decimal.Zero,
			Semiannually: decimal.Zero,
			Annually:     decimal.Zero,
		}, nil
	}
	return Commission{
		Monthly:       CommissionAmount(p.Pricing.Monthly, plan),
		Quarterly:     CommissionAmount(p.Pricing.Quarterly, plan),
		Semiannually:  CommissionAmount(p.Pricing.Semiannually, plan),
		Annually:      CommissionAmount(p.Pricing.Annually, plan),
		HasCommission: true,
		PlanID:        plan.ID,
	}, nil
}

// PlanForProduct returns the first plan covering the product, or nil.
func (t *Table) PlanForProduct(internalID string, plans []Plan) (*Plan, error) {
	billingID, err := t.ToBillingProductID(internalID)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].AppliesTo(billingID) {
			return &plans[i], nil
		}
	}
	return nil, nil
}

func (c *Catalog) PlanForProduct(internalID string, plans []Plan) (*Plan, error) {
	return c.Snapshot().PlanForProduct(internalID, plans)
}
