package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// ConfigOptionPrefix marks configurable option form keys on addOrder.
const ConfigOptionPrefix = "config_option_"

type Cycle string

const (
	CycleMonthly      Cycle = "monthly"
	CycleQuarterly    Cycle = "quarterly"
	CycleSemiannually Cycle = "semiannually"
	CycleAnnually     Cycle = "annually"
)

var billingCycleCodes = map[Cycle]string{
	CycleMonthly:      "m",
	CycleQuarterly:    "q",
	CycleSemiannually: "s",
	CycleAnnually:     "a",
}

// ParseCycle accepts storefront names and HostBill codes. Empty means monthly.
func ParseCycle(value string) (Cycle, error) {
	v := Cycle(strings.ToLower(strings.TrimSpace(value)))
	if v == "" {
		return CycleMonthly, nil
	}
	if _, ok := billingCycleCodes[v]; ok {
		return v, nil
	}
	for cycle, code := range billingCycleCodes {
		if string(v) == code {
			return cycle, nil
		}
	}
	return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported billing cycle %q", value).
		WithDetails(map[string]any{"cycle": value})
}

// BillingCode returns the HostBill cycle code.
func (c Cycle) BillingCode() string {
	return billingCycleCodes[c]
}

// Price returns the product price for the cycle.
func (p Pricing) Price(c Cycle) decimal.Decimal {
	switch c {
	case CycleQuarterly:
		return p.Quarterly
	case CycleSemiannually:
		return p.Semiannually
	case CycleAnnually:
		return p.Annually
	default:
		return p.Monthly
	}
}

// ConfigOptionKey prefixes key unless it already carries the prefix.
func ConfigOptionKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, ConfigOptionPrefix) {
		return key
	}
	return ConfigOptionPrefix + key
}
