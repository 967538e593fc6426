package payments

import "strings"

const (
	SourceBilling  = "billing"
	SourceFallback = "fallback"
)

// GatewayInfo is a payment option shown at checkout.
type GatewayInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	ModuleID   string `json:"moduleId,omitempty"`
	ModuleName string `json:"moduleName,omitempty"`
	Source     string `json:"source"`
	Unknown    bool   `json:"unknown,omitempty"`
}

type knownGateway struct {
	id   string
	name string
	icon string
}

var (
	gatewayCard     = knownGateway{id: "card", name: "Platební karta", icon: "credit-card"}
	gatewayPayPal   = knownGateway{id: "paypal", name: "PayPal", icon: "paypal"}
	gatewayBank     = knownGateway{id: "bank_transfer", name: "Bankovní převod", icon: "bank"}
	gatewayCrypto   = knownGateway{id: "crypto", name: "Kryptoměny", icon: "bitcoin"}
	gatewayPayU     = knownGateway{id: "payu", name: "PayU", icon: "payu"}
	gatewayGoPay    = knownGateway{id: "gopay", name: "GoPay", icon: "gopay"}
	gatewayComGate  = knownGateway{id: "comgate", name: "ComGate", icon: "comgate"}
	fallbackOptions = []knownGateway{gatewayCard, gatewayPayPal, gatewayBank, gatewayCrypto, gatewayPayU}
)

// knownModules maps normalized HostBill module names and filenames to
// storefront gateways.
var knownModules = map[string]knownGateway{
	"stripe":         gatewayCard,
	"stripe3ds":      gatewayCard,
	"creditcard":     gatewayCard,
	"authorizenet":   gatewayCard,
	"braintree":      gatewayCard,
	"paypal":         gatewayPayPal,
	"paypalcheckout": gatewayPayPal,
	"banktransfer":   gatewayBank,
	"wiretransfer":   gatewayBank,
	"bank":           gatewayBank,
	"coinpayments":   gatewayCrypto,
	"bitpay":         gatewayCrypto,
	"coinbase":       gatewayCrypto,
	"crypto":         gatewayCrypto,
	"payu":           gatewayPayU,
	"gopay":          gatewayGoPay,
	"comgate":        gatewayComGate,
}

// normalizeModule reduces "class.stripe_3ds.php" or "Bank Transfer" to a
// lookup key.
func normalizeModule(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "class.")
	name = strings.TrimSuffix(name, ".php")
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fallback returns the gateways offered when the billing system is unreachable.
func Fallback() []GatewayInfo {
	out := make([]GatewayInfo, 0, len(fallbackOptions))
	for _, g := range fallbackOptions {
		out = append(out, GatewayInfo{ID: g.id, Name: g.name, Icon: g.icon, Source: SourceFallback})
	}
	return out
}
