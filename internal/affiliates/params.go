package affiliates

import (
	"net/url"
	"strings"
)

// Params are the attribution values carried on an inbound storefront URL.
type Params struct {
	ID       string `json:"id,omitempty"`
	Code     string `json:"code,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
}

var (
	idKeys   = []string{"aff", "affiliate", "ref"}
	codeKeys = []string{"aff_code", "affiliate_code"}
)

// ExtractParams parses rawURL. An unparsable URL yields empty params.
func ExtractParams(rawURL string) Params {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Params{}
	}
	return FromQuery(u.Query())
}

// FromQuery reads attribution from a query string. The id comes from aff,
// affiliate, or ref, first present wins.
func FromQuery(q url.Values) Params {
	return Params{
		ID:       firstValue(q, idKeys...),
		Code:     firstValue(q, codeKeys...),
		Campaign: firstValue(q, "utm_campaign"),
		Source:   firstValue(q, "utm_source"),
		Medium:   firstValue(q, "utm_medium"),
	}
}

// HasAffiliate reports whether the params identify an affiliate.
func (p Params) HasAffiliate() bool {
	return p.ID != "" || p.Code != ""
}

func firstValue(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}
