package hostbill

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// GetAffiliates lists every affiliate account.
func (c *Client) GetAffiliates(ctx context.Context) ([]Affiliate, error) {
	resp, err := c.Call(ctx, MethodGetAffiliates, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp, "affiliates", func(key string, a *Affiliate) {
		if a.ID == "" {
			a.ID = FlexString(key)
		}
	})
}

// GetAffiliate loads one affiliate. A missing record is CodeNotFound.
func (c *Client) GetAffiliate(ctx context.Context, affiliateID string) (*Affiliate, error) {
	affiliateID = strings.TrimSpace(affiliateID)
	if affiliateID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id is required")
	}
	resp, err := c.Call(ctx, MethodGetAffiliate, url.Values{"id": {affiliateID}})
	if err != nil {
		return nil, err
	}
	var aff Affiliate
	found, err := resp.Decode("affiliate", &aff)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "affiliate %s not found", affiliateID)
	}
	if aff.ID == "" {
		aff.ID = FlexString(affiliateID)
	}
	return &aff, nil
}

// GetAffiliateCommissionPlans returns the commission plans attached to an
// affiliate. HostBill spells the method "Commision".
func (c *Client) GetAffiliateCommissionPlans(ctx context.Context, affiliateID string) ([]CommissionPlan, error) {
	params := url.Values{}
	if id := strings.TrimSpace(affiliateID); id != "" {
		params.Set("id", id)
	}
	resp, err := c.Call(ctx, MethodGetCommissionPlans, params)
	if err != nil {
		return nil, err
	}
	key := "plans"
	if _, ok := resp.Raw(key); !ok {
		key = "commission_plans"
	}
	return decodeCollection(resp, key, func(k string, p *CommissionPlan) {
		if p.ID == "" {
			p.ID = FlexString(k)
		}
	})
}
