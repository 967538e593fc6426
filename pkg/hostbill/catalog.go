package hostbill

import (
	"context"
	"net/url"
	"strings"
)

// GetOrderPages lists the storefront categories configured in HostBill.
func (c *Client) GetOrderPages(ctx context.Context) ([]OrderPage, error) {
	resp, err := c.Call(ctx, MethodGetOrderPages, nil)
	if err != nil {
		return nil, err
	}
	key := "categories"
	if _, ok := resp.Raw(key); !ok {
		key = "orderpages"
	}
	return decodeCollection(resp, key, func(k string, p *OrderPage) {
		if p.ID == "" {
			p.ID = FlexString(k)
		}
	})
}

// GetProducts lists products, optionally within one order page.
func (c *Client) GetProducts(ctx context.Context, categoryID string) ([]Product, error) {
	params := url.Values{}
	if id := strings.TrimSpace(categoryID); id != "" {
		params.Set("id", id)
	}
	resp, err := c.Call(ctx, MethodGetProducts, params)
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp, "products", func(k string, p *Product) {
		if p.ID == "" {
			p.ID = FlexString(k)
		}
	})
}
