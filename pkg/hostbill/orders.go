package hostbill

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// AddOrder creates a confirmed order with a generated invoice.
func (c *Client) AddOrder(ctx context.Context, req OrderRequest) (OrderCreated, error) {
	if strings.TrimSpace(req.ClientID) == "" || strings.TrimSpace(req.ProductID) == "" {
		return OrderCreated{}, pkgerrors.New(pkgerrors.CodeValidation, "client id and product id are required")
	}

	params := url.Values{}
	params.Set("client_id", req.ClientID)
	params.Set("product", req.ProductID)
	setIf(params, "cycle", req.Cycle)
	params.Set("confirm", "1")
	params.Set("invoice_generate", "1")
	params.Set("invoice_info", "1")
	if req.Quantity > 1 {
		params.Set("quantity", itoa(req.Quantity))
	}
	setIf(params, "module", req.PaymentModule)
	setIf(params, "domain", req.Domain)
	setIf(params, "notes", req.Notes)

	keys := make([]string, 0, len(req.ConfigOptions))
	for k := range req.ConfigOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, req.ConfigOptions[k])
	}
	for _, addonID := range req.Addons {
		if id := strings.TrimSpace(addonID); id != "" {
			params.Set("addon["+id+"]", "1")
		}
	}

	resp, err := c.Call(ctx, MethodAddOrder, params)
	if err != nil {
		return OrderCreated{}, err
	}
	created := OrderCreated{
		OrderID:   resp.String("order_id", "id", "orderid"),
		InvoiceID: resp.String("invoice_id", "invoiceid"),
		Number:    resp.String("order_number", "number"),
	}
	if created.OrderID == "" {
		return OrderCreated{}, pkgerrors.New(pkgerrors.CodeInvalidResponse, "hostbill addOrder returned no order id").
			WithDetails(map[string]any{"method": MethodAddOrder})
	}
	return created, nil
}

func (c *Client) GetOrderDetails(ctx context.Context, orderID string) (*OrderDetails, error) {
	resp, err := c.Call(ctx, MethodGetOrderDetails, url.Values{"id": {orderID}})
	if err != nil {
		return nil, err
	}
	var details OrderDetails
	found, err := resp.Decode("details", &details)
	if err != nil {
		return nil, err
	}
	if !found {
		if found, err = resp.Decode("order", &details); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", orderID)
	}
	if details.ID == "" {
		details.ID = FlexString(orderID)
	}
	return &details, nil
}

func (c *Client) GetOrders(ctx context.Context, filter OrderFilter) ([]OrderSummary, error) {
	params := url.Values{}
	setIf(params, "client_id", filter.ClientID)
	setIf(params, "status", filter.Status)
	if filter.Page > 0 {
		params.Set("page", itoa(filter.Page))
	}
	resp, err := c.Call(ctx, MethodGetOrders, params)
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp, "orders", func(key string, o *OrderSummary) {
		if o.ID == "" {
			o.ID = FlexString(key)
		}
	})
}

// SetOrderReferrer attributes an order to an affiliate. Referrers attach to
// orders only; HostBill offers no client-level assignment.
func (c *Client) SetOrderReferrer(ctx context.Context, orderID, affiliateID string) error {
	_, err := c.Call(ctx, MethodSetOrderReferrer, url.Values{
		"id":       {orderID},
		"referral": {affiliateID},
	})
	return err
}

func setIf(params url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		params.Set(key, v)
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
