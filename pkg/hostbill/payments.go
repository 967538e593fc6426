package hostbill

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// GetPaymentModules lists active gateways. HostBill returns either an
// id->name object or a list of module objects.
func (c *Client) GetPaymentModules(ctx context.Context) ([]PaymentModule, error) {
	resp, err := c.Call(ctx, MethodGetPaymentModules, nil)
	if err != nil {
		return nil, err
	}
	raw, ok := resp.Raw("modules")
	if !ok || isNull(raw) {
		return nil, nil
	}

	var names map[string]FlexString
	if err := json.Unmarshal(raw, &names); err == nil {
		keys := make([]string, 0, len(names))
		for k := range names {
			keys = append(keys, k)
		}
		sortKeys(keys)
		modules := make([]PaymentModule, 0, len(keys))
		for _, k := range keys {
			modules = append(modules, PaymentModule{ID: FlexString(k), Name: names[k]})
		}
		return modules, nil
	}

	return decodeCollection(resp, "modules", func(k string, m *PaymentModule) {
		if m.ID == "" {
			m.ID = FlexString(k)
		}
	})
}

// AddInvoicePayment records a payment against an invoice.
func (c *Client) AddInvoicePayment(ctx context.Context, payment InvoicePayment) error {
	if strings.TrimSpace(payment.InvoiceID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	params := url.Values{}
	params.Set("id", payment.InvoiceID)
	setIf(params, "amount", payment.Amount)
	setIf(params, "paymentmodule", payment.PaymentModule)
	setIf(params, "transnumber", payment.TransactionID)
	setIf(params, "fee", payment.Fee)
	setIf(params, "date", payment.Date)

	_, err := c.Call(ctx, MethodAddInvoicePayment, params)
	return err
}

// ChargeCreditCard charges the card stored on the invoice's client.
func (c *Client) ChargeCreditCard(ctx context.Context, invoiceID string) (ChargeResult, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return ChargeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	resp, err := c.Call(ctx, MethodChargeCreditCard, url.Values{"id": {invoiceID}})
	if err != nil {
		return ChargeResult{}, err
	}
	status := resp.String("status", "result")
	if status == "" {
		status = "charged"
	}
	return ChargeResult{
		InvoiceID: invoiceID,
		Status:    status,
		Message:   resp.String("info", "message"),
	}, nil
}
