package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/hostbill"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// Gateway is the subset of the billing client used for payments.
type Gateway interface {
	GetPaymentModules(ctx context.Context) ([]hostbill.PaymentModule, error)
	ChargeCreditCard(ctx context.Context, invoiceID string) (hostbill.ChargeResult, error)
	AddInvoicePayment(ctx context.Context, payment hostbill.InvoicePayment) error
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Gateway       Gateway
	Logger        *logger.Logger
	ClientAreaURL string
}

type Service struct {
	gateway    Gateway
	logg       *logger.Logger
	clientArea string
	listing    singleflight.Group
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, errors.New("billing gateway required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Service{
		gateway:    params.Gateway,
		logg:       params.Logger,
		clientArea: strings.TrimRight(strings.TrimSpace(params.ClientAreaURL), "/"),
	}, nil
}

// ListActiveGateways maps billing payment modules to checkout options.
// Unknown modules are kept and flagged. Any failure to list modules yields
// the fallback list so checkout always has options.
func (s *Service) ListActiveGateways(ctx context.Context) []GatewayInfo {
	// Callers share one listing, so it must not die with whichever caller
	// started it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.listing.Do("modules", func() (any, error) {
		return s.gateway.GetPaymentModules(shared)
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payments.modules_fallback")
		return Fallback()
	}
	modules, _ := v.([]hostbill.PaymentModule)
	if len(modules) == 0 {
		s.logg.Warn(ctx, "payments.modules_empty")
		return Fallback()
	}

	out := make([]GatewayInfo, 0, len(modules))
	for _, m := range modules {
		info := GatewayInfo{
			ModuleID:   m.ID.String(),
			ModuleName: m.Name.String(),
			Source:     SourceBilling,
		}
		known, ok := lookupModule(m)
		if ok {
			info.ID, info.Name, info.Icon = known.id, known.name, known.icon
		} else {
			info.ID = "module_" + m.ID.String()
			info.Name = m.Name.String()
			info.Icon = "payment"
			info.Unknown = true
		}
		out = append(out, info)
	}
	return out
}

func lookupModule(m hostbill.PaymentModule) (knownGateway, bool) {
	for _, candidate := range []string{m.Filename.String(), m.Name.String()} {
		if g, ok := knownModules[normalizeModule(candidate)]; ok {
			return g, true
		}
	}
	return knownGateway{}, false
}

// InitializeInput selects how an invoice will be paid.
type InitializeInput struct {
	InvoiceID string `json:"invoiceId" validate:"required,max=64"`
	Method    string `json:"method" validate:"required,max=64"`
}

// Initialization tells the storefront what to do next.
type Initialization struct {
	InvoiceID  string `json:"invoiceId"`
	Method     string `json:"method"`
	Status     string `json:"status"`
	PaymentURL string `json:"paymentUrl,omitempty"`
	ModuleID   string `json:"moduleId,omitempty"`
	Message    string `json:"message,omitempty"`
}

const (
	StatusCharged  = "charged"
	StatusRedirect = "redirect"
)

// Initialize charges the stored card for "card" and returns the client area
// payment link for every other gateway.
func (s *Service) Initialize(ctx context.Context, input InitializeInput) (*Initialization, error) {
	invoiceID := strings.TrimSpace(input.InvoiceID)
	method := strings.TrimSpace(input.Method)
	if invoiceID == "" || method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id and method are required")
	}

	var selected *GatewayInfo
	for _, g := range s.ListActiveGateways(ctx) {
		if g.ID == method {
			selected = &g
			break
		}
	}
	if selected == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "payment method %q is not available", method).
			WithDetails(map[string]any{"method": method})
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"invoice_id": invoiceID, "method": method})
	if method == gatewayCard.id {
		charge, err := s.gateway.ChargeCreditCard(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		s.logg.Info(ctx, "payments.card_charged")
		return &Initialization{
			InvoiceID: invoiceID,
			Method:    method,
			Status:    StatusCharged,
			ModuleID:  selected.ModuleID,
			Message:   charge.Message,
		}, nil
	}

	link, err := s.invoiceURL(invoiceID, selected.ModuleID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "payments.redirect_issued")
	return &Initialization{
		InvoiceID:  invoiceID,
		Method:     method,
		Status:     StatusRedirect,
		PaymentURL: link,
		ModuleID:   selected.ModuleID,
	}, nil
}

func (s *Service) invoiceURL(invoiceID, moduleID string) (string, error) {
	if s.clientArea == "" {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "client area url is not configured")
	}
	q := url.Values{}
	q.Set("cmd", "clientarea")
	q.Set("action", "invoice")
	q.Set("id", invoiceID)
	if moduleID != "" {
		q.Set("gateway", moduleID)
	}
	return fmt.Sprintf("%s/index.php?%s", s.clientArea, q.Encode()), nil
}

// ConfirmInput records a payment received outside the billing system.
type ConfirmInput struct {
	InvoiceID     string `json:"invoiceId" validate:"required,max=64"`
	Amount        string `json:"amount" validate:"required,max=32"`
	PaymentModule string `json:"paymentModule" validate:"required,max=100"`
	TransactionID string `json:"transactionId,omitempty" validate:"omitempty,max=128"`
	Fee           string `json:"fee,omitempty" validate:"omitempty,max=32"`
}

// Confirm records the payment against the invoice.
func (s *Service) Confirm(ctx context.Context, input ConfirmInput) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(input.Amount))
	if err != nil || !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive number").
			WithDetails(map[string]any{"amount": input.Amount})
	}
	fee := ""
	if strings.TrimSpace(input.Fee) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(input.Fee))
		if err != nil || parsed.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "fee must be a non-negative number")
		}
		fee = parsed.StringFixed(2)
	}
	err = s.gateway.AddInvoicePayment(ctx, hostbill.InvoicePayment{
		InvoiceID:     strings.TrimSpace(input.InvoiceID),
		Amount:        amount.StringFixed(2),
		PaymentModule: strings.TrimSpace(input.PaymentModule),
		TransactionID: strings.TrimSpace(input.TransactionID),
		Fee:           fee,
		Date:          time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "invoice_id", input.InvoiceID), "payments.confirmed")
	return nil
}
