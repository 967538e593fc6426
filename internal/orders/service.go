package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/vps-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/hostbill"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

// ServiceParams groups dependencies for the order orchestrator.
type ServiceParams struct {
	Gateway         Gateway
	Catalog         Catalog
	Journal         Journal
	Observer        PlacementObserver
	Logger          *logger.Logger
	DefaultCurrency string
	Passwords       PasswordGenerator
}

// Service places storefront orders against the billing system. Items are
// ordered sequentially with independent failure domains and nothing is rolled
// back: the billing system stays the source of truth.
type Service struct {
	gateway   Gateway
	catalog   Catalog
	journal   Journal
	observer  PlacementObserver
	logg      *logger.Logger
	currency  string
	passwords PasswordGenerator
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, errors.New("billing gateway required")
	}
	if params.Catalog == nil {
		return nil, errors.New("catalog required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	passwords := params.Passwords
	if passwords == nil {
		passwords = GeneratePassword
	}
	return &Service{
		gateway:   params.Gateway,
		catalog:   params.Catalog,
		journal:   params.Journal,
		observer:  params.Observer,
		logg:      params.Logger,
		currency:  strings.TrimSpace(params.DefaultCurrency),
		passwords: passwords,
	}, nil
}

// PlaceOrder resolves the client, creates one billing order per item and
// assigns the affiliate to every created order. The result is a success when
// at least one item was ordered. The placement runs to completion even when
// ctx is cancelled by a disconnecting caller.
func (s *Service) PlaceOrder(ctx context.Context, customer Customer, items []LineItem, affiliateID string) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	placementID := uuid.New()
	affiliateID = strings.TrimSpace(affiliateID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"placement_id": placementID.String(),
		"items":        len(items),
	})
	if affiliateID != "" {
		ctx = s.logg.WithAffiliateID(ctx, affiliateID)
	}

	result := &Result{
		PlacementID: placementID.String(),
		AffiliateID: affiliateID,
		Steps:       make([]StepResult, 0, len(items)),
	}

	clientID, created, err := s.resolveClient(ctx, customer)
	if err != nil {
		s.logg.Error(ctx, "order.client_resolution_failed", err)
		s.record(ctx, newPlacement(placementID, customer, affiliateID, items, result, err))
		return nil, err
	}
	result.ClientID = clientID
	result.ClientCreated = created
	ctx = s.logg.WithClientID(ctx, clientID)

	var failures error
	for i, item := range items {
		step := s.placeItem(ctx, clientID, i+1, item)
		if step.Status == StepSuccess {
			result.Succeeded++
		} else {
			result.Failed++
			failures = multierr.Append(failures, fmt.Errorf("item %d (%s): %s", step.Position, step.ProductID, step.Error))
		}
		result.Steps = append(result.Steps, step)
	}

	if affiliateID != "" && result.Succeeded > 0 {
		for i := range result.Steps {
			step := &result.Steps[i]
			if step.Status != StepSuccess {
				continue
			}
			if err := s.gateway.SetOrderReferrer(ctx, step.OrderID, affiliateID); err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"order_id": step.OrderID,
					"error":    err.Error(),
				}), "order.referrer_failed")
				continue
			}
			step.ReferrerAssigned = true
		}
	}

	result.Success = result.Succeeded > 0
	summary := s.logg.WithFields(ctx, map[string]any{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"outcome":   result.Outcome(),
	})
	switch {
	case failures == nil:
		s.logg.Info(summary, "order.placed")
	case result.Success:
		s.logg.Warn(s.logg.WithField(summary, "failures", errorStrings(failures)), "order.partially_placed")
	default:
		s.logg.Error(summary, "order.placement_failed", failures)
	}

	s.record(ctx, newPlacement(placementID, customer, affiliateID, items, result, nil))
	return result, nil
}

func (s *Service) resolveClient(ctx context.Context, customer Customer) (string, bool, error) {
	email := strings.TrimSpace(customer.Email)
	if email == "" {
		return "", false, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}

	existing, err := s.gateway.GetClients(ctx, hostbill.ClientFilter{Email: email})
	if err != nil {
		return "", false, err
	}
	for _, c := range existing {
		if strings.EqualFold(strings.TrimSpace(c.Email.String()), email) && c.ID != "" {
			return c.ID.String(), false, nil
		}
	}

	password, err := s.passwords()
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate client password")
	}
	clientID, err := s.gateway.AddClient(ctx, hostbill.ClientInput{
		Email:       email,
		Password:    password,
		FirstName:   customer.FirstName,
		LastName:    customer.LastName,
		CompanyName: customer.Company,
		Phone:       customer.Phone,
		Address1:    customer.Address,
		City:        customer.City,
		PostCode:    customer.PostCode,
		Country:     customer.Country,
		Currency:    s.currency,
	})
	if err != nil {
		return "", false, err
	}
	s.logg.Info(s.logg.WithClientID(ctx, clientID), "order.client_created")
	return clientID, true, nil
}

func (s *Service) placeItem(ctx context.Context, clientID string, position int, item LineItem) StepResult {
	step := StepResult{Position: position, ProductID: strings.TrimSpace(item.ProductID)}

	req, err := s.orderRequest(clientID, item)
	if err != nil {
		return fail(step, err)
	}
	step.BillingProductID = req.ProductID

	created, err := s.gateway.AddOrder(ctx, req)
	if err != nil {
		return fail(step, err)
	}
	step.Status = StepSuccess
	step.OrderID = created.OrderID
	step.InvoiceID = created.InvoiceID
	step.OrderNumber = created.Number

	details, err := s.gateway.GetOrderDetails(ctx, created.OrderID)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id": created.OrderID,
			"error":    err.Error(),
		}), "order.number_lookup_failed")
	} else {
		if details.Number != "" {
			step.OrderNumber = details.Number.String()
		}
		if step.InvoiceID == "" {
			step.InvoiceID = details.InvoiceID.String()
		}
	}
	if step.OrderNumber == "" {
		step.OrderNumber = step.OrderID
	}
	return step
}

func (s *Service) orderRequest(clientID string, item LineItem) (hostbill.OrderRequest, error) {
	product, err := s.catalog.Product(item.ProductID)
	if err != nil {
		return hostbill.OrderRequest{}, err
	}
	cycle, err := catalog.ParseCycle(item.Cycle)
	if err != nil {
		return hostbill.OrderRequest{}, err
	}

	options := make(map[string]string, len(item.ConfigOptions))
	for key, value := range item.ConfigOptions {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if !product.ConfigOptionAllowed(key, value) {
			return hostbill.OrderRequest{}, pkgerrors.Newf(pkgerrors.CodeValidation, "option %s does not accept %q", key, value).
				WithDetails(map[string]any{"option": key, "value": value})
		}
		options[catalog.ConfigOptionKey(key)] = value
	}

	addons := make([]string, 0, len(item.Addons))
	for _, addonID := range item.Addons {
		billingID, err := s.catalog.AddonBillingID(product.ID, addonID)
		if err != nil {
			return hostbill.OrderRequest{}, err
		}
		addons = append(addons, billingID)
	}

	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return hostbill.OrderRequest{
		ClientID:      clientID,
		ProductID:     product.BillingID,
		Cycle:         cycle.BillingCode(),
		Quantity:      quantity,
		ConfigOptions: options,
		Addons:        addons,
		PaymentModule: item.PaymentModule,
		Domain:        item.Domain,
	}, nil
}

func fail(step StepResult, err error) StepResult {
	step.Status = StepError
	step.Error = err.Error()
	if typed := pkgerrors.As(err); typed != nil {
		step.ErrorCode = string(typed.Code())
		step.Error = typed.Message()
	}
	return step
}

func (s *Service) record(ctx context.Context, placement *Placement) {
	if s.observer != nil {
		s.observer.ObservePlacement(placement.Outcome)
	}
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, placement); err != nil {
		s.logg.Error(ctx, "order.journal_failed", err)
	}
}

// ListOrders returns billing orders, optionally for one client.
func (s *Service) ListOrders(ctx context.Context, clientID string) ([]OrderSummary, error) {
	records, err := s.gateway.GetOrders(ctx, hostbill.OrderFilter{ClientID: strings.TrimSpace(clientID)})
	if err != nil {
		return nil, err
	}
	out := make([]OrderSummary, 0, len(records))
	for _, r := range records {
		out = append(out, OrderSummary{
			ID:        r.ID.String(),
			Number:    r.Number.String(),
			ClientID:  r.ClientID.String(),
			InvoiceID: r.InvoiceID.String(),
			Status:    r.Status.String(),
			Total:     r.Total.String(),
			CreatedAt: r.DateCreated.String(),
		})
	}
	return out, nil
}

func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
