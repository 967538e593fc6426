package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	internalpayments "github.com/angelmondragon/vps-storefront/internal/payments"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

type stubService struct {
	initialized internalpayments.InitializeInput
	confirmed   internalpayments.ConfirmInput
	err         error
}

func (s *stubService) ListActiveGateways(context.Context) []internalpayments.GatewayInfo {
	return []internalpayments.GatewayInfo{{ID: "card", Name: "Card", Source: internalpayments.SourceFallback}}
}

func (s *stubService) Initialize(_ context.Context, input internalpayments.InitializeInput) (*internalpayments.Initialization, error) {
	s.initialized = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalpayments.Initialization{InvoiceID: input.InvoiceID, Method: input.Method, Status: internalpayments.StatusRedirect, PaymentURL: "https://billing.example.cz/index.php"}, nil
}

func (s *stubService) Confirm(_ context.Context, input internalpayments.ConfirmInput) error {
	s.confirmed = input
	return s.err
}

func TestMethodsListsGateways(t *testing.T) {
	resp := httptest.NewRecorder()
	Methods(&stubService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/payments/methods", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"methods"`) {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}

func TestModulesListsGateways(t *testing.T) {
	resp := httptest.NewRecorder()
	Modules(&stubService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/hostbill/payment-modules", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"modules"`) {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}

func TestInitializeDecodesPayload(t *testing.T) {
	svc := &stubService{}
	body := `{"invoiceId":"900","method":"paypal"}`
	resp := httptest.NewRecorder()
	Initialize(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/payments/initialize", strings.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.initialized.InvoiceID != "900" || svc.initialized.Method != "paypal" {
		t.Fatalf("unexpected input %+v", svc.initialized)
	}
	if !strings.Contains(resp.Body.String(), `"paymentUrl"`) {
		t.Fatalf("expected payment url in %s", resp.Body.String())
	}
}

func TestInitializeRequiresMethod(t *testing.T) {
	svc := &stubService{}
	resp := httptest.NewRecorder()
	Initialize(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"invoiceId":"900"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestConfirmSurfacesRemoteRejection(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeRemoteCall, "Invoice not found")}
	body := `{"invoiceId":"900","amount":"499.00","paymentModule":"banktransfer"}`
	resp := httptest.NewRecorder()
	Confirm(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/payments/confirm", strings.NewReader(body)))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
	if svc.confirmed.Amount != "499.00" {
		t.Fatalf("unexpected input %+v", svc.confirmed)
	}
	if !strings.Contains(resp.Body.String(), "Invoice not found") {
		t.Fatalf("expected remote message in %s", resp.Body.String())
	}
}
