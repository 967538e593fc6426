package affiliates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	internalaffiliates "github.com/angelmondragon/vps-storefront/internal/affiliates"
	"github.com/angelmondragon/vps-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

type stubService struct {
	affiliateID string
	productID   string
	err         error
}

func (s *stubService) Validate(_ context.Context, affiliateID string) internalaffiliates.Validation {
	s.affiliateID = affiliateID
	return internalaffiliates.Validation{AffiliateID: affiliateID, Valid: affiliateID == "7"}
}

func (s *stubService) List(context.Context) ([]internalaffiliates.Affiliate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []internalaffiliates.Affiliate{{ID: "7", Status: "Active", Active: true}}, nil
}

func (s *stubService) CommissionPreview(_ context.Context, affiliateID, productID string) (*internalaffiliates.CommissionPreview, error) {
	s.affiliateID, s.productID = affiliateID, productID
	if s.err != nil {
		return nil, s.err
	}
	return &internalaffiliates.CommissionPreview{
		AffiliateID: affiliateID,
		ProductID:   productID,
		Commission:  catalog.Commission{HasCommission: true, Monthly: decimal.RequireFromString("49.90")},
	}, nil
}

func TestValidateReportsValidity(t *testing.T) {
	for _, tc := range []struct {
		id    string
		valid bool
	}{
		{id: "7", valid: true},
		{id: "8", valid: false},
	} {
		resp := httptest.NewRecorder()
		Validate(&stubService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/validate-affiliate?id="+tc.id, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
		var envelope struct {
			Data internalaffiliates.Validation `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if envelope.Data.Valid != tc.valid {
			t.Fatalf("id %s: expected valid=%v", tc.id, tc.valid)
		}
	}
}

func TestValidateRequiresID(t *testing.T) {
	resp := httptest.NewRecorder()
	Validate(&stubService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/validate-affiliate", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCommissionsReadsPathAndQuery(t *testing.T) {
	svc := &stubService{}
	router := chi.NewRouter()
	router.Get("/api/affiliates/{id}/commissions", Commissions(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/affiliates/7/commissions?product=vps-pro", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.affiliateID != "7" || svc.productID != "vps-pro" {
		t.Fatalf("unexpected args %q %q", svc.affiliateID, svc.productID)
	}
}

func TestCommissionsRequiresProduct(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/affiliates/{id}/commissions", Commissions(&stubService{}, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/affiliates/7/commissions", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListSurfacesBillingError(t *testing.T) {
	resp := httptest.NewRecorder()
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeUnavailable, "hostbill getAffiliates unreachable")}
	List(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/affiliates", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
