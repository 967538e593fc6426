package clientstate

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

type payload struct {
	ID string `json:"id"`
}

func TestCookieStoreRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	store := NewCookieStore(rec, req, CookieOptions{Secure: true})

	if err := SetJSON(store, "hb_affiliate", payload{ID: "7"}, 30*24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	var same payload
	if !GetJSON(store, "hb_affiliate", &same) || same.ID != "7" {
		t.Fatalf("write must be visible in the same request, got %+v", same)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.SameSite != http.SameSiteLaxMode || !c.Secure || c.MaxAge != 30*24*3600 {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(c)
	var restored payload
	if !GetJSON(NewCookieStore(httptest.NewRecorder(), next, CookieOptions{}), "hb_affiliate", &restored) || restored.ID != "7" {
		t.Fatalf("expected value from cookie, got %+v", restored)
	}
}

func TestCookieStoreDelete(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "e30"})
	rec := httptest.NewRecorder()
	store := NewCookieStore(rec, req, CookieOptions{})

	if _, ok := store.Get("cart"); !ok {
		t.Fatalf("expected cookie value")
	}
	store.Delete("cart")
	if _, ok := store.Get("cart"); ok {
		t.Fatalf("deleted value must not be read back")
	}
	if got := rec.Header().Get("Set-Cookie"); !strings.Contains(got, "Max-Age=0") {
		t.Fatalf("expected expiring cookie, got %q", got)
	}
}

func TestCookieStoreRejectsOversizedValues(t *testing.T) {
	store := NewCookieStore(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), CookieOptions{})
	err := store.Set("cart", []byte(strings.Repeat("x", MaxValueSize)), time.Hour)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCookieStoreIgnoresGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "%%%"})
	var p payload
	if GetJSON(NewCookieStore(httptest.NewRecorder(), req, CookieOptions{}), "cart", &p) {
		t.Fatalf("garbage cookie must read as absent")
	}
}
