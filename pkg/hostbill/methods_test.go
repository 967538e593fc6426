package hostbill

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

func TestAddOrderNormalizesNestedData(t *testing.T) {
	cases := map[string]string{
		"top-level order_id": `{"success":true,"order_id":"55","invoice_id":"90"}`,
		"plain id":           `{"success":true,"id":55,"invoice_id":90}`,
		"nested data":        `{"success":true,"data":{"order_id":55,"invoice_id":"90"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeHostBill{handler: respond(body)}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			created, err := newTestClient(t, srv, nil).AddOrder(context.Background(), OrderRequest{
				ClientID:      "7",
				ProductID:     "12",
				Cycle:         "m",
				Quantity:      2,
				ConfigOptions: map[string]string{"config_option_os": "ubuntu"},
				Addons:        []string{"3"},
			})
			if err != nil {
				t.Fatalf("add order: %v", err)
			}
			if created.OrderID != "55" || created.InvoiceID != "90" {
				t.Fatalf("unexpected result %+v", created)
			}
			form := fake.last().form
			for key, want := range map[string]string{
				"client_id":        "7",
				"product":          "12",
				"cycle":            "m",
				"confirm":          "1",
				"invoice_generate": "1",
				"quantity":         "2",
				"config_option_os": "ubuntu",
				"addon[3]":         "1",
			} {
				if form.Get(key) != want {
					t.Fatalf("form %s=%q, want %q", key, form.Get(key), want)
				}
			}
		})
	}
}

func TestAddOrderWithoutIDIsInvalidResponse(t *testing.T) {
	fake := &fakeHostBill{handler: respond(`{"success":true}`)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).AddOrder(context.Background(), OrderRequest{ClientID: "1", ProductID: "2"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}
}

func TestGetClientsAcceptsKeyedObject(t *testing.T) {
	fake := &fakeHostBill{handler: respond(`{"success":true,"clients":{"10":{"email":"b@x.cz"},"2":{"id":"2","email":"a@x.cz"}}}`)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	clients, err := newTestClient(t, srv, nil).GetClients(context.Background(), ClientFilter{Email: "a@x.cz"})
	if err != nil {
		t.Fatalf("get clients: %v", err)
	}
	if len(clients) != 2 || clients[0].ID != "2" || clients[1].ID != "10" {
		t.Fatalf("unexpected clients %+v", clients)
	}
	if fake.last().form.Get("filter[email]") != "a@x.cz" {
		t.Fatalf("expected email filter")
	}
}

func TestGetPaymentModulesShapes(t *testing.T) {
	cases := map[string]string{
		"id to name": `{"success":true,"modules":{"4":"PayPal","1":"Stripe"}}`,
		"list":       `{"success":true,"modules":[{"id":"1","modname":"Stripe"},{"id":4,"modname":"PayPal"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeHostBill{handler: respond(body)}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			modules, err := newTestClient(t, srv, nil).GetPaymentModules(context.Background())
			if err != nil {
				t.Fatalf("modules: %v", err)
			}
			if len(modules) != 2 || modules[0].ID != "1" || modules[0].Name != "Stripe" || modules[1].Name != "PayPal" {
				t.Fatalf("unexpected modules %+v", modules)
			}
		})
	}
}

func TestGetAffiliateMissingIsNotFound(t *testing.T) {
	fake := &fakeHostBill{handler: respond(`{"success":true}`)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).GetAffiliate(context.Background(), "9")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetOrderDetailsFallsBackToOrderKey(t *testing.T) {
	fake := &fakeHostBill{handler: respond(`{"success":true,"order":{"number":"2024-0001"}}`)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	details, err := newTestClient(t, srv, nil).GetOrderDetails(context.Background(), "55")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.ID != "55" || details.Number != "2024-0001" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestSetOrderReferrerSendsOrderScope(t *testing.T) {
	fake := &fakeHostBill{handler: func(w http.ResponseWriter, _ string, _ url.Values) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	if err := newTestClient(t, srv, nil).SetOrderReferrer(context.Background(), "55", "7"); err != nil {
		t.Fatalf("set referrer: %v", err)
	}
	form := fake.last().form
	if form.Get("id") != "55" || form.Get("referral") != "7" {
		t.Fatalf("unexpected form %v", form)
	}
}

func TestAddClientSendsConfirmedPassword(t *testing.T) {
	fake := &fakeHostBill{handler: respond(`{"success":true,"client_id":31}`)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	id, err := newTestClient(t, srv, nil).AddClient(context.Background(), ClientInput{
		Email:     "a@x.cz",
		Password:  "s3cret",
		FirstName: "Jana",
		Currency:  "CZK",
	})
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if id != "31" {
		t.Fatalf("expected client id 31 got %q", id)
	}
	form := fake.last().form
	if form.Get("password") != "s3cret" || form.Get("password2") != "s3cret" {
		t.Fatalf("expected password and confirmation, got %v", form)
	}
	if form.Get("call") != MethodAddClient || form.Get("companyname") != "" {
		t.Fatalf("unexpected form %v", form)
	}
}
