package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecorderExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)
	rec.ObserveRequest("GET", "/api/cart", 200, 10*time.Millisecond)
	rec.ObserveRequest("POST", "/api/cart/checkout", 502, 10*time.Millisecond)
	rec.ObserveBillingCall("addOrder", "success", 100*time.Millisecond)
	rec.ObserveBillingCall("addOrder", "billing_timeout", time.Second)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "vps_storefront_billing_calls_total", "outcome", "billing_timeout")
	if err != nil {
		t.Fatalf("fetch billing calls: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1 timeout, got %f", got)
	}
}

func TestSnapshotSummarizes(t *testing.T) {
	rec := New(prometheus.NewRegistry())
	rec.ObserveRequest("GET", "/a", 200, time.Millisecond)
	rec.ObserveRequest("GET", "/a", 404, time.Millisecond)
	rec.ObserveRequest("GET", "/a", 503, time.Millisecond)
	rec.ObserveBillingCall("getOrders", "success", time.Millisecond)
	rec.ObserveBillingCall("getOrders", "billing_unavailable", time.Millisecond)
	rec.ObservePlacement("partial")

	snap, err := rec.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Requests != 3 || snap.ClientErrors != 1 || snap.ServerErrors != 1 {
		t.Fatalf("unexpected request totals %+v", snap)
	}
	if snap.BillingCalls != 2 || snap.BillingFailures != 1 || snap.Placements["partial"] != 1 {
		t.Fatalf("unexpected billing totals %+v", snap)
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())
	a.ObserveRequest("GET", "/", 200, time.Millisecond)

	snap, _ := b.Snapshot()
	if snap.Requests != 0 {
		t.Fatalf("recorders must not share state, got %f", snap.Requests)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	rec := New(prometheus.NewRegistry())
	rec.ObservePlacement("success")

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), `vps_storefront_order_placements_total{outcome="success"} 1`) {
		t.Fatalf("unexpected metrics body:\n%s", body)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelValue(metric, label) == value {
				return metric.GetCounter().GetValue(), nil
			}
		}
		return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return 0, fmt.Errorf("metric %q not found", name)
}
