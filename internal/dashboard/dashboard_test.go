package dashboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/vps-storefront/pkg/metrics"
)

type stubSnapshot struct {
	snap metrics.Snapshot
	err  error
}

func (s stubSnapshot) Snapshot() (metrics.Snapshot, error) { return s.snap, s.err }

type stubBreaker string

func (s stubBreaker) BreakerState() string { return string(s) }

type stubCatalog int

func (s stubCatalog) Size() int { return int(s) }

func TestCollectSummarizesSources(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	status, err := Collect(context.Background(), Sources{
		Service: "vps-storefront",
		Env:     "dev",
		Metrics: stubSnapshot{snap: metrics.Snapshot{
			Requests:     200,
			ServerErrors: 5,
			BillingCalls: 40,
			Placements:   map[string]float64{"success": 3, "partial": 1},
			Uptime:       90*time.Second + 300*time.Millisecond,
		}},
		Breaker: stubBreaker("closed"),
		Catalog: stubCatalog(4),
		Now:     func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status.ErrorRate() != 2.5 {
		t.Fatalf("expected 2.5%% error rate, got %v", status.ErrorRate())
	}
	if status.Uptime != 90*time.Second {
		t.Fatalf("expected uptime truncated to seconds, got %v", status.Uptime)
	}
	if len(status.Placements) != 2 || status.Placements[0].Label != "partial" {
		t.Fatalf("expected placements sorted by label, got %+v", status.Placements)
	}
	if status.BreakerState != "closed" || status.CatalogSize != 4 || !status.GeneratedAt.Equal(fixed) {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestCollectWithoutSources(t *testing.T) {
	status, err := Collect(context.Background(), Sources{Service: "vps-storefront"})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if status.BreakerState != "unknown" || status.ErrorRate() != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestCollectReturnsSnapshotError(t *testing.T) {
	_, err := Collect(context.Background(), Sources{Metrics: stubSnapshot{err: errors.New("gather failed")}})
	if err == nil {
		t.Fatal("expected snapshot error")
	}
}

func TestHTMLRendererEscapesAndFormats(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	var buf bytes.Buffer
	err = renderer.Render(&buf, Status{
		Service:      "<script>",
		Env:          "prod",
		Requests:     10,
		ServerErrors: 1,
		BreakerState: "open",
		Placements:   []Counter{{Label: "failed", Value: 2}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := buf.String()
	if strings.Contains(page, "<script>") {
		t.Fatal("service name must be escaped")
	}
	for _, want := range []string{"10.00 %", `class="state-open"`, "<th>failed</th><td>2</td>"} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
	if renderer.ContentType() != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", renderer.ContentType())
	}
}
