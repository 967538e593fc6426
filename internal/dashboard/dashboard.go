// Package dashboard renders the operational status page. Handlers build a
// Status from injected collaborators and hand it to a Renderer.
package dashboard

import (
	"context"
	"embed"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/angelmondragon/vps-storefront/pkg/metrics"
)

//go:embed templates/*.html
var templates embed.FS

// Renderer writes a status page.
type Renderer interface {
	ContentType() string
	Render(w io.Writer, status Status) error
}

// Counter is one labelled value on the page.
type Counter struct {
	Label string
	Value float64
}

// Status is everything the page shows.
type Status struct {
	Service         string
	Env             string
	GeneratedAt     time.Time
	Uptime          time.Duration
	Requests        float64
	ClientErrors    float64
	ServerErrors    float64
	BillingCalls    float64
	BillingFailures float64
	BreakerState    string
	CatalogSize     int
	Placements      []Counter
}

// ErrorRate is the share of requests that ended with a 5xx.
func (s Status) ErrorRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return s.ServerErrors / s.Requests * 100
}

// SnapshotSource reads the request and billing counters.
type SnapshotSource interface {
	Snapshot() (metrics.Snapshot, error)
}

// BreakerReporter exposes the billing circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// CatalogSizer reports the number of mapped products.
type CatalogSizer interface {
	Size() int
}

// Sources are the collaborators a Status is collected from. Nil sources are
// left out of the page.
type Sources struct {
	Service string
	Env     string
	Metrics SnapshotSource
	Breaker BreakerReporter
	Catalog CatalogSizer
	Now     func() time.Time
}

// Collect builds a Status from the sources.
func Collect(_ context.Context, src Sources) (Status, error) {
	now := time.Now
	if src.Now != nil {
		now = src.Now
	}
	status := Status{
		Service:      src.Service,
		Env:          src.Env,
		GeneratedAt:  now().UTC(),
		BreakerState: "unknown",
	}
	if src.Metrics != nil {
		snap, err := src.Metrics.Snapshot()
		if err != nil {
			return status, err
		}
		status.Uptime = snap.Uptime.Truncate(time.Second)
		status.Requests = snap.Requests
		status.ClientErrors = snap.ClientErrors
		status.ServerErrors = snap.ServerErrors
		status.BillingCalls = snap.BillingCalls
		status.BillingFailures = snap.BillingFailures
		for label, value := range snap.Placements {
			status.Placements = append(status.Placements, Counter{Label: label, Value: value})
		}
		sort.Slice(status.Placements, func(i, j int) bool {
			return status.Placements[i].Label < status.Placements[j].Label
		})
	}
	if src.Breaker != nil {
		status.BreakerState = src.Breaker.BreakerState()
	}
	if src.Catalog != nil {
		status.CatalogSize = src.Catalog.Size()
	}
	return status, nil
}

// HTMLRenderer renders the embedded html/template page.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("status.html").Funcs(template.FuncMap{
		"count":   formatCount,
		"percent": formatPercent,
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *HTMLRenderer) Render(w io.Writer, status Status) error {
	return r.tmpl.ExecuteTemplate(w, "status.html", status)
}
