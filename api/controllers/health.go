package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/vps-storefront/api/responses"
	"github.com/angelmondragon/vps-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is a dependency that can be health checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ReadinessChecks lists the dependencies probed by HealthReady. Nil checks
// are reported as disabled. Billing is reported but never fails readiness.
type ReadinessChecks struct {
	DB      Pinger
	Redis   Pinger
	Billing Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VPS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ReadinessChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VPS-Env", cfg.App.Env)

		status := map[string]string{}
		var failed error
		for _, check := range []struct {
			name     string
			pinger   Pinger
			required bool
		}{
			{name: "db", pinger: checks.DB, required: true},
			{name: "redis", pinger: checks.Redis, required: true},
			{name: "billing", pinger: checks.Billing},
		} {
			if check.pinger == nil {
				status[check.name] = "disabled"
				continue
			}
			err := ping(r.Context(), check.pinger)
			if err == nil {
				status[check.name] = "ok"
				continue
			}
			status[check.name] = err.Error()
			if check.required {
				failed = multierr.Append(failed, fmt.Errorf("%s: %w", check.name, err))
			} else if logg != nil {
				logg.Warn(logg.WithFields(r.Context(), map[string]any{"check": check.name, "error": err.Error()}), "health.degraded")
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "dependencies unavailable").
				WithDetails(map[string]any{"checks": status}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	return p.Ping(ctx)
}
