package config

import (
	"os"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.HostBill.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout 30s, got %v", cfg.HostBill.Timeout)
	}
	if cfg.Storefront.DefaultCurrency != "CZK" {
		t.Fatalf("unexpected default currency %q", cfg.Storefront.DefaultCurrency)
	}
	if cfg.HostBill.SkipTLSVerify(cfg.App) {
		t.Fatal("tls verification must stay on by default")
	}
	if !cfg.Storefront.SecureCookies(cfg.App) {
		t.Fatal("cookies should be secure outside dev")
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Fatalf("unexpected default origins %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoad_MissingCredentialsIsConfigurationError(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvHostBillKey); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvHostBillKey, err)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("expected missing credentials to return an error")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoad_InsecureTLSRejectedOutsideDev(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvHostBillTLSOff, "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected insecure tls to be rejected in prod")
	}

	t.Setenv(EnvAppEnv, AppEnvDev)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("dev should allow insecure tls: %v", err)
	}
	if !cfg.HostBill.SkipTLSVerify(cfg.App) {
		t.Fatal("expected tls verification disabled in dev when requested")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("VPS_DB_DSN", "whatever")
	t.Setenv("VPS_DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvHostBillURL, "https://billing.example.com/admin/api.php")
	t.Setenv(EnvHostBillID, "api-id")
	t.Setenv(EnvHostBillKey, "api-key")
}

func TestClientAreaDerivedFromAPIURL(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if got := cfg.HostBill.ClientArea(); got != "https://billing.example.com" {
		t.Fatalf("unexpected client area %q", got)
	}

	t.Setenv("HOSTBILL_CLIENT_AREA_URL", "https://my.example.com/")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if got := cfg.HostBill.ClientArea(); got != "https://my.example.com" {
		t.Fatalf("unexpected client area %q", got)
	}
}

func TestLoadStorage_IgnoresBillingCredentials(t *testing.T) {
	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvHostBillURL, "")
	t.Setenv("VPS_DB_DSN", "file:journal.db")
	t.Setenv("VPS_DB_DRIVER", "sqlite")

	cfg, err := LoadStorage()
	if err != nil {
		t.Fatalf("LoadStorage() returned unexpected error: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite || !cfg.DB.Enabled() {
		t.Fatalf("unexpected db config %+v", cfg.DB)
	}
}

func TestLoadAdmin_RequiresSecret(t *testing.T) {
	t.Setenv(EnvAdminSecret, "")
	_, err := LoadAdmin()
	if !pkgerrors.IsCode(err, pkgerrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	t.Setenv(EnvAdminSecret, "secret")
	t.Setenv("VPS_ADMIN_TOKEN_TTL", "15m")
	cfg, err := LoadAdmin()
	if err != nil {
		t.Fatalf("LoadAdmin() returned unexpected error: %v", err)
	}
	if cfg.TokenTTL != 15*time.Minute || cfg.JWTIssuer != "vps-storefront" {
		t.Fatalf("unexpected admin config %+v", cfg)
	}
}
