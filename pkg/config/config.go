package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

const (
	AppEnvDev     = "dev"
	AppEnvStaging = "staging"
	AppEnvProd    = "prod"

	EnvAppEnv         = "VPS_APP_ENV"
	EnvHostBillURL    = "HOSTBILL_API_URL"
	EnvHostBillID     = "HOSTBILL_API_ID"
	EnvHostBillKey    = "HOSTBILL_API_KEY"
	EnvHostBillTLSOff = "HOSTBILL_INSECURE_TLS"
	EnvAdminSecret    = "VPS_ADMIN_JWT_SECRET"
)

type Config struct {
	App        AppConfig
	HostBill   HostBillConfig
	Storefront StorefrontConfig
	HTTP       HTTPConfig
	Redis      RedisConfig
	DB         DBConfig
	Admin      AdminConfig
}

// Load reads the environment and validates the billing credentials. Missing
// credentials are a configuration error and the caller must not serve traffic.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "parsing config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := c.HostBill.validate(c.App); err != nil {
		return err
	}
	return c.DB.validate()
}

// StorageConfig is the subset used by tools that only touch the journal.
type StorageConfig struct {
	App AppConfig
	DB  DBConfig
}

// LoadStorage reads the app and database settings without requiring billing
// credentials.
func LoadStorage() (*StorageConfig, error) {
	var cfg StorageConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "parsing config")
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAdmin reads only the admin token settings.
func LoadAdmin() (*AdminConfig, error) {
	var cfg AdminConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "parsing config")
	}
	if !cfg.Enabled() {
		return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "%s is required", EnvAdminSecret)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VPS_APP_ENV" required:"true"`
	Port         string `envconfig:"VPS_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"VPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HostBillConfig struct {
	APIURL          string        `envconfig:"HOSTBILL_API_URL"`
	APIID           string        `envconfig:"HOSTBILL_API_ID"`
	APIKey          string        `envconfig:"HOSTBILL_API_KEY"`
	ClientAreaURL   string        `envconfig:"HOSTBILL_CLIENT_AREA_URL"`
	Timeout         time.Duration `envconfig:"HOSTBILL_TIMEOUT" default:"30s"`
	InsecureTLS     bool          `envconfig:"HOSTBILL_INSECURE_TLS" default:"false"`
	BreakerFailures uint32        `envconfig:"HOSTBILL_BREAKER_FAILURES" default:"5"`
	BreakerCooldown time.Duration `envconfig:"HOSTBILL_BREAKER_COOLDOWN" default:"30s"`
}

func (h HostBillConfig) validate(app AppConfig) error {
	missing := []string{}
	if strings.TrimSpace(h.APIURL) == "" {
		missing = append(missing, EnvHostBillURL)
	}
	if strings.TrimSpace(h.APIID) == "" {
		missing = append(missing, EnvHostBillID)
	}
	if strings.TrimSpace(h.APIKey) == "" {
		missing = append(missing, EnvHostBillKey)
	}
	if len(missing) > 0 {
		return pkgerrors.Newf(pkgerrors.CodeConfiguration, "missing billing credentials: %s", strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}
	parsed, err := url.Parse(h.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return pkgerrors.Newf(pkgerrors.CodeConfiguration, "%s must be an absolute url", EnvHostBillURL)
	}
	if h.InsecureTLS && !app.IsDev() {
		return pkgerrors.Newf(pkgerrors.CodeConfiguration, "%s is only allowed when %s=%s", EnvHostBillTLSOff, EnvAppEnv, AppEnvDev)
	}
	return nil
}

// SkipTLSVerify reports whether certificate validation is disabled. It never is
// outside the dev environment.
func (h HostBillConfig) SkipTLSVerify(app AppConfig) bool {
	return h.InsecureTLS && app.IsDev()
}

// ClientArea returns the client area base url. When unset it is the scheme
// and host of the API url.
func (h HostBillConfig) ClientArea() string {
	if v := strings.TrimSpace(h.ClientAreaURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	parsed, err := url.Parse(h.APIURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

type StorefrontConfig struct {
	DefaultCurrency string `envconfig:"VPS_DEFAULT_CURRENCY" default:"CZK"`
	CatalogPath     string `envconfig:"VPS_CATALOG_PATH"`
	CookieDomain    string `envconfig:"VPS_COOKIE_DOMAIN"`
	CookieSecure    *bool  `envconfig:"VPS_COOKIE_SECURE"`
}

// SecureCookies defaults to true everywhere except dev.
func (s StorefrontConfig) SecureCookies(app AppConfig) bool {
	if s.CookieSecure != nil {
		return *s.CookieSecure
	}
	return !app.IsDev()
}

type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"VPS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimitWindow time.Duration `envconfig:"VPS_RATE_LIMIT_WINDOW" default:"15m"`
	RateLimitMax    int           `envconfig:"VPS_RATE_LIMIT_MAX" default:"100"`
	IdempotencyTTL  time.Duration `envconfig:"VPS_IDEMPOTENCY_TTL" default:"24h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VPS_REDIS_URL"`
	PoolSize     int           `envconfig:"VPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VPS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"VPS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN             string        `envconfig:"VPS_DB_DSN"`
	Driver          string        `envconfig:"VPS_DB_DRIVER" default:"postgres"`
	AutoMigrate     bool          `envconfig:"VPS_AUTO_MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"VPS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"VPS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"VPS_DB_CONN_MAX_LIFETIME" default:"1h"`
}

func (d DBConfig) validate() error {
	if d.DSN == "" {
		return nil
	}
	switch d.Driver {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return pkgerrors.Newf(pkgerrors.CodeConfiguration, "unsupported db driver %q", d.Driver)
	}
}

// Enabled reports whether the placement journal database is configured.
func (d DBConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type AdminConfig struct {
	JWTSecret string        `envconfig:"VPS_ADMIN_JWT_SECRET"`
	JWTIssuer string        `envconfig:"VPS_ADMIN_JWT_ISSUER" default:"vps-storefront"`
	TokenTTL  time.Duration `envconfig:"VPS_ADMIN_TOKEN_TTL" default:"1h"`
}

// Enabled reports whether admin endpoints should be mounted.
func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.JWTSecret) != ""
}

// Describe returns non-secret settings for startup logs.
func (c *Config) Describe() map[string]any {
	return map[string]any{
		"env":              c.App.Env,
		"hostbill_url":     c.HostBill.APIURL,
		"hostbill_timeout": c.HostBill.Timeout.String(),
		"insecure_tls":     c.HostBill.SkipTLSVerify(c.App),
		"currency":         c.Storefront.DefaultCurrency,
		"redis":            c.Redis.Enabled(),
		"journal":          c.DB.Enabled(),
		"admin":            c.Admin.Enabled(),
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("config(env=%s hostbill=%s)", c.App.Env, c.HostBill.APIURL)
}
