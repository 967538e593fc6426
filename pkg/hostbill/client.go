package hostbill

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/vps-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20
	userAgent       = "vps-storefront-middleware/1.0"
)

var (
	errEndpointRequired = errors.New("hostbill api url is required")
	errAPIIDRequired    = errors.New("hostbill api id is required")
	errAPIKeyRequired   = errors.New("hostbill api key is required")
	errLoggerRequired   = errors.New("hostbill logger is required")
)

// CallObserver receives one observation per billing call.
type CallObserver interface {
	ObserveBillingCall(method, outcome string, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	Endpoint           string
	APIID              string
	APIKey             string
	Timeout            time.Duration
	InsecureSkipVerify bool
	BreakerFailures    uint32
	BreakerCooldown    time.Duration
	HTTPClient         *http.Client
	Logger             *logger.Logger
	Observer           CallObserver
}

// Client is the single chokepoint for HostBill API calls. Every call carries the
// fixed credentials and the method name as a form-encoded POST.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiID      string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker[*Response]
	logger     *logger.Logger
	observer   CallObserver
}

// NewClientFromConfig builds a Client from the process configuration.
func NewClientFromConfig(ctx context.Context, cfg config.HostBillConfig, app config.AppConfig, logg *logger.Logger, observer CallObserver) (*Client, error) {
	return NewClient(ctx, Options{
		Endpoint:           cfg.APIURL,
		APIID:              cfg.APIID,
		APIKey:             cfg.APIKey,
		Timeout:            cfg.Timeout,
		InsecureSkipVerify: cfg.SkipTLSVerify(app),
		BreakerFailures:    cfg.BreakerFailures,
		BreakerCooldown:    cfg.BreakerCooldown,
		Logger:             logg,
		Observer:           observer,
	})
}

// NewClient validates credentials and prepares the HTTP transport.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Logger == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errLoggerRequired, "hostbill client")
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errEndpointRequired, "hostbill client")
	}
	if strings.TrimSpace(opts.APIID) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errAPIIDRequired, "hostbill client")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, errAPIKeyRequired, "hostbill client")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // dev-only, gated by config
		}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	c := &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiID:      strings.TrimSpace(opts.APIID),
		apiKey:     strings.TrimSpace(opts.APIKey),
		logger:     opts.Logger,
		observer:   opts.Observer,
	}
	if opts.BreakerFailures > 0 {
		c.breaker = newBreaker(opts.BreakerFailures, opts.BreakerCooldown, opts.Logger)
	}

	fields := map[string]any{"endpoint": endpoint, "breaker": c.breaker != nil}
	if opts.InsecureSkipVerify {
		fields["insecure_tls"] = true
		opts.Logger.Warn(opts.Logger.WithFields(ctx, fields), "hostbill client initialized without certificate validation")
	} else {
		opts.Logger.Info(opts.Logger.WithFields(ctx, fields), "hostbill client initialized")
	}
	return c, nil
}

func newBreaker(failures uint32, cooldown time.Duration, logg *logger.Logger) *gobreaker.CircuitBreaker[*Response] {
	return gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "hostbill",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Remote rejections mean the billing system is up.
		IsSuccessful: func(err error) bool {
			return err == nil || !pkgerrors.IsConnectivity(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "hostbill breaker state change")
		},
	})
}

// BreakerState reports the circuit breaker state for dashboards.
func (c *Client) BreakerState() string {
	if c == nil || c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

// Call issues a single API method. A body that is not JSON yields
// CodeInvalidResponse, an explicit success:false yields CodeRemoteCall, and
// transport failures yield CodeUnavailable or CodeTimeout. There are no retries.
func (c *Client) Call(ctx context.Context, method string, params url.Values) (*Response, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostbill method is required")
	}

	start := time.Now()
	resp, err := c.execute(ctx, method, params)
	c.observe(method, err, time.Since(start))
	return resp, err
}

func (c *Client) execute(ctx context.Context, method string, params url.Values) (*Response, error) {
	if c.breaker == nil {
		return c.do(ctx, method, params)
	}
	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.do(ctx, method, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log(ctx, "error", method, map[string]any{"error": err.Error(), "breaker": c.breaker.State().String()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, fmt.Sprintf("hostbill %s skipped", method)).
			WithDetails(map[string]any{"method": method, "breaker": "open"})
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, method string, params url.Values) (*Response, error) {
	form := url.Values{}
	for k, values := range params {
		for _, v := range values {
			form.Add(k, v)
		}
	}
	form.Set("api_id", c.apiID)
	form.Set("api_key", c.apiKey)
	form.Set("call", method)

	c.log(ctx, "request", method, valuesFields(params))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build hostbill %s request", method))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		mapped := mapTransportError(method, err)
		c.log(ctx, "error", method, map[string]any{"error": err.Error()})
		return nil, mapped
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		mapped := mapTransportError(method, err)
		c.log(ctx, "error", method, map[string]any{"error": err.Error()})
		return nil, mapped
	}

	resp, err := parseResponse(method, httpResp.StatusCode, body)
	if err != nil {
		c.log(ctx, "error", method, map[string]any{"error": err.Error(), "status": httpResp.StatusCode})
		return nil, err
	}

	c.log(ctx, "response", method, map[string]any{"status": httpResp.StatusCode})
	return resp, nil
}

func mapTransportError(method string, err error) error {
	details := map[string]any{"method": method}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		details["timeout"] = true
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, fmt.Sprintf("hostbill %s timed out", method)).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, fmt.Sprintf("hostbill %s unreachable", method)).WithDetails(details)
}

func (c *Client) observe(method string, err error, duration time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "success"
	if typed := pkgerrors.As(err); typed != nil {
		outcome = strings.ToLower(string(typed.Code()))
	} else if err != nil {
		outcome = "error"
	}
	c.observer.ObserveBillingCall(method, outcome, duration)
}

func (c *Client) log(ctx context.Context, phase, method string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"billing_method": method,
		"phase":          phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("hostbill %s", method), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("hostbill %s", phase))
	}
}

var sensitiveKeys = []string{"password", "api_key", "api_id", "email", "card", "token", "phone", "cvv"}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func valuesFields(params url.Values) map[string]any {
	fields := make(map[string]any, len(params))
	for k := range params {
		fields["param."+k] = params.Get(k)
	}
	return fields
}
