// Package browserless is the outbound client for the Browserless rendering
// service. It turns typed options into the service's JSON contract, performs
// one POST per render and returns the raw payload or an *UpstreamError.
package browserless

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"

	"browserless-relay/internal/domain"
	"browserless-relay/internal/infra/metrics"
)

const (
	DefaultBaseURL          = "https://chrome.browserless.io"
	DefaultTimeout          = 60 * time.Second
	DefaultMaxResponseBytes = 10 << 20

	// upstream error bodies are kept for logging only
	maxErrorBodyBytes = 2048
)

// Config holds the settings of a Client. It is read once at construction.
type Config struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	MaxResponseBytes int
}

// Client issues render calls. It is immutable after NewClient and safe for
// concurrent use.
type Client struct {
	base    *url.URL
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

// UpstreamError describes a failed render call. StatusCode is zero when no
// response was received.
type UpstreamError struct {
	Kind       domain.Kind
	TargetURL  string
	StatusCode int
	Body       string
	Err        error // one of the domain.ErrUpstream* / ErrResponseTooLarge sentinels
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %v: status %d", e.Kind, e.TargetURL, e.Err, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Kind, e.TargetURL, e.Err, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.TargetURL, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// NewClient validates cfg and builds a Client. Zero values fall back to the
// package defaults; the token is mandatory.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("browserless: token is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("browserless: parse base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("browserless: base url must be http or https, got %q", cfg.BaseURL)
	}

	return &Client{
		base:    base,
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http: &fasthttp.Client{
			Name:                "browserless-relay",
			MaxResponseBodySize: cfg.MaxResponseBytes,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}, nil
}

// Screenshot renders target as a PNG image.
func (c *Client) Screenshot(ctx context.Context, target string, opts ScreenshotOptions) ([]byte, error) {
	return c.render(ctx, domain.KindScreenshot, target, buildScreenshotRequest(target, opts))
}

// PDF renders target as a PDF document.
func (c *Client) PDF(ctx context.Context, target string, opts PDFOptions) ([]byte, error) {
	return c.render(ctx, domain.KindPDF, target, buildPDFRequest(target, opts))
}

func (c *Client) endpoint(kind domain.Kind) string {
	u := *c.base
	u.Path = path.Join("/", u.Path, string(kind))
	q := url.Values{}
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String()
}

// budget is the configured timeout, shortened to the context deadline if sooner.
func (c *Client) budget(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func (c *Client) render(ctx context.Context, kind domain.Kind, target string, payload renderRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("browserless: encode %s request: %w", kind, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint(kind))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	start := time.Now()
	err = c.http.DoTimeout(req, resp, c.budget(ctx))
	elapsed := time.Since(start)

	if err != nil {
		outcome, sentinel := classifyTransportError(err)
		metrics.ObserveRenderCall(string(kind), outcome, elapsed, 0)
		return nil, &UpstreamError{
			Kind:      kind,
			TargetURL: target,
			Err:       sentinel,
			Cause:     err,
		}
	}

	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		metrics.ObserveRenderCall(string(kind), metrics.OutcomeStatus, elapsed, 0)
		return nil, &UpstreamError{
			Kind:       kind,
			TargetURL:  target,
			StatusCode: status,
			Body:       truncate(resp.Body(), maxErrorBodyBytes),
			Err:        domain.ErrUpstreamStatus,
		}
	}

	// resp is returned to the pool on exit
	out := append([]byte(nil), resp.Body()...)
	metrics.ObserveRenderCall(string(kind), metrics.OutcomeOK, elapsed, len(out))
	return out, nil
}

// classifyTransportError maps a failed exchange to a metrics outcome and the
// matching domain sentinel.
func classifyTransportError(err error) (string, error) {
	var netErr net.Error
	switch {
	case errors.Is(err, fasthttp.ErrBodyTooLarge):
		return metrics.OutcomeTooLarge, domain.ErrResponseTooLarge
	case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, fasthttp.ErrDialTimeout),
		errors.As(err, &netErr) && netErr.Timeout():
		return metrics.OutcomeTimeout, domain.ErrUpstreamTimeout
	default:
		return metrics.OutcomeTransport, domain.ErrUpstreamTransport
	}
}

// truncate cuts b to at most limit bytes without splitting a UTF-8 sequence.
func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "..."
}
