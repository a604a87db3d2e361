package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/servicenow-client/pkg/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Transport performs authenticated GET requests against the table API.
type Transport interface {
	// Get issues a GET for pathAndQuery (e.g. "/api/now/table/cmdb_ci?sysparm_limit=1").
	// A non-nil error means no response was received.
	Get(ctx context.Context, pathAndQuery string) (*Response, error)
}

// Response is a fully-read table API response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// OK reports whether the status is below 400.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode > 0 && r.StatusCode < http.StatusBadRequest
}

// Text returns the raw body.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// RaiseForStatus returns a classified *ServiceNowError for a non-success
// response and nil otherwise.
func (r *Response) RaiseForStatus() error {
	if r.OK() {
		return nil
	}
	return newStatusError(r, ErrorMessage(r))
}

// TransportConfig holds HTTP transport settings.
type TransportConfig struct {
	// Hostname is the instance host ("example.service-now.com"). A value with
	// a scheme ("http://127.0.0.1:8080") is used as the base URL unchanged.
	Hostname string

	Username string
	Password string

	UserAgent string

	// HTTP2 forces an HTTP/2-capable transport.
	HTTP2 bool

	// Timeout bounds a single HTTP call (default 60s).
	Timeout time.Duration

	// HTTPClient overrides the client built from the settings above.
	HTTPClient *http.Client
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPTransport creates an HTTPTransport.
func NewHTTPTransport(cfg TransportConfig) (*HTTPTransport, error) {
	if cfg.Hostname == "" {
		return nil, fmt.Errorf("hostname is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = buildHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	return &HTTPTransport{
		baseURL:    BaseURL(cfg.Hostname),
		username:   cfg.Username,
		password:   cfg.Password,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     logging.NewTransportLogger(),
	}, nil
}

// buildHTTPClient creates the default HTTP client, optionally HTTP/2-enabled.
func buildHTTPClient(cfg TransportConfig) (*http.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.HTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("configure http2 transport: %w", err)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// BaseURL returns the base URL for hostname.
func BaseURL(hostname string) string {
	hostname = strings.TrimSuffix(hostname, "/")
	if strings.HasPrefix(hostname, "http://") || strings.HasPrefix(hostname, "https://") {
		return hostname
	}
	return "https://" + hostname
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, pathAndQuery string) (*Response, error) {
	target := t.baseURL + requote(pathAndQuery)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	httpResp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error().Err(err).Str("request_id", requestID).Msg("HTTP request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, defaultMaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	t.logger.Debug().
		Str("request_id", requestID).
		Str("url", req.URL.Redacted()).
		Int("status", httpResp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("HTTP request completed")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Header:     httpResp.Header,
	}, nil
}

// requote percent-encodes bytes that may not appear in a request target
// (spaces, '^', quotes ...) while leaving existing escapes and reserved
// characters untouched, so pre-encoded queries pass through unchanged.
func requote(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if allowedInTarget(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func allowedInTarget(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!#$%&'()*+,/:;=?@[]", c) >= 0
}
