// Package client provides the ServiceNOW table API client with response
// classification, retry of cancelled transactions, and pagination.
package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/servicenow-client/pkg/filter"
	"github.com/Sternrassler/servicenow-client/pkg/logging"
	"github.com/Sternrassler/servicenow-client/pkg/pagination"
	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/rs/zerolog"
)

// Client is the main ServiceNOW client.
type Client struct {
	transport Transport
	paginator *pagination.Paginator
	config    Config
	logger    zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Hostname, Username and Password are resolved through
	// ResolveCredentials: empty values fall back to SERVICENOW_H,
	// SERVICENOW_U and SERVICENOW_P, then DefaultHostname.
	Hostname string
	Username string
	Password string

	// User-Agent header
	UserAgent string

	// HTTP
	HTTP2   bool
	Timeout time.Duration

	// Retry applies to "maximum execution time exceeded" failures only
	Retry RetryConfig

	// HTTPClient overrides the HTTP client (for testing).
	HTTPClient *http.Client

	// Transport overrides the HTTP transport entirely.
	Transport Transport
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent: "servicenow-client/1.0",
		Timeout:   defaultHTTPTimeout,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new ServiceNOW client.
func New(cfg Config) (*Client, error) {
	creds := ResolveCredentials(cfg.Hostname, cfg.Username, cfg.Password)
	cfg.Hostname = creds.Hostname
	cfg.Username = creds.Username
	cfg.Password = creds.Password

	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: set username/password or %s/%s", ErrNoCredentials, EnvUsername, EnvPassword)
	}

	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("retry config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(logging.ComponentClient).With().
		Str("hostname", cfg.Hostname).
		Logger()
	logger.Debug().Msg("Creating ServiceNOW client")

	transport := cfg.Transport
	if transport == nil {
		httpTransport, err := NewHTTPTransport(TransportConfig{
			Hostname:   cfg.Hostname,
			Username:   cfg.Username,
			Password:   cfg.Password,
			UserAgent:  cfg.UserAgent,
			HTTP2:      cfg.HTTP2,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("create transport: %w", err)
		}
		transport = httpTransport
	}

	c := &Client{
		transport: transport,
		config:    cfg,
		logger:    logger,
	}
	c.paginator = pagination.New(pagination.PageFetcherFunc(c.GetPage),
		logging.NewLogger(logging.ComponentPaginator))

	return c, nil
}

// Hostname returns the resolved instance hostname.
func (c *Client) Hostname() string {
	return c.config.Hostname
}

// Get performs a single GET and processes the response.
// Success bodies that are not JSON objects come back as raw pages.
func (c *Client) Get(ctx context.Context, pathAndQuery string) (*record.Page, error) {
	endpoint := pagination.Endpoint(pathAndQuery)

	// Start request timing
	startTime := time.Now()
	defer func() {
		snRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.transport.Get(ctx, pathAndQuery)
	if err != nil {
		snErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		snRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &ServiceNowError{
			ErrorClass: ErrorClassNetwork,
			Message:    "no response",
			Err:        err,
		}
	}
	snRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	page, err := ProcessResponse(resp)
	if err != nil {
		var snErr *ServiceNowError
		if errors.As(err, &snErr) {
			snErrorsTotal.WithLabelValues(string(snErr.ErrorClass)).Inc()
			c.logger.Error().
				Str("endpoint", endpoint).
				Int("status", snErr.StatusCode).
				Str("error_class", string(snErr.ErrorClass)).
				Msg(snErr.Message)
		}
		return nil, err
	}

	if page.Raw {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Response body is not JSON - returning raw text")
	}

	return page, nil
}

// GetPage fetches the page of query at offset, retrying transactions the
// server cancelled for exceeding its execution time.
func (c *Client) GetPage(ctx context.Context, query string, limit, offset int) (*record.Page, error) {
	endpoint := pagination.Endpoint(query)
	pageQuery := PageQuery(query, limit, offset)

	var page *record.Page
	err := retryWithBackoff(ctx, c.config.Retry, func(attempt int) error {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("offset", offset).
			Int("limit", limit).
			Int("attempt", attempt).
			Msg("Retrieving page")

		p, err := c.Get(ctx, pageQuery)
		if err != nil {
			return err
		}
		page = p
		return nil
	}, RetryExecutionTimeExceeded)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("offset", offset).
		Int("limit", limit).
		Int("records", page.Len()).
		Msg("Retrieved page")

	return page, nil
}

// GetAllPages returns a lazy sequence over every page of query. When apply is
// non-nil each page is filtered before it is yielded.
func (c *Client) GetAllPages(ctx context.Context, query string, limit int, apply filter.Func) iter.Seq2[*record.Page, error] {
	return c.paginator.Pages(ctx, query, limit, apply)
}

// GetPhysicalHardware returns the physical hardware relationship records,
// keeping those whose hardware status is one of statuses ("In Use" when
// none are given). pageSize <= 0 selects DefaultHardwarePageSize.
func (c *Client) GetPhysicalHardware(ctx context.Context, pageSize int, statuses ...string) iter.Seq2[*record.Page, error] {
	if pageSize <= 0 {
		pageSize = DefaultHardwarePageSize
	}
	if len(statuses) == 0 {
		statuses = []string{filter.StatusInUse}
	}

	c.logger.Debug().
		Int("page_size", pageSize).
		Strs("hardware_status", statuses).
		Msg("Retrieving physical hardware records")

	return c.GetAllPages(ctx, PhysicalHardwareQuery, pageSize, filter.ByHardwareStatus(statuses...))
}

// GetPhysicalServers returns in-use, non-virtual server relationship records.
// pageSize <= 0 selects DefaultServersPageSize.
func (c *Client) GetPhysicalServers(ctx context.Context, pageSize int) iter.Seq2[*record.Page, error] {
	if pageSize <= 0 {
		pageSize = DefaultServersPageSize
	}

	c.logger.Debug().
		Int("page_size", pageSize).
		Msg("Retrieving physical server records")

	return c.GetAllPages(ctx, PhysicalServersQuery, pageSize, filter.InUsePhysical)
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	return nil
}

// SetTransport sets a custom transport (for testing).
func (c *Client) SetTransport(t Transport) {
	c.transport = t
}
