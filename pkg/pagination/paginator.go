package pagination

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Sternrassler/servicenow-client/pkg/filter"
	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for pagination runs.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_pages_fetched_total",
		Help: "Total non-empty pages yielded by endpoint",
	}, []string{"endpoint"})

	paginationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_pagination_runs_total",
		Help: "Total pagination runs by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
)

// Run outcomes.
const (
	OutcomeComplete  = "complete"
	OutcomeError     = "error"
	OutcomeAbandoned = "abandoned"
)

var (
	// ErrInvalidLimit is yielded when a run is started with a page size below 1.
	ErrInvalidLimit = errors.New("page limit must be >= 1")

	// ErrUndecodablePage is yielded when a successful response body is not a
	// JSON record set, e.g. an SSO or maintenance page served with status 200.
	ErrUndecodablePage = errors.New("page body is not a JSON record set")
)

// maxBodyExcerpt bounds the raw body quoted in ErrUndecodablePage errors.
const maxBodyExcerpt = 200

// PageFetcher fetches a single page of a table API query.
// Implementations own any per-page retry.
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, limit, offset int) (*record.Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, query string, limit, offset int) (*record.Page, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, query string, limit, offset int) (*record.Page, error) {
	return f(ctx, query, limit, offset)
}

// Paginator walks a table API query page by page.
type Paginator struct {
	fetcher PageFetcher
	logger  zerolog.Logger
}

// New creates a paginator over fetcher.
func New(fetcher PageFetcher, logger zerolog.Logger) *Paginator {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	return &Paginator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// NextOffset returns the offset of the page following the one at offset.
// The step is limit+1; callers rely on this exact arithmetic.
func NextOffset(offset, limit int) int {
	return offset + limit + 1
}

// Endpoint returns the path portion of a query.
func Endpoint(query string) string {
	endpoint, _, _ := strings.Cut(query, "?")
	return endpoint
}

// Pages returns a lazy sequence over the pages of query, starting at offset 0.
//
// Exactly one page is fetched per iteration step, only when the consumer asks
// for it. The sequence ends normally at the first empty page. A fetch error,
// or a page whose body is not a record set (ErrUndecodablePage), is yielded
// once with a nil page and ends the sequence. When apply is non-nil,
// every non-empty page passes through it before being yielded.
//
// Each range over the returned sequence starts a fresh run.
func (p *Paginator) Pages(ctx context.Context, query string, limit int, apply filter.Func) iter.Seq2[*record.Page, error] {
	return func(yield func(*record.Page, error) bool) {
		endpoint := Endpoint(query)
		if limit < 1 {
			yield(nil, fmt.Errorf("%w (got %d)", ErrInvalidLimit, limit))
			return
		}

		runID := uuid.NewString()
		logger := p.logger.With().
			Str("endpoint", endpoint).
			Str("run_id", runID).
			Logger()

		start := time.Now()
		logger.Debug().Int("limit", limit).Msg("Retrieving all pages")

		pages := 0
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				paginationRunsTotal.WithLabelValues(endpoint, OutcomeError).Inc()
				yield(nil, fmt.Errorf("pagination cancelled at offset %d: %w", offset, err))
				return
			}

			page, err := p.fetcher.FetchPage(ctx, query, limit, offset)
			if err != nil {
				logger.Error().
					Err(err).
					Int("offset", offset).
					Int("pages", pages).
					Msg("Page fetch failed - aborting pagination")
				paginationRunsTotal.WithLabelValues(endpoint, OutcomeError).Inc()
				yield(nil, err)
				return
			}

			if page != nil && page.Raw {
				logger.Error().
					Int("offset", offset).
					Int("pages", pages).
					Msg("Page body is not a record set - aborting pagination")
				paginationRunsTotal.WithLabelValues(endpoint, OutcomeError).Inc()
				yield(nil, fmt.Errorf("%w at offset %d: %q", ErrUndecodablePage, offset, excerpt(page.Text())))
				return
			}

			if page.Empty() {
				logger.Debug().Int("offset", offset).Msg("Page result not detected - exiting")
				break
			}

			logger.Debug().
				Int("offset", offset).
				Int("records", page.Len()).
				Msg("Page result detected - yielding")
			pagesFetchedTotal.WithLabelValues(endpoint).Inc()
			pages++

			if apply != nil {
				page = apply(page)
			}
			if !yield(page, nil) {
				logger.Debug().Int("pages", pages).Msg("Pagination abandoned by consumer")
				paginationRunsTotal.WithLabelValues(endpoint, OutcomeAbandoned).Inc()
				return
			}

			offset = NextOffset(offset, limit)
		}

		paginationRunsTotal.WithLabelValues(endpoint, OutcomeComplete).Inc()
		logger.Debug().
			Int("pages", pages).
			Dur("duration", time.Since(start)).
			Msg("Retrieved all pages")
	}
}

func excerpt(body string) string {
	if len(body) <= maxBodyExcerpt {
		return body
	}
	return body[:maxBodyExcerpt] + "..."
}

// Collect drains seq and returns every record in order.
// It stops on the first error and returns the records gathered so far.
func Collect(seq iter.Seq2[*record.Page, error]) ([]record.Record, error) {
	records := make([]record.Record, 0)
	for page, err := range seq {
		if err != nil {
			return records, err
		}
		records = append(records, page.Result...)
	}
	return records, nil
}
