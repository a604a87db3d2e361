// Package sink writes exported records to their destination.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for sinks.
var (
	sinkRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_sink_records_total",
		Help: "Total records written by sink",
	}, []string{"sink"})

	sinkErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "servicenow_sink_errors_total",
		Help: "Total sink write failures",
	}, []string{"sink"})
)

// Sink names used in metrics.
const (
	NameJSONLines = "jsonl"
	NameRedis     = "redis"
)

// Sink receives the records of each page in order. Commit publishes what
// was written once the export succeeded; Abort discards it after a failure.
type Sink interface {
	Write(ctx context.Context, records []record.Record) error
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	Close() error
}

// JSONLines writes one JSON object per record.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines creates a JSON lines sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Write implements Sink.
func (s *JSONLines) Write(_ context.Context, records []record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := s.enc.Encode(rec); err != nil {
			sinkErrorsTotal.WithLabelValues(NameJSONLines).Inc()
			return fmt.Errorf("encode record: %w", err)
		}
	}
	sinkRecordsTotal.WithLabelValues(NameJSONLines).Add(float64(len(records)))
	return nil
}

// Commit implements Sink. Lines are already written.
func (s *JSONLines) Commit(context.Context) error {
	return nil
}

// Abort implements Sink. Lines already written cannot be taken back.
func (s *JSONLines) Abort(context.Context) error {
	return nil
}

// Close implements Sink.
func (s *JSONLines) Close() error {
	return nil
}
