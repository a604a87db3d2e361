// Package testutil provides testing utilities for the ServiceNOW client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock table API response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockServiceNow is a configurable mock ServiceNOW table API for testing.
type MockServiceNow struct {
	server    *httptest.Server
	mu        sync.RWMutex
	handlers  map[string]func(w http.ResponseWriter, r *http.Request)
	sequences map[string][]MockResponse

	// Tracking
	RequestCount      int
	RawQueries        []string
	LastRequestHeader http.Header
	LastUsername      string
	LastPassword      string
}

// NewMockServiceNow creates a new mock server.
func NewMockServiceNow() *MockServiceNow {
	mock := &MockServiceNow{
		handlers:  make(map[string]func(w http.ResponseWriter, r *http.Request)),
		sequences: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.RawQueries = append(mock.RawQueries, r.URL.RawQuery)
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastUsername, mock.LastPassword, _ = r.BasicAuth()

		// Sequenced responses are consumed in order; the last one repeats
		if seq, ok := mock.sequences[r.URL.Path]; ok && len(seq) > 0 {
			resp := seq[0]
			if len(seq) > 1 {
				mock.sequences[r.URL.Path] = seq[1:]
			}
			mock.mu.Unlock()
			writeResponse(w, resp)
			return
		}

		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		// Default handler
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockServiceNow) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServiceNow) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockServiceNow) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.RawQueries = nil
	m.LastRequestHeader = nil
	m.LastUsername = ""
	m.LastPassword = ""
}

// SetHandler sets a custom handler for a specific path.
func (m *MockServiceNow) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockServiceNow) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSequence configures responses served in order for a path. Once
// exhausted, the last response repeats.
func (m *MockServiceNow) SetSequence(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[path] = responses
}

// SetTable serves records for a path, honouring sysparm_offset and
// sysparm_limit like the table API does.
func (m *MockServiceNow) SetTable(path string, records []map[string]any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("sysparm_offset"))
		limit, err := strconv.Atoi(r.URL.Query().Get("sysparm_limit"))
		if err != nil || limit <= 0 {
			limit = len(records)
		}

		page := []map[string]any{}
		if offset < len(records) {
			end := min(offset+limit, len(records))
			page = records[offset:end]
		}
		writeResponse(w, NewPageResponse(page...))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockServiceNow) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRawQueries returns the raw query strings received, in order.
func (m *MockServiceNow) GetRawQueries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.RawQueries...)
}

// defaultHandler answers like an empty table.
func (m *MockServiceNow) defaultHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, NewPageResponse())
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	// Add delay if specified
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	// Set headers
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	// Write status and body
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// NewPageResponse creates a 200 OK table API response carrying records.
func NewPageResponse(records ...map[string]any) MockResponse {
	if records == nil {
		records = []map[string]any{}
	}
	body, _ := json.Marshal(map[string]any{"result": records})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json;charset=UTF-8",
		},
	}
}

// NewErrorResponse creates a ServiceNOW-style JSON error response.
func NewErrorResponse(statusCode int, message string) MockResponse {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"message": message,
			"detail":  "",
		},
		"status": "failure",
	})
	return MockResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json;charset=UTF-8",
		},
	}
}

// NewExecutionTimeExceededResponse creates the response ServiceNOW returns
// when it cancels a long-running transaction.
func NewExecutionTimeExceededResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError,
		"com.glide.sys.TransactionCancelledException: Transaction cancelled: maximum execution time exceeded")
}

// NewTextResponse creates a non-JSON response.
func NewTextResponse(statusCode int, body string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}
