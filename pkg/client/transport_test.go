package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		hostname string
		expected string
	}{
		{"e2esm.intel.com", "https://e2esm.intel.com"},
		{"dev.service-now.com/", "https://dev.service-now.com"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
		{"https://instance.service-now.com", "https://instance.service-now.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BaseURL(tt.hostname), tt.hostname)
	}
}

func TestRequote(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"/api/now/table/x?sysparm_query=a%3Db", "/api/now/table/x?sysparm_query=a%3Db"},
		{"/api?q=In Use", "/api?q=In%20Use"},
		{"/api?q=a^b", "/api?q=a%5Eb"},
		{"/api?q=x!%3Dy&f=a,b", "/api?q=x!%3Dy&f=a,b"},
		{"/api?q=\"quoted\"", "/api?q=%22quoted%22"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, requote(tt.in), tt.in)
	}
}

func TestNewHTTPTransport_Validation(t *testing.T) {
	_, err := NewHTTPTransport(TransportConfig{})
	assert.Error(t, err)
}

func TestNewHTTPTransport_HTTP2(t *testing.T) {
	tr, err := NewHTTPTransport(TransportConfig{
		Hostname: "instance.service-now.com",
		HTTP2:    true,
	})
	require.NoError(t, err)

	httpTransport, ok := tr.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Contains(t, httpTransport.TLSClientConfig.NextProtos, "h2")
	assert.Equal(t, defaultHTTPTimeout, tr.httpClient.Timeout)
}

func TestNewHTTPTransport_Timeout(t *testing.T) {
	tr, err := NewHTTPTransport(TransportConfig{
		Hostname: "instance.service-now.com",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, tr.httpClient.Timeout)
}

func TestHTTPTransport_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"child":"a"}]}`))
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(TransportConfig{
		Hostname: server.URL,
		Username: "u",
		Password: "p",
	})
	require.NoError(t, err)

	resp, err := tr.Get(context.Background(), "/api/now/table/cmdb_ci?sysparm_limit=1")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Text(), `"child":"a"`)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestHTTPTransport_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", defaultMaxBodySize+1)))
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(TransportConfig{Hostname: server.URL})
	require.NoError(t, err)

	_, err = tr.Get(context.Background(), "/big")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response too large")
}

func TestResponse_OK(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{200, true},
		{201, true},
		{302, true},
		{400, false},
		{404, false},
		{500, false},
		{0, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, (&Response{StatusCode: tt.status}).OK(), "status %d", tt.status)
	}

	var nilResp *Response
	assert.False(t, nilResp.OK())
	assert.Equal(t, "", nilResp.Text())
}
