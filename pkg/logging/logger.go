// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled silences a logger entirely.
	LevelDisabled LogLevel = "disabled"
)

// Component names used across the client.
const (
	ComponentClient    = "servicenow-client"
	ComponentTransport = "servicenow-transport"
	ComponentPaginator = "paginator"
	ComponentFilter    = "filter"
	ComponentSink      = "sink"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// TransportLevel is the minimum level for the HTTP transport logger.
	// Request-level chatter stays hidden unless explicitly lowered.
	TransportLevel LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		TransportLevel: LevelError,
		Pretty:         false,
		Output:         os.Stderr,
	}
}

var transportLevel = zerolog.ErrorLevel

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	if cfg.TransportLevel != "" {
		transportLevel = parseLevel(cfg.TransportLevel)
	}

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// NewTransportLogger returns the HTTP transport logger, held at the
// configured transport level regardless of the global level.
func NewTransportLogger() zerolog.Logger {
	return NewLogger(ComponentTransport).Level(transportLevel)
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Page fetch start/end (endpoint, offset, limit, record count)
//   - Filter decisions for skipped records
//   - Retry candidacy checks
//   - Pagination run start/finish
//
// Info: Normal operation events
//   - Export completion and metrics server start in the CLI
//   - Success after a retry
//
// Warn: Warning conditions that don't prevent operation
//   - Retry attempts after "maximum execution time exceeded"
//   - Undecodable success bodies
//
// Error: Error conditions requiring attention
//   - Failed requests (error message extracted from the response)
//   - Retry exhaustion
//   - Export failures in the CLI
//
// Context Fields:
//   - endpoint: table API path without query
//   - offset, limit: pagination window
//   - status: HTTP status code
//   - error_class: execution_time_exceeded, request_failed, network
//   - attempt: retry attempt number
//   - backoff: retry delay
//   - records: records on a page
//   - run_id: pagination run correlation ID
