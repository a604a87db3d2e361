package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/Sternrassler/servicenow-client/internal/config"
	"github.com/Sternrassler/servicenow-client/pkg/client"
	"github.com/Sternrassler/servicenow-client/pkg/logging"
	"github.com/Sternrassler/servicenow-client/pkg/metrics"
	"github.com/Sternrassler/servicenow-client/pkg/record"
	"github.com/Sternrassler/servicenow-client/pkg/sink"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Export names, also used as the default Redis key suffix.
const (
	exportHardware = "hardware"
	exportServers  = "servers"
)

// query selects the page sequence an export walks.
type query func(ctx context.Context, snow *client.Client, cfg *config.Config) iter.Seq2[*record.Page, error]

func newHardwareCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   exportHardware,
		Short: "Export physical hardware filtered by hardware status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.export(cmd.Context(), exportHardware, cmd.OutOrStdout(),
				func(ctx context.Context, snow *client.Client, cfg *config.Config) iter.Seq2[*record.Page, error] {
					return snow.GetPhysicalHardware(ctx, cfg.Export.PageSize, cfg.Export.Statuses...)
				})
		},
	}

	cmd.Flags().StringSlice("status", nil, `hardware status to keep, repeatable (default "In Use")`)
	if err := c.v.BindPFlag("export.statuses", cmd.Flags().Lookup("status")); err != nil {
		panic(fmt.Sprintf("bind flag status: %v", err))
	}

	return cmd
}

func newServersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   exportServers,
		Short: "Export in-use physical servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.export(cmd.Context(), exportServers, cmd.OutOrStdout(),
				func(ctx context.Context, snow *client.Client, cfg *config.Config) iter.Seq2[*record.Page, error] {
					return snow.GetPhysicalServers(ctx, cfg.Export.PageSize)
				})
		},
	}
}

// export walks q and writes every yielded page to the configured sink.
func (c *cli) export(ctx context.Context, name string, stdout io.Writer, q query) error {
	cfg := c.cfg
	logger := logging.Setup(cfg.LoggingConfig()).With().Str("export", name).Logger()

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr, logger)
		defer stopMetrics()
	}

	snow, err := client.New(cfg.ClientConfig())
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer snow.Close()

	out, closeSink, err := openSink(ctx, cfg, name, stdout)
	if err != nil {
		return err
	}
	defer closeSink()

	start := time.Now()
	pages, records := 0, 0
	for page, err := range q(ctx, snow, cfg) {
		if err != nil {
			logger.Error().Err(err).Int("pages", pages).Msg("Export failed")
			abortSink(ctx, out, logger)
			return fmt.Errorf("export %s: %w", name, err)
		}
		if err := out.Write(ctx, page.Result); err != nil {
			abortSink(ctx, out, logger)
			return fmt.Errorf("write %s: %w", name, err)
		}
		pages++
		records += page.Len()
	}

	if err := out.Commit(ctx); err != nil {
		abortSink(ctx, out, logger)
		return fmt.Errorf("commit %s: %w", name, err)
	}

	logger.Info().
		Str("hostname", snow.Hostname()).
		Str("sink", cfg.Export.Sink).
		Int("pages", pages).
		Int("records", records).
		Dur("duration", time.Since(start)).
		Msg("Export completed")

	return nil
}

// abortSink discards staged output. It runs even when ctx was cancelled.
func abortSink(ctx context.Context, out sink.Sink, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := out.Abort(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to discard staged output")
	}
}

// openSink builds the sink named by cfg.Export.Sink.
func openSink(ctx context.Context, cfg *config.Config, name string, stdout io.Writer) (sink.Sink, func(), error) {
	switch cfg.Export.Sink {
	case config.SinkRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		key := cfg.Redis.Key
		if key == "" {
			key = sink.DefaultKeyPrefix + name
		}
		s := sink.NewRedis(redisClient, key, cfg.Redis.TTL)
		if err := s.Reset(ctx); err != nil {
			_ = redisClient.Close()
			return nil, nil, err
		}
		return s, func() {
			_ = s.Close()
			_ = redisClient.Close()
		}, nil

	default:
		s := sink.NewJSONLines(stdout)
		return s, func() { _ = s.Close() }, nil
	}
}

// serveMetrics exposes /metrics and /health on addr until the returned
// function is called.
func serveMetrics(addr string, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
